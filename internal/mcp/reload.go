package mcp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const reloadDebounce = 500 * time.Millisecond

// Reloadable is anything that can re-read its rule set on demand.
type Reloadable interface {
	ReloadRules() error
}

// Reloader watches the rules file for changes and triggers hot-reload.
// It watches the parent directory so that editors which replace the file
// by rename, and rules files created after startup, are both picked up.
type Reloader struct {
	watcher *fsnotify.Watcher
	target  Reloadable
	path    string
}

// NewReloader creates a file watcher for the given rules path.
func NewReloader(target Reloadable, path string) (*Reloader, error) {
	if path == "" {
		return nil, fmt.Errorf("no rules path to watch")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	dir := filepath.Dir(path)
	if _, err := os.Stat(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %q: %w", dir, err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %q: %w", dir, err)
	}

	return &Reloader{
		watcher: watcher,
		target:  target,
		path:    filepath.Clean(path),
	}, nil
}

// Run watches for file changes and reloads rules. Blocks until ctx is cancelled.
func (r *Reloader) Run(ctx context.Context) error {
	defer r.watcher.Close()

	var debounce *time.Timer

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return nil

		case event, ok := <-r.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != r.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(reloadDebounce, func() {
					if err := r.target.ReloadRules(); err != nil {
						fmt.Fprintf(os.Stderr, "hot-reload failed: %v\n", err)
					} else {
						fmt.Fprintf(os.Stderr, "hot-reload: rules reloaded\n")
					}
				})
			}

		case err, ok := <-r.watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "file watcher error: %v\n", err)
		}
	}
}
