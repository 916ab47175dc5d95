// Package session builds the banner printed by the session-start hook.
package session

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// MaxTodos caps the number of open items shown in the banner.
const MaxTodos = 5

// TodoFiles are searched in order; the first with open items wins.
var TodoFiles = []string{"TODO.md", filepath.Join(".claude", "TODO.md"), "CLAUDE.md"}

var todoRe = regexp.MustCompile(`^[\s-]*\[ \]\s+(.+)$`)

// Command is one entry in the quick-command menu.
type Command struct {
	Name string
	Desc string
}

// DefaultCommands is the quick-command menu shown when none is configured.
var DefaultCommands = []Command{
	{"/help", "full assistant help"},
	{"/commit", "commit staged changes"},
	{"/review-pr", "review a pull request"},
	{"/test", "run the test suite"},
}

// Banner is the session-start context.
type Banner struct {
	Language string
	Root     string
	TodoFile string
	Todos    []string
	Commands []Command
}

// Collect gathers the banner for the project rooted at root.
// A missing or unreadable TODO file is not an error; the banner just
// reports that nothing is open.
func Collect(root, language string) (*Banner, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve project root: %w", err)
	}

	file, todos, err := FindTodos(abs)
	if err != nil {
		return nil, err
	}

	return &Banner{
		Language: language,
		Root:     abs,
		TodoFile: file,
		Todos:    todos,
		Commands: DefaultCommands,
	}, nil
}

// FindTodos returns up to MaxTodos unchecked items from the first TODO file
// under root that has any, along with that file's root-relative path.
func FindTodos(root string) (string, []string, error) {
	for _, name := range TodoFiles {
		data, err := os.ReadFile(filepath.Join(root, name))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return "", nil, fmt.Errorf("read %s: %w", name, err)
		}
		if todos := parseTodos(data); len(todos) > 0 {
			return name, todos, nil
		}
	}
	return "", nil, nil
}

func parseTodos(data []byte) []string {
	var todos []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		m := todoRe.FindStringSubmatch(strings.TrimRight(scanner.Text(), "\r"))
		if m == nil {
			continue
		}
		todos = append(todos, strings.TrimSpace(m[1]))
		if len(todos) == MaxTodos {
			break
		}
	}
	return todos
}

// Render formats the banner as markdown for the assistant's context.
func (b *Banner) Render() string {
	var sb strings.Builder
	sb.WriteString("# Session started\n\n")

	if b.Language != "" {
		sb.WriteString("## Language\n")
		fmt.Fprintf(&sb, "Respond in %s unless the user asks for another language.\n\n", b.Language)
	}

	sb.WriteString("## Open items")
	if len(b.Todos) == 0 {
		sb.WriteString("\nNo open items (or no TODO file found).\n")
	} else {
		fmt.Fprintf(&sb, " (from %s)\n", b.TodoFile)
		for i, t := range b.Todos {
			fmt.Fprintf(&sb, "%d. [ ] %s\n", i+1, t)
		}
	}

	if len(b.Commands) > 0 {
		sb.WriteString("\n## Quick commands\n")
		for _, c := range b.Commands {
			fmt.Fprintf(&sb, "  %-15s - %s\n", c.Name, c.Desc)
		}
	}

	sb.WriteString("\n---\n")
	fmt.Fprintf(&sb, "Project root: %s\n", b.Root)
	sb.WriteString("See CLAUDE.md for the project workflow.\n")
	return sb.String()
}
