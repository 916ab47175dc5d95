package audit

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/hookwatch/internal/redact"
)

// GenesisHash is the prev_hash for the first entry in a new audit log.
const GenesisHash = "sha256:0000000000000000000000000000000000000000000000000000000000000000"

// Recorder receives one entry per decision. Implementations must be safe
// for concurrent use.
type Recorder interface {
	Record(entry Entry) error
}

// Log is an append-only JSONL audit log with SHA-256 hash chaining.
// Each entry's prev_hash is the hash of the previous entry's JSON line,
// forming a tamper-evident chain. Appends hold an exclusive lock on the
// file, so several processes may share one log without forking the chain.
type Log struct {
	path string
	file *os.File
	mu   sync.Mutex
}

// Open opens (or creates) an audit log file for appending.
// The chain tail is read from the file on every Record, not cached here.
func Open(path string) (*Log, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("audit: create directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("audit: open file: %w", err)
	}
	if _, err := lastLine(file); err != nil {
		file.Close()
		return nil, fmt.Errorf("audit: read existing log: %w", err)
	}

	return &Log{path: path, file: file}, nil
}

// Record appends an Entry to the log with hash chaining.
// It fills Timestamp and InvocationID when empty, masks secrets in
// Details and Reason, caps free-text fields, sets PrevHash from the
// current file tail, writes the line, and syncs to disk.
func (l *Log) Record(entry Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if entry.Timestamp == "" {
		entry.Timestamp = time.Now().UTC().Format(TimestampFormat)
	}
	if entry.InvocationID == "" {
		entry.InvocationID = uuid.NewString()
	}
	entry.Details = TruncateDetails(redact.Secrets(entry.Details))
	entry.Reason = truncate(redact.Secrets(entry.Reason), maxReason)
	entry.SessionID = truncate(entry.SessionID, maxDetails)
	entry.Event = truncate(entry.Event, maxDetails)
	entry.Tool = truncate(entry.Tool, maxDetails)
	entry.RuleID = truncate(entry.RuleID, maxDetails)

	if err := lockFile(l.file); err != nil {
		return fmt.Errorf("audit: lock %s: %w", l.path, err)
	}
	defer unlockFile(l.file)

	tail, err := lastLine(l.file)
	if err != nil {
		return fmt.Errorf("audit: read chain tail: %w", err)
	}
	entry.PrevHash = GenesisHash
	if len(tail) > 0 {
		entry.PrevHash = HashLine(tail)
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("audit: marshal entry: %w", err)
	}

	if _, err := l.file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("audit: write entry: %w", err)
	}

	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("audit: sync: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying file.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}

// HashLine returns "sha256:<hex>" of the given bytes.
func HashLine(line []byte) string {
	h := sha256.Sum256(line)
	return "sha256:" + hex.EncodeToString(h[:])
}

// tailChunk is the read size used when walking back from EOF.
const tailChunk = 4096

// lastLine returns the final line of f without its newline, reading
// backwards from EOF so no single line needs to fit a scanner buffer.
// An empty file yields nil.
func lastLine(f *os.File) ([]byte, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	var tail []byte
	for off := info.Size(); off > 0; {
		n := min(off, tailChunk)
		off -= n
		chunk := make([]byte, int(n), int(n)+len(tail))
		if _, err := f.ReadAt(chunk, off); err != nil {
			return nil, err
		}
		tail = append(chunk, tail...)

		trimmed := bytes.TrimRight(tail, "\n")
		if i := bytes.LastIndexByte(trimmed, '\n'); i >= 0 {
			return trimmed[i+1:], nil
		}
		if off == 0 {
			return trimmed, nil
		}
	}
	return nil, nil
}
