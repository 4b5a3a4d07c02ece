package store

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"budgie/internal/event"
)

// DefaultFileName is the log's file name inside the data directory.
const DefaultFileName = "event-stream.ndjson"

const maxRecordSize = 1 << 20

// File stores one JSON record per line. Appends are serialized by a mutex;
// a second process writing the same file is not supported.
type File struct {
	path string
	mu   sync.Mutex
}

// NewFile creates the parent directory if needed. The file itself is created
// on first append.
func NewFile(path string) (*File, error) {
	if path == "" {
		return nil, errors.New("event file path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, Unavailable("create event directory", err)
	}
	return &File{path: path}, nil
}

// DefaultFilePath returns ~/.budgie/event-stream.ndjson.
func DefaultFilePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".budgie", DefaultFileName), nil
}

func (f *File) Path() string { return f.path }

func (f *File) Append(ctx context.Context, e event.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b, err := Encode(e)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	fh, err := os.OpenFile(f.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return Unavailable("open event file", err)
	}
	if _, err := fh.Write(append(b, '\n')); err != nil {
		fh.Close()
		return Unavailable("write event", err)
	}
	if err := fh.Sync(); err != nil {
		fh.Close()
		return Unavailable("sync event file", err)
	}
	if err := fh.Close(); err != nil {
		return Unavailable("close event file", err)
	}
	return nil
}

// Replay reads the file from the start. A missing file is an empty log.
func (f *File) Replay(ctx context.Context, fn func(event.Event) error) error {
	fh, err := os.Open(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return Unavailable("open event file", err)
	}
	defer fh.Close()

	scanner := bufio.NewScanner(fh)
	scanner.Buffer(make([]byte, 0, 64*1024), maxRecordSize)
	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		e, err := Decode(raw)
		if err != nil {
			return &RecordError{Position: line, Err: err}
		}
		if err := fn(e); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return Unavailable("read event file", err)
	}
	return nil
}

func (f *File) Close() error { return nil }
