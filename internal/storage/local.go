package storage

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LocalStore writes output files to a local directory.
type LocalStore struct {
	dir string
}

// NewLocalStore creates a local filesystem store rooted at dir.
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory %s: %w", dir, err)
	}
	return &LocalStore{dir: dir}, nil
}

// WriteLines writes lines to name atomically: the data goes to a temp file
// first and is renamed into place after the closing flush.
func (s *LocalStore) WriteLines(ctx context.Context, name string, lines []string) (WriteResult, error) {
	path := filepath.Join(s.dir, name)
	tempPath := path + ".tmp"

	f, err := os.Create(tempPath)
	if err != nil {
		return WriteResult{}, fmt.Errorf("create temp file %s: %w", tempPath, err)
	}

	sum := newChecksumWriter()
	w := bufio.NewWriter(io.MultiWriter(f, sum))

	if err := writeLines(w, lines); err != nil {
		f.Close()
		os.Remove(tempPath)
		return WriteResult{}, fmt.Errorf("write %s: %w", tempPath, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tempPath)
		return WriteResult{}, fmt.Errorf("close %s: %w", tempPath, err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return WriteResult{}, fmt.Errorf("rename %s to %s: %w", tempPath, path, err)
	}

	return WriteResult{
		Path:     s.URI(name),
		Lines:    len(lines),
		Bytes:    sum.n,
		Checksum: sum.Sum(),
	}, nil
}

// WriteFile writes opaque bytes to name with the same temp+rename discipline.
func (s *LocalStore) WriteFile(ctx context.Context, name string, data []byte) error {
	path := filepath.Join(s.dir, name)
	tempPath := path + ".tmp"

	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("write temp file %s: %w", tempPath, err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("rename %s to %s: %w", tempPath, path, err)
	}
	return nil
}

// URI returns the absolute path for name.
func (s *LocalStore) URI(name string) string {
	path := filepath.Join(s.dir, name)
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

// Close is a no-op for local storage.
func (s *LocalStore) Close() error {
	return nil
}

// writeLines writes each line followed by a newline and flushes the writer.
func writeLines(w *bufio.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := w.WriteString(line); err != nil {
			return err
		}
		if err := w.WriteByte('\n'); err != nil {
			return err
		}
	}
	return w.Flush()
}
