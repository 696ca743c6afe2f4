// Package bucket manages the temporary bucket files shared by the two shuffle
// phases. Buckets are index-addressed: the distributor appends to a bucket by
// index, then hands the whole arena to the emitter, which reads and deletes by
// the same index. The file naming is private to this package and not part of
// the tool's contract.
package bucket

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Arena addresses a fixed set of temporary bucket files inside dir.
type Arena struct {
	dir   string
	base  string
	count int
}

// NewArena creates an arena of count buckets named after base inside dir.
// No files are created until the first append.
func NewArena(dir, base string, count int) *Arena {
	return &Arena{dir: dir, base: base, count: count}
}

// Count returns the number of buckets in the arena.
func (a *Arena) Count() int {
	return a.count
}

// Path returns the backing file path for bucket i. The leading dot keeps the
// file hidden while a run is in flight.
func (a *Arena) Path(i int) string {
	return filepath.Join(a.dir, fmt.Sprintf(".%s_bucket_%04d", a.base, i))
}

// Reset deletes every bucket file matching the arena's naming scheme,
// including leftovers beyond the current count from an earlier aborted run
// that planned more buckets. Appends after a Reset always start from empty
// files.
func (a *Arena) Reset() error {
	stale, err := filepath.Glob(filepath.Join(a.dir, fmt.Sprintf(".%s_bucket_*", a.base)))
	if err != nil {
		return fmt.Errorf("reset buckets: %w", err)
	}
	for _, path := range stale {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("reset buckets: %w", err)
		}
	}
	return nil
}

// OpenAppend opens bucket i's backing file for appending, creating it if
// needed. The caller owns the returned handle.
func (a *Arena) OpenAppend(i int) (*os.File, error) {
	f, err := os.OpenFile(a.Path(i), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open bucket %d: %w", i, err)
	}
	return f, nil
}

// Lines reads all of bucket i's lines into memory, trimming whitespace and
// dropping blanks. A bucket that was never written to reads as empty.
func (a *Arena) Lines(i int) ([]string, error) {
	f, err := os.Open(a.Path(i))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open bucket %d: %w", i, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxBucketLineBytes)

	var lines []string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read bucket %d: %w", i, err)
	}
	return lines, nil
}

// Remove deletes bucket i's backing file. Removing a bucket that was never
// written to is not an error.
func (a *Arena) Remove(i int) error {
	if err := os.Remove(a.Path(i)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove bucket %d: %w", i, err)
	}
	return nil
}

const maxBucketLineBytes = 16 << 20
