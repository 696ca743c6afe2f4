// Package linesource streams decoded text lines from plain or compressed
// record files. Compression is detected purely by file-name suffix, never by
// content sniffing.
package linesource

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Recognized compressed-file suffixes.
const (
	GzipSuffix = ".gz"
	ZstdSuffix = ".zst"
)

// MaxLineBytes is the largest single record the scanner accepts.
const MaxLineBytes = 16 << 20

// IsCompressed reports whether the path names a compressed record file.
func IsCompressed(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasSuffix(lower, GzipSuffix) || strings.HasSuffix(lower, ZstdSuffix)
}

// LineReader is a lazy, forward-only stream of decoded lines from one file.
// It is not restartable and provides no random access.
type LineReader struct {
	path    string
	scanner *bufio.Scanner
	closers []io.Closer
	closed  bool
}

// Open opens path for line-wise reading, wrapping it in a streaming
// decompressor when the suffix indicates a compressed format.
func Open(path string) (*LineReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input %s: %w", path, err)
	}

	var rd io.Reader = f
	closers := []io.Closer{f}

	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, GzipSuffix):
		zr, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("open gzip stream %s: %w", path, err)
		}
		rd = zr
		closers = []io.Closer{zr, f}
	case strings.HasSuffix(lower, ZstdSuffix):
		dec, err := zstd.NewReader(f, zstd.WithDecoderConcurrency(1))
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("open zstd stream %s: %w", path, err)
		}
		rc := dec.IOReadCloser()
		rd = rc
		closers = []io.Closer{rc, f}
	}

	scanner := bufio.NewScanner(rd)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxLineBytes)

	return &LineReader{
		path:    path,
		scanner: scanner,
		closers: closers,
	}, nil
}

// Path returns the file path this reader was opened on.
func (r *LineReader) Path() string {
	return r.path
}

// Scan advances to the next line, returning false at end of stream or on a
// read error. Check Err after a false return.
func (r *LineReader) Scan() bool {
	if r.closed {
		return false
	}
	return r.scanner.Scan()
}

// Text returns the current line.
func (r *LineReader) Text() string {
	return r.scanner.Text()
}

// Err returns the first error hit while reading, if any. A malformed
// compressed stream surfaces here; no partial-line recovery is attempted.
func (r *LineReader) Err() error {
	if err := r.scanner.Err(); err != nil {
		return fmt.Errorf("read %s: %w", r.path, err)
	}
	return nil
}

// Close releases the underlying file and any decompressor. Safe to call
// more than once.
func (r *LineReader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true

	var firstErr error
	for _, c := range r.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
