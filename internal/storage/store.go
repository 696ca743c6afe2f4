// Package storage writes final shuffle outputs to a pluggable destination.
package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
)

// WriteResult describes one emitted output file.
type WriteResult struct {
	// Path is the canonical location of the output: an absolute filesystem
	// path for the local backend, a URI for blob backends.
	Path string

	// Lines is the number of records written.
	Lines int

	// Bytes is the total byte size written, terminators included.
	Bytes int64

	// Checksum is the sha256 checksum of the written bytes.
	Checksum string
}

// Store writes finished output files. Outputs are written exactly once;
// a name is never reopened or appended after its closing flush.
type Store interface {
	// WriteLines writes lines, each followed by a newline, to name.
	WriteLines(ctx context.Context, name string, lines []string) (WriteResult, error)

	// WriteFile writes opaque bytes to name (used for the run manifest).
	WriteFile(ctx context.Context, name string, data []byte) error

	// URI returns the canonical location for name.
	URI(name string) string

	// Close releases any resources.
	Close() error
}

// Config selects and configures the output backend.
type Config struct {
	// OutputDir is the local destination directory (and the scratch
	// directory for temporary buckets regardless of backend).
	OutputDir string

	// DestURL, when set, routes outputs to a blob bucket instead
	// (file://, gs://, s3://).
	DestURL string
}

// New creates an output store based on configuration.
func New(ctx context.Context, cfg Config) (Store, error) {
	if cfg.DestURL != "" {
		return NewBlobStore(ctx, cfg.DestURL)
	}
	if cfg.OutputDir == "" {
		return nil, fmt.Errorf("output directory required for local backend")
	}
	return NewLocalStore(cfg.OutputDir)
}

// checksumWriter accumulates a sha256 digest of everything written through it.
type checksumWriter struct {
	h hash.Hash
	n int64
}

func newChecksumWriter() *checksumWriter {
	return &checksumWriter{h: sha256.New()}
}

func (w *checksumWriter) Write(p []byte) (int, error) {
	w.h.Write(p)
	w.n += int64(len(p))
	return len(p), nil
}

// Sum returns the digest in the "sha256:<hex>" form used by the manifest.
func (w *checksumWriter) Sum() string {
	return "sha256:" + hex.EncodeToString(w.h.Sum(nil))
}
