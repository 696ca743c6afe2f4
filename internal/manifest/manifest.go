// Package manifest records what a shuffle run produced. The manifest is
// written next to the outputs as manifest.json and is informational only;
// nothing in the engine reads it back.
package manifest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/shuffly/shuffly/internal/storage"
)

// FileName is the manifest's name inside the output destination.
const FileName = "manifest.json"

// Manifest describes a completed shuffle run.
type Manifest struct {
	RunID       string       `json:"run_id"`
	Inputs      []string     `json:"inputs"`
	Seed        *int64       `json:"seed,omitempty"`
	BucketCount int          `json:"bucket_count"`
	Outputs     []OutputInfo `json:"outputs"`
	Producer    ProducerInfo `json:"producer"`
	CreatedAt   time.Time    `json:"created_at"`
}

// OutputInfo describes one emitted output file.
type OutputInfo struct {
	File     string `json:"file"`
	Lines    int    `json:"lines"`
	ByteSize int64  `json:"byte_size"`
	Checksum string `json:"checksum"`
}

// ProducerInfo describes the software that produced the run.
type ProducerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	GitSHA  string `json:"git_sha,omitempty"`
}

// New builds a manifest for a run with a fresh run ID.
func New(inputs []string, seed *int64, bucketCount int, outputs []storage.WriteResult, producer ProducerInfo) *Manifest {
	infos := make([]OutputInfo, len(outputs))
	for i, out := range outputs {
		infos[i] = OutputInfo{
			File:     out.Path,
			Lines:    out.Lines,
			ByteSize: out.Bytes,
			Checksum: out.Checksum,
		}
	}
	return &Manifest{
		RunID:       uuid.New().String(),
		Inputs:      inputs,
		Seed:        seed,
		BucketCount: bucketCount,
		Outputs:     infos,
		Producer:    producer,
		CreatedAt:   time.Now().UTC(),
	}
}

// Encode returns the manifest as indented JSON.
func (m *Manifest) Encode() ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}

// Write stores the manifest through the output store.
func Write(ctx context.Context, store storage.Store, m *Manifest) error {
	data, err := m.Encode()
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := store.WriteFile(ctx, FileName, data); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}
