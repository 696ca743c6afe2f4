// Package shuffle implements the two-phase external shuffle engine: phase 1
// scatters input lines across temporary buckets under memory and descriptor
// bounds, phase 2 permutes each bucket in memory and emits it as one final
// output file.
package shuffle

import (
	"context"
	"fmt"
	"time"

	"github.com/shuffly/shuffly/internal/bucket"
	"github.com/shuffly/shuffly/internal/logging"
	"github.com/shuffly/shuffly/internal/metrics"
	"github.com/shuffly/shuffly/internal/storage"
)

// Version information (set via ldflags)
var (
	Version = "v0.1.0"
	GitSHA  = "unknown"
)

// Options carries the validated run configuration for the engine. Inputs are
// assumed to exist and the scratch directory to be writable; config-level
// validation happens before the engine runs.
type Options struct {
	// Inputs is the list of input file paths. The distributor sorts them
	// itself, so the order given here does not matter.
	Inputs []string

	// ScratchDir is where the temporary bucket files live. It is normally
	// the local output directory.
	ScratchDir string

	// OutputName is the base name for output files; Extension is appended
	// after any part suffix.
	OutputName string
	Extension  string

	// MaxOutputBytes is the approximate per-output size ceiling used to
	// plan the bucket count.
	MaxOutputBytes int64

	// Seed makes the run reproducible when non-nil.
	Seed *int64

	MaxOpenReaders int
	MaxOpenWriters int
	FlushBytes     int64
}

func (o *Options) setDefaults() {
	if o.MaxOpenReaders <= 0 {
		o.MaxOpenReaders = 16
	}
	if o.MaxOpenWriters <= 0 {
		o.MaxOpenWriters = 128
	}
	if o.FlushBytes <= 0 {
		o.FlushBytes = 64 << 20
	}
	if o.Extension == "" {
		o.Extension = ".jsonl"
	}
}

// Result describes a completed run.
type Result struct {
	// Outputs lists the files actually written, in bucket order. Buckets
	// that received no lines produce no entry.
	Outputs []storage.WriteResult

	// BucketCount is the planned number of buckets (≥ 1).
	BucketCount int

	// TotalBytes is the estimated input size the plan was based on.
	TotalBytes int64

	Duration time.Duration
}

// Paths returns the output locations in emission order.
func (r *Result) Paths() []string {
	paths := make([]string, len(r.Outputs))
	for i, out := range r.Outputs {
		paths[i] = out.Path
	}
	return paths
}

// Run executes a full shuffle: size estimation, bucket planning, distribution
// and shuffle-and-emit. It returns either the full list of written outputs or
// the first error; there is no partial-success reporting and no retries.
func Run(ctx context.Context, opts Options, store storage.Store) (*Result, error) {
	opts.setDefaults()
	start := time.Now()
	log := logging.Component("shuffle")

	total, err := TotalInputSize(opts.Inputs)
	if err != nil {
		return nil, err
	}
	count := BucketCount(total, opts.MaxOutputBytes)

	log.Info("planned shuffle",
		"inputs", len(opts.Inputs),
		"total_bytes", total,
		"bucket_count", count,
		"seeded", opts.Seed != nil,
	)

	distRNG, permRNG := PhaseRNGs(opts.Seed)
	arena := bucket.NewArena(opts.ScratchDir, opts.OutputName, count)

	distStart := time.Now()
	dist := NewDistributor(arena, distRNG, opts.MaxOpenReaders, opts.MaxOpenWriters, opts.FlushBytes)
	if err := dist.Run(ctx, opts.Inputs); err != nil {
		// Bucket files already written stay on disk for external cleanup.
		return nil, fmt.Errorf("distribute: %w", err)
	}
	if m := metrics.Get(); m != nil {
		m.ObservePhaseDuration("distribute", time.Since(distStart).Seconds())
	}
	logging.Phase("distribute", count).Info("phase complete", "elapsed", time.Since(distStart).String())

	emitStart := time.Now()
	emitter := NewEmitter(arena, store, permRNG, opts.OutputName, opts.Extension)
	outputs, err := emitter.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("emit: %w", err)
	}
	if m := metrics.Get(); m != nil {
		m.ObservePhaseDuration("emit", time.Since(emitStart).Seconds())
	}
	logging.Phase("emit", count).Info("phase complete",
		"outputs", len(outputs),
		"elapsed", time.Since(emitStart).String(),
	)

	return &Result{
		Outputs:     outputs,
		BucketCount: count,
		TotalBytes:  total,
		Duration:    time.Since(start),
	}, nil
}
