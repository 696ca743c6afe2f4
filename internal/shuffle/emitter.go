package shuffle

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/shuffly/shuffly/internal/bucket"
	"github.com/shuffly/shuffly/internal/metrics"
	"github.com/shuffly/shuffly/internal/storage"
)

// Emitter runs phase 2: for each bucket in ascending index order it loads the
// bucket's lines into memory, permutes them uniformly, writes the final
// output file, and deletes the bucket's temporary storage. Peak memory is
// bounded by the largest single bucket, not by total input size.
type Emitter struct {
	arena *bucket.Arena
	store storage.Store
	rng   *rand.Rand
	base  string
	ext   string
	log   *slog.Logger
}

// NewEmitter creates a phase-2 emitter reading from arena and writing
// through store.
func NewEmitter(arena *bucket.Arena, store storage.Store, rng *rand.Rand, base, ext string) *Emitter {
	return &Emitter{
		arena: arena,
		store: store,
		rng:   rng,
		base:  base,
		ext:   ext,
		log:   slog.With("component", "emitter"),
	}
}

// outputName computes the filename for bucket i. A single-bucket run gets the
// bare base name; otherwise the name carries the bucket's 1-based original
// index, so part numbers can have gaps when middle buckets are empty.
func (e *Emitter) outputName(i int) string {
	if e.arena.Count() == 1 {
		return e.base + e.ext
	}
	return fmt.Sprintf("%s_part%04d%s", e.base, i+1, e.ext)
}

// Run emits every non-empty bucket and returns the results in bucket order.
// A failure aborts the remaining buckets: outputs already written and buckets
// already deleted stay as they are, later buckets keep their temp files.
func (e *Emitter) Run(ctx context.Context) ([]storage.WriteResult, error) {
	results := make([]storage.WriteResult, 0, e.arena.Count())
	for i := 0; i < e.arena.Count(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, emitted, err := e.emitBucket(ctx, i)
		if err != nil {
			return nil, err
		}
		if emitted {
			results = append(results, res)
		}
	}
	return results, nil
}

// emitBucket shuffles and writes one bucket. An empty bucket produces no
// output file; its backing file is still removed so a successful run leaves
// no temporary state behind. The temp file of a non-empty bucket is deleted
// only after its output file is fully flushed.
func (e *Emitter) emitBucket(ctx context.Context, i int) (storage.WriteResult, bool, error) {
	lines, err := e.arena.Lines(i)
	if err != nil {
		return storage.WriteResult{}, false, err
	}

	if len(lines) == 0 {
		if err := e.arena.Remove(i); err != nil {
			return storage.WriteResult{}, false, err
		}
		if m := metrics.Get(); m != nil {
			m.BucketsSkipped.Inc()
		}
		return storage.WriteResult{}, false, nil
	}

	e.rng.Shuffle(len(lines), func(a, b int) {
		lines[a], lines[b] = lines[b], lines[a]
	})

	name := e.outputName(i)
	res, err := e.store.WriteLines(ctx, name, lines)
	if err != nil {
		return storage.WriteResult{}, false, fmt.Errorf("emit bucket %d: %w", i, err)
	}

	if err := e.arena.Remove(i); err != nil {
		return storage.WriteResult{}, false, err
	}

	if m := metrics.Get(); m != nil {
		m.BucketsEmitted.Inc()
		m.LinesWritten.Add(float64(res.Lines))
		m.OutputBytes.Observe(float64(res.Bytes))
	}

	e.log.Debug("emitted bucket", "bucket", i, "file", name, "lines", res.Lines, "bytes", res.Bytes)
	return res, true, nil
}
