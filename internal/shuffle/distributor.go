package shuffle

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"sort"
	"strings"

	"github.com/shuffly/shuffly/internal/bucket"
	"github.com/shuffly/shuffly/internal/linesource"
	"github.com/shuffly/shuffly/internal/metrics"
)

// Distributor runs phase 1: it consumes every input's line stream and
// scatters non-blank lines across the bucket arena under memory and
// descriptor bounds. Lines are staged in an in-memory buffer keyed by bucket
// index and appended to the bucket files in batched flushes, so neither the
// number of open handles nor the buffered byte size grows with input size.
type Distributor struct {
	arena      *bucket.Arena
	rng        *rand.Rand
	maxReaders int
	maxWriters int
	flushBytes int64
	log        *slog.Logger

	buf      map[int][]string
	buffered int64
}

// NewDistributor creates a phase-1 distributor writing into arena.
func NewDistributor(arena *bucket.Arena, rng *rand.Rand, maxReaders, maxWriters int, flushBytes int64) *Distributor {
	return &Distributor{
		arena:      arena,
		rng:        rng,
		maxReaders: maxReaders,
		maxWriters: maxWriters,
		flushBytes: flushBytes,
		log:        slog.With("component", "distributor"),
		buf:        make(map[int][]string),
	}
}

// Run distributes every line of inputs into the arena. The arena is reset
// first so stale bucket files from an earlier aborted run cannot leak into
// this one. Inputs are sorted lexicographically so a fixed seed always sees
// the same line order for the same physical inputs. On error the run aborts
// immediately, leaving any bucket files already written in place.
func (d *Distributor) Run(ctx context.Context, inputs []string) error {
	if err := d.arena.Reset(); err != nil {
		return err
	}

	paths := make([]string, len(inputs))
	copy(paths, inputs)
	sort.Strings(paths)

	for start := 0; start < len(paths); start += d.maxReaders {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := start + d.maxReaders
		if end > len(paths) {
			end = len(paths)
		}
		if err := d.distributeBatch(ctx, paths[start:end]); err != nil {
			return err
		}
	}

	// Final flush of whatever is still buffered.
	return d.flush()
}

// distributeBatch opens one reader per path and interleaves reads across them
// round-robin, one line per active reader per pass, dropping a reader once it
// is exhausted. The interleaving keeps line arrival pseudo-mixed across
// co-processed files, which matters for reproducibility, not correctness.
func (d *Distributor) distributeBatch(ctx context.Context, batch []string) error {
	readers := make([]*linesource.LineReader, 0, len(batch))
	defer func() {
		for _, r := range readers {
			r.Close()
		}
	}()

	for _, path := range batch {
		r, err := linesource.Open(path)
		if err != nil {
			return err
		}
		readers = append(readers, r)
	}

	d.log.Debug("distributing batch", "files", len(batch))

	active := readers
	for len(active) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		next := active[:0]
		for _, r := range active {
			if !r.Scan() {
				if err := r.Err(); err != nil {
					return err
				}
				if err := r.Close(); err != nil {
					return fmt.Errorf("close %s: %w", r.Path(), err)
				}
				if m := metrics.Get(); m != nil {
					m.InputsProcessed.Inc()
				}
				continue
			}
			next = append(next, r)

			line := strings.TrimSpace(r.Text())
			if line == "" {
				if m := metrics.Get(); m != nil {
					m.LinesDropped.Inc()
				}
				continue
			}
			if err := d.add(line); err != nil {
				return err
			}
		}
		active = next
	}
	return nil
}

// add assigns line to a uniformly random bucket and stages it, flushing when
// the buffered byte size hits the configured ceiling.
func (d *Distributor) add(line string) error {
	idx := d.rng.Intn(d.arena.Count())
	d.buf[idx] = append(d.buf[idx], line)
	d.buffered += int64(len(line)) + 1

	if m := metrics.Get(); m != nil {
		m.LinesRead.Inc()
	}

	if d.buffered >= d.flushBytes {
		return d.flush()
	}
	return nil
}

// flush appends all staged lines to their bucket files, opening at most
// maxWriters handles at a time, then clears the stage.
func (d *Distributor) flush() error {
	if d.buffered == 0 {
		return nil
	}

	idxs := make([]int, 0, len(d.buf))
	for i := range d.buf {
		idxs = append(idxs, i)
	}
	sort.Ints(idxs)

	d.log.Debug("flushing buffered lines", "buckets", len(idxs), "bytes", d.buffered)

	for start := 0; start < len(idxs); start += d.maxWriters {
		end := start + d.maxWriters
		if end > len(idxs) {
			end = len(idxs)
		}
		if err := d.flushGroup(idxs[start:end]); err != nil {
			return err
		}
	}

	if m := metrics.Get(); m != nil {
		m.BucketFlushes.Inc()
		m.FlushedBytes.Add(float64(d.buffered))
	}

	d.buf = make(map[int][]string)
	d.buffered = 0
	return nil
}

// flushGroup appends one group of buckets, holding the whole group's handles
// open together and closing them all before the next group starts.
func (d *Distributor) flushGroup(idxs []int) error {
	files := make([]*os.File, 0, len(idxs))
	defer func() {
		for _, f := range files {
			f.Close()
		}
	}()

	writers := make([]*bufio.Writer, 0, len(idxs))
	for _, i := range idxs {
		f, err := d.arena.OpenAppend(i)
		if err != nil {
			return err
		}
		files = append(files, f)
		writers = append(writers, bufio.NewWriter(f))
	}

	for k, i := range idxs {
		w := writers[k]
		for _, line := range d.buf[i] {
			if _, err := w.WriteString(line); err != nil {
				return fmt.Errorf("append bucket %d: %w", i, err)
			}
			if err := w.WriteByte('\n'); err != nil {
				return fmt.Errorf("append bucket %d: %w", i, err)
			}
		}
		if err := w.Flush(); err != nil {
			return fmt.Errorf("flush bucket %d: %w", i, err)
		}
	}

	for k, f := range files {
		if err := f.Close(); err != nil {
			return fmt.Errorf("close bucket %d: %w", idxs[k], err)
		}
	}
	files = nil
	return nil
}
