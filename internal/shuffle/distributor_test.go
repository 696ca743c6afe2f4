package shuffle

import (
	"context"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shuffly/shuffly/internal/bucket"
)

func writeInput(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// allBucketLines drains every bucket in the arena and returns the combined
// line multiset, sorted.
func allBucketLines(t *testing.T, arena *bucket.Arena) []string {
	t.Helper()
	var all []string
	for i := 0; i < arena.Count(); i++ {
		lines, err := arena.Lines(i)
		require.NoError(t, err)
		all = append(all, lines...)
	}
	sort.Strings(all)
	return all
}

func TestDistributorConservesLines(t *testing.T) {
	dir := t.TempDir()
	inputs := []string{
		writeInput(t, dir, "a.jsonl", "alpha\nbravo\n\ncharlie\n"),
		writeInput(t, dir, "b.jsonl", "delta\n   \nalpha\n"),
	}

	arena := bucket.NewArena(dir, "out", 4)
	d := NewDistributor(arena, rand.New(rand.NewSource(1)), 16, 128, 64<<20)
	require.NoError(t, d.Run(context.Background(), inputs))

	got := allBucketLines(t, arena)
	want := []string{"alpha", "alpha", "bravo", "charlie", "delta"}
	assert.Equal(t, want, got, "blank lines dropped, duplicates preserved")
}

func TestDistributorDeterministicAssignment(t *testing.T) {
	content1 := "one\ntwo\nthree\nfour\nfive\n"
	content2 := "six\nseven\neight\n"

	run := func(t *testing.T) map[int][]string {
		dir := t.TempDir()
		inputs := []string{
			writeInput(t, dir, "a.jsonl", content1),
			writeInput(t, dir, "b.jsonl", content2),
		}
		arena := bucket.NewArena(dir, "out", 3)
		d := NewDistributor(arena, rand.New(rand.NewSource(7)), 16, 128, 64<<20)
		require.NoError(t, d.Run(context.Background(), inputs))

		byBucket := make(map[int][]string)
		for i := 0; i < arena.Count(); i++ {
			lines, err := arena.Lines(i)
			require.NoError(t, err)
			byBucket[i] = lines
		}
		return byBucket
	}

	assert.Equal(t, run(t), run(t), "same seed, same inputs, same assignment")
}

func TestDistributorSmallReaderBatches(t *testing.T) {
	dir := t.TempDir()
	inputs := []string{
		writeInput(t, dir, "c.jsonl", "cc\n"),
		writeInput(t, dir, "a.jsonl", "aa\n"),
		writeInput(t, dir, "b.jsonl", "bb\n"),
	}

	arena := bucket.NewArena(dir, "out", 2)
	// One open reader at a time, flush after every line.
	d := NewDistributor(arena, rand.New(rand.NewSource(3)), 1, 1, 1)
	require.NoError(t, d.Run(context.Background(), inputs))

	assert.Equal(t, []string{"aa", "bb", "cc"}, allBucketLines(t, arena))
}

func TestDistributorFailureLeavesFlushedBuckets(t *testing.T) {
	dir := t.TempDir()
	good := writeInput(t, dir, "a.jsonl", "alpha\nbravo\n")
	bad := filepath.Join(dir, "b.jsonl") // sorts after a.jsonl, never created

	arena := bucket.NewArena(dir, "out", 2)
	// One reader per batch and flush after every line, so the good input is
	// fully on disk before the bad one is opened.
	d := NewDistributor(arena, rand.New(rand.NewSource(1)), 1, 1, 1)

	err := d.Run(context.Background(), []string{bad, good})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "b.jsonl")
	assert.Equal(t, []string{"alpha", "bravo"}, allBucketLines(t, arena),
		"lines flushed before the failure stay on disk for a rerun to clear")
}

func TestDistributorMissingInput(t *testing.T) {
	dir := t.TempDir()
	arena := bucket.NewArena(dir, "out", 2)
	d := NewDistributor(arena, rand.New(rand.NewSource(1)), 16, 128, 64<<20)

	err := d.Run(context.Background(), []string{filepath.Join(dir, "nope.jsonl")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope.jsonl")
}
