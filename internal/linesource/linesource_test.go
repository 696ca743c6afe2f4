package linesource

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(t *testing.T, r *LineReader) []string {
	t.Helper()
	var lines []string
	for r.Scan() {
		lines = append(lines, r.Text())
	}
	require.NoError(t, r.Err())
	require.NoError(t, r.Close())
	return lines
}

func TestOpenPlainFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("one\ntwo\nthree\n"), 0644))

	r, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, path, r.Path())
	assert.Equal(t, []string{"one", "two", "three"}, drain(t, r))
}

func TestOpenGzipFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.jsonl.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := gzip.NewWriter(f)
	_, err = zw.Write([]byte("one\ntwo\n"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	r, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, drain(t, r))
}

func TestOpenZstdFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.jsonl.zst")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw, err := zstd.NewWriter(f)
	require.NoError(t, err)
	_, err = zw.Write([]byte("one\ntwo\n"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	r, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, drain(t, r))
}

func TestOpenMalformedGzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.jsonl.gz")
	require.NoError(t, os.WriteFile(path, []byte("definitely not gzip"), 0644))

	_, err := Open(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.jsonl.gz")
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.jsonl"))
	require.Error(t, err)
}

func TestCloseIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("x\n"), 0644))

	r, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	require.NoError(t, r.Close())
	assert.False(t, r.Scan())
}

func TestIsCompressed(t *testing.T) {
	assert.True(t, IsCompressed("data.jsonl.gz"))
	assert.True(t, IsCompressed("data.jsonl.zst"))
	assert.True(t, IsCompressed("DATA.JSONL.GZ"))
	assert.False(t, IsCompressed("data.jsonl"))
	assert.False(t, IsCompressed("data.gz.jsonl"))
}
