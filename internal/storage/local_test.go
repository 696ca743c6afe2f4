package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStoreWriteLines(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(dir)
	require.NoError(t, err)

	res, err := store.WriteLines(context.Background(), "out.jsonl", []string{"one", "two", "three"})
	require.NoError(t, err)

	assert.Equal(t, 3, res.Lines)
	assert.Equal(t, int64(len("one\ntwo\nthree\n")), res.Bytes)
	assert.True(t, strings.HasPrefix(res.Checksum, "sha256:"))

	data, err := os.ReadFile(filepath.Join(dir, "out.jsonl"))
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\nthree\n", string(data))

	// The temp file must not survive the rename.
	_, err = os.Stat(filepath.Join(dir, "out.jsonl.tmp"))
	assert.True(t, os.IsNotExist(err))
}

func TestLocalStoreChecksumIsStable(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	res1, err := store.WriteLines(context.Background(), "a.jsonl", []string{"x", "y"})
	require.NoError(t, err)
	res2, err := store.WriteLines(context.Background(), "b.jsonl", []string{"x", "y"})
	require.NoError(t, err)

	assert.Equal(t, res1.Checksum, res2.Checksum)
}

func TestLocalStoreWriteFile(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.WriteFile(context.Background(), "manifest.json", []byte(`{}`)))

	data, err := os.ReadFile(filepath.Join(dir, "manifest.json"))
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(data))
}

func TestLocalStoreURI(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(dir)
	require.NoError(t, err)

	uri := store.URI("out.jsonl")
	assert.True(t, filepath.IsAbs(uri))
	assert.Equal(t, "out.jsonl", filepath.Base(uri))
}

func TestLocalStoreCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	_, err := NewLocalStore(dir)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestBlobStoreFileURL(t *testing.T) {
	dir := t.TempDir()
	store, err := NewBlobStore(context.Background(), "file://"+dir)
	require.NoError(t, err)
	defer store.Close()

	res, err := store.WriteLines(context.Background(), "out.jsonl", []string{"one", "two"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Lines)
	assert.True(t, strings.HasPrefix(res.Checksum, "sha256:"))

	data, err := os.ReadFile(filepath.Join(dir, "out.jsonl"))
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\n", string(data))
}

func TestNewSelectsBackend(t *testing.T) {
	dir := t.TempDir()

	local, err := New(context.Background(), Config{OutputDir: dir})
	require.NoError(t, err)
	_, ok := local.(*LocalStore)
	assert.True(t, ok)

	blob, err := New(context.Background(), Config{OutputDir: dir, DestURL: "file://" + dir})
	require.NoError(t, err)
	_, ok = blob.(*BlobStore)
	assert.True(t, ok)
}
