package storage

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob" // file:// driver
	_ "gocloud.dev/blob/gcsblob"  // gs:// driver
	_ "gocloud.dev/blob/s3blob"   // s3:// driver
)

// BlobStore writes output files to a blob bucket via gocloud.dev.
type BlobStore struct {
	bucket  *blob.Bucket
	destURL string
}

// NewBlobStore opens the bucket named by a gocloud URL such as
// file:///data/out, gs://bucket/prefix or s3://bucket/prefix.
func NewBlobStore(ctx context.Context, destURL string) (*BlobStore, error) {
	bucket, err := blob.OpenBucket(ctx, destURL)
	if err != nil {
		return nil, fmt.Errorf("open bucket %s: %w", destURL, err)
	}
	return &BlobStore{
		bucket:  bucket,
		destURL: destURL,
	}, nil
}

// WriteLines streams lines into a bucket object. Blob writers only become
// visible on a successful Close, so a failed write leaves no partial object.
func (s *BlobStore) WriteLines(ctx context.Context, name string, lines []string) (WriteResult, error) {
	w, err := s.bucket.NewWriter(ctx, name, nil)
	if err != nil {
		return WriteResult{}, fmt.Errorf("create writer for %s: %w", name, err)
	}

	sum := newChecksumWriter()
	buf := bufio.NewWriter(io.MultiWriter(w, sum))

	if err := writeLines(buf, lines); err != nil {
		w.Close()
		return WriteResult{}, fmt.Errorf("write %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return WriteResult{}, fmt.Errorf("close writer for %s: %w", name, err)
	}

	return WriteResult{
		Path:     s.URI(name),
		Lines:    len(lines),
		Bytes:    sum.n,
		Checksum: sum.Sum(),
	}, nil
}

// WriteFile writes opaque bytes to a bucket object.
func (s *BlobStore) WriteFile(ctx context.Context, name string, data []byte) error {
	if err := s.bucket.WriteAll(ctx, name, data, nil); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// URI returns the canonical URI for name.
func (s *BlobStore) URI(name string) string {
	return strings.TrimSuffix(s.destURL, "/") + "/" + name
}

// Close releases the bucket connection.
func (s *BlobStore) Close() error {
	if s.bucket != nil {
		return s.bucket.Close()
	}
	return nil
}
