// Package blobstore abstracts read access to stored datasets so that the
// same loading code serves local directories, in-memory fixtures and
// S3-compatible object storage.
//
// Blob names are slash-separated paths relative to the dataset root, e.g.
// "Pos_0/metadata.txt".
package blobstore

import (
	"context"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies
// errors.Is(err, ErrNotFound). The default maps to os.ErrNotExist.
var ErrNotFound = os.ErrNotExist

// BlobStore provides read access to immutable data blobs.
type BlobStore interface {
	// Open opens a blob for reading.
	Open(ctx context.Context, name string) (Blob, error)

	// List returns the names of all blobs under prefix, in sorted order.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Blob is a read-only handle to one blob.
type Blob interface {
	// Bytes returns the full blob contents. For mmap-backed blobs the slice
	// is only valid until Close.
	Bytes(ctx context.Context) ([]byte, error)

	// Size returns the blob size in bytes.
	Size() int64

	// Close releases the handle.
	Close() error
}

// ReadAll opens a blob, reads its contents into a fresh slice and closes it.
func ReadAll(ctx context.Context, store BlobStore, name string) ([]byte, error) {
	b, err := store.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer b.Close()

	data, err := b.Bytes(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}
