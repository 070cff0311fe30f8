package blobstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/s2"
	"golang.org/x/sync/singleflight"
)

// CachingStore wraps a remote BlobStore with a local whole-blob cache.
//
// Remote datasets are immutable once archived, so cached blobs never need
// invalidation. Cached files are s2-compressed; pixel data from scientific
// instruments compresses well and local NVMe decompression is far cheaper
// than a second object-storage round trip. Concurrent fetches of the same
// blob are collapsed into one remote read.
type CachingStore struct {
	inner    BlobStore
	cacheDir string
	group    singleflight.Group
}

// NewCachingStore creates a CachingStore using cacheDir for cached blobs.
func NewCachingStore(inner BlobStore, cacheDir string) (*CachingStore, error) {
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, err
	}
	return &CachingStore{inner: inner, cacheDir: cacheDir}, nil
}

// Open opens a blob, fetching it into the cache on first access.
func (s *CachingStore) Open(ctx context.Context, name string) (Blob, error) {
	data, err := s.fetch(ctx, name)
	if err != nil {
		return nil, err
	}
	return &memoryBlob{data: data}, nil
}

// List passes through to the inner store.
func (s *CachingStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.inner.List(ctx, prefix)
}

func (s *CachingStore) fetch(ctx context.Context, name string) ([]byte, error) {
	path := s.cachePath(name)

	if compressed, err := os.ReadFile(path); err == nil {
		data, derr := s2.Decode(nil, compressed)
		if derr == nil {
			return data, nil
		}
		// Corrupt cache entry: drop it and refetch.
		_ = os.Remove(path)
	}

	v, err, _ := s.group.Do(name, func() (any, error) {
		data, err := ReadAll(ctx, s.inner, name)
		if err != nil {
			return nil, err
		}
		tmp := fmt.Sprintf("%s.tmp.%d", path, os.Getpid())
		if werr := os.WriteFile(tmp, s2.Encode(nil, data), 0o644); werr == nil {
			_ = os.Rename(tmp, path)
		}
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (s *CachingStore) cachePath(name string) string {
	sum := sha256.Sum256([]byte(name))
	return filepath.Join(s.cacheDir, hex.EncodeToString(sum[:16])+".s2")
}
