package blobstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	require.NoError(t, os.MkdirAll(filepath.Join(root, "Pos_0"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "Pos_0", "metadata.txt"), []byte("{}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "Pos_0", "img.tif"), []byte{1, 2, 3}, 0o644))

	store := NewLocalStore(root)

	t.Run("OpenAndRead", func(t *testing.T) {
		blob, err := store.Open(ctx, "Pos_0/img.tif")
		require.NoError(t, err)
		defer blob.Close()

		data, err := blob.Bytes(ctx)
		require.NoError(t, err)
		assert.Equal(t, []byte{1, 2, 3}, data)
		assert.Equal(t, int64(3), blob.Size())
	})

	t.Run("List", func(t *testing.T) {
		names, err := store.List(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, []string{"Pos_0/img.tif", "Pos_0/metadata.txt"}, names)
	})

	t.Run("ListPrefix", func(t *testing.T) {
		names, err := store.List(ctx, "Pos_0")
		require.NoError(t, err)
		assert.Len(t, names, 2)
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := store.Open(ctx, "Pos_0/missing.tif")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("EmptyFile", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(root, "Pos_0", "empty"), nil, 0o644))
		blob, err := store.Open(ctx, "Pos_0/empty")
		require.NoError(t, err)
		defer blob.Close()
		assert.Equal(t, int64(0), blob.Size())
	})
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Put(ctx, "a/metadata.txt", []byte("{}")))
	require.NoError(t, store.Put(ctx, "a/img.tif", []byte{9}))
	require.NoError(t, store.Put(ctx, "b/metadata.txt", []byte("{}")))

	t.Run("ReadAll", func(t *testing.T) {
		data, err := ReadAll(ctx, store, "a/img.tif")
		require.NoError(t, err)
		assert.Equal(t, []byte{9}, data)
	})

	t.Run("ListPrefix", func(t *testing.T) {
		names, err := store.List(ctx, "a/")
		require.NoError(t, err)
		assert.Equal(t, []string{"a/img.tif", "a/metadata.txt"}, names)
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := store.Open(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("OpenCopies", func(t *testing.T) {
		data, err := ReadAll(ctx, store, "a/img.tif")
		require.NoError(t, err)
		data[0] = 42

		again, err := ReadAll(ctx, store, "a/img.tif")
		require.NoError(t, err)
		assert.Equal(t, []byte{9}, again)
	})
}

// countingStore counts Open calls reaching the wrapped store.
type countingStore struct {
	BlobStore
	opens int
}

func (c *countingStore) Open(ctx context.Context, name string) (Blob, error) {
	c.opens++
	return c.BlobStore.Open(ctx, name)
}

func TestCachingStore(t *testing.T) {
	ctx := context.Background()

	inner := NewMemoryStore()
	require.NoError(t, inner.Put(ctx, "Pos_0/img.tif", []byte("pixels")))
	counting := &countingStore{BlobStore: inner}

	cache, err := NewCachingStore(counting, t.TempDir())
	require.NoError(t, err)

	t.Run("FirstOpenFetches", func(t *testing.T) {
		data, err := ReadAll(ctx, cache, "Pos_0/img.tif")
		require.NoError(t, err)
		assert.Equal(t, []byte("pixels"), data)
		assert.Equal(t, 1, counting.opens)
	})

	t.Run("SecondOpenHitsCache", func(t *testing.T) {
		data, err := ReadAll(ctx, cache, "Pos_0/img.tif")
		require.NoError(t, err)
		assert.Equal(t, []byte("pixels"), data)
		assert.Equal(t, 1, counting.opens)
	})

	t.Run("CorruptEntryRefetched", func(t *testing.T) {
		path := cache.cachePath("Pos_0/img.tif")
		require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o644))

		data, err := ReadAll(ctx, cache, "Pos_0/img.tif")
		require.NoError(t, err)
		assert.Equal(t, []byte("pixels"), data)
		assert.Equal(t, 2, counting.opens)
	})

	t.Run("NotFoundPassesThrough", func(t *testing.T) {
		_, err := ReadAll(ctx, cache, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("ListPassesThrough", func(t *testing.T) {
		names, err := cache.List(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, []string{"Pos_0/img.tif"}, names)
	})
}
