package blobstore

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/hupe1980/gridstore/internal/mmap"
)

// LocalStore implements BlobStore over a local directory tree.
type LocalStore struct {
	root string
}

// NewLocalStore creates a LocalStore rooted at the given directory.
func NewLocalStore(root string) *LocalStore {
	return &LocalStore{root: root}
}

// Open opens a blob for reading. Local files are memory-mapped: pixel files
// are read once, decoded and discarded, which mmap serves without a copy.
func (s *LocalStore) Open(_ context.Context, name string) (Blob, error) {
	m, err := mmap.Open(filepath.Join(s.root, filepath.FromSlash(name)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &localBlob{m: m}, nil
}

// List walks the tree under prefix and returns relative file names.
func (s *LocalStore) List(_ context.Context, prefix string) ([]string, error) {
	start := filepath.Join(s.root, filepath.FromSlash(prefix))
	var names []string
	err := filepath.WalkDir(start, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		names = append(names, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

// Root returns the directory the store is rooted at.
func (s *LocalStore) Root() string {
	return s.root
}

type localBlob struct {
	m *mmap.Mapping
}

func (b *localBlob) Bytes(_ context.Context) ([]byte, error) {
	return b.m.Bytes(), nil
}

func (b *localBlob) Size() int64 {
	return int64(len(b.m.Bytes()))
}

func (b *localBlob) Close() error {
	return b.m.Close()
}
