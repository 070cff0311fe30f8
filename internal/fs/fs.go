// Package fs abstracts the filesystem operations used by the dataset write
// path so that tests can inject failures.
//
// Operations here are local-disk only and fast, so the interfaces carry no
// context. Remote storage goes through the blobstore package instead.
package fs

import (
	"io"
	"os"
)

// File is an open file handle on the write path.
type File interface {
	io.Writer
	io.Closer
	Sync() error
}

// FileSystem abstracts the operations the persistence layer needs.
type FileSystem interface {
	OpenFile(name string, flag int, perm os.FileMode) (File, error)
	WriteFile(name string, data []byte, perm os.FileMode) error
	ReadFile(name string) ([]byte, error)
	MkdirAll(path string, perm os.FileMode) error
	RemoveAll(path string) error
	Stat(name string) (os.FileInfo, error)
	ReadDir(name string) ([]os.DirEntry, error)
}

// Default is the production filesystem.
var Default FileSystem = LocalFS{}

// LocalFS implements FileSystem on top of the os package.
type LocalFS struct{}

func (LocalFS) OpenFile(name string, flag int, perm os.FileMode) (File, error) {
	return os.OpenFile(name, flag, perm)
}

func (LocalFS) WriteFile(name string, data []byte, perm os.FileMode) error {
	return os.WriteFile(name, data, perm)
}

func (LocalFS) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(name)
}

func (LocalFS) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

func (LocalFS) RemoveAll(path string) error {
	return os.RemoveAll(path)
}

func (LocalFS) Stat(name string) (os.FileInfo, error) {
	return os.Stat(name)
}

func (LocalFS) ReadDir(name string) ([]os.DirEntry, error) {
	return os.ReadDir(name)
}
