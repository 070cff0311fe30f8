// Package mmap provides read-only memory mapping of files for zero-copy
// access to pixel data.
package mmap

import (
	"fmt"
	"os"
)

// Mapping is a read-only view of a file's contents.
type Mapping struct {
	data    []byte
	unmap   func([]byte) error
	backing []byte // non-nil when the platform fell back to a plain read
}

// Open maps the file at path. The returned mapping must be closed.
func Open(path string) (*Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size := info.Size()
	if size == 0 {
		return &Mapping{}, nil
	}
	if size != int64(int(size)) {
		return nil, fmt.Errorf("mmap: file too large: %s", path)
	}

	data, unmap, err := osMap(f, int(size))
	if err != nil {
		// Fall back to reading the file into memory.
		buf, readErr := os.ReadFile(path)
		if readErr != nil {
			return nil, readErr
		}
		return &Mapping{data: buf, backing: buf}, nil
	}
	return &Mapping{data: data, unmap: unmap}, nil
}

// Bytes returns the mapped contents. The slice is valid until Close.
func (m *Mapping) Bytes() []byte {
	return m.data
}

// Close releases the mapping.
func (m *Mapping) Close() error {
	if m.unmap == nil || m.data == nil {
		m.data = nil
		return nil
	}
	data := m.data
	m.data = nil
	return m.unmap(data)
}
