//go:build !unix

package mmap

import (
	"errors"
	"os"
)

// Platforms without unix mmap use the read fallback in Open.
func osMap(_ *os.File, _ int) ([]byte, func([]byte) error, error) {
	return nil, nil, errors.New("mmap: not supported on this platform")
}
