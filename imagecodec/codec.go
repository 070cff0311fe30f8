// Package imagecodec encodes and decodes 2-D pixel buffers to and from their
// on-disk file representation.
//
// Buffers are raw byte slices of width*height pixels. Multi-byte samples are
// little-endian; RGB32 buffers hold 4 bytes per pixel in RGBA order.
package imagecodec

import (
	"errors"
	"fmt"

	"github.com/hupe1980/gridstore/model"
)

var (
	// ErrUnsupported is returned when a codec cannot handle the pixel type.
	ErrUnsupported = errors.New("imagecodec: unsupported pixel type")

	// ErrCorrupt is returned when file data cannot be decoded.
	ErrCorrupt = errors.New("imagecodec: corrupt image data")
)

// Codec translates between raw pixel buffers and encoded file bytes.
// Implementations must be safe for concurrent use.
type Codec interface {
	// Encode produces the file bytes for a pixel buffer.
	Encode(pix []byte, pt model.PixelType, width, height int) ([]byte, error)

	// Decode recovers the pixel buffer from file bytes. The expected pixel
	// type and dimensions come from the dataset, not the file; a mismatch is
	// reported as ErrCorrupt.
	Decode(data []byte, pt model.PixelType, width, height int) ([]byte, error)

	// Name identifies the codec (e.g. in log output).
	Name() string
}

// ErrSizeMismatch reports a pixel buffer whose length does not match the
// dataset geometry.
type ErrSizeMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrSizeMismatch) Error() string {
	return fmt.Sprintf("imagecodec: buffer size mismatch: expected %d bytes, got %d", e.Expected, e.Actual)
}

// CheckBufferSize validates a raw buffer against the dataset geometry.
func CheckBufferSize(pix []byte, pt model.PixelType, width, height int) error {
	bpp, ok := pt.BytesPerPixel()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnsupported, pt)
	}
	if want := width * height * bpp; len(pix) != want {
		return &ErrSizeMismatch{Expected: want, Actual: len(pix)}
	}
	return nil
}
