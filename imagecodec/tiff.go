package imagecodec

import (
	"bytes"
	"fmt"
	"image"

	"golang.org/x/image/tiff"

	"github.com/hupe1980/gridstore/model"
)

// TIFF is the production codec. It writes uncompressed TIFF files, the format
// expected by every downstream viewer of the classic position-directory
// layout.
//
// Supported pixel types: GRAY8, GRAY16 and RGB32. GRAY32 and RGB64 buffers
// exist in the data model but have no TIFF mapping here.
type TIFF struct{}

// Name implements Codec.
func (TIFF) Name() string { return "tiff" }

// Encode implements Codec.
func (TIFF) Encode(pix []byte, pt model.PixelType, width, height int) ([]byte, error) {
	if err := CheckBufferSize(pix, pt, width, height); err != nil {
		return nil, err
	}

	var img image.Image
	switch pt {
	case model.PixTypeGray8:
		img = &image.Gray{Pix: pix, Stride: width, Rect: image.Rect(0, 0, width, height)}
	case model.PixTypeGray16:
		// image.Gray16 stores big-endian samples; buffers are little-endian.
		be := make([]byte, len(pix))
		for i := 0; i < len(pix); i += 2 {
			be[i] = pix[i+1]
			be[i+1] = pix[i]
		}
		img = &image.Gray16{Pix: be, Stride: 2 * width, Rect: image.Rect(0, 0, width, height)}
	case model.PixTypeRGB32:
		img = &image.RGBA{Pix: pix, Stride: 4 * width, Rect: image.Rect(0, 0, width, height)}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, pt)
	}

	var buf bytes.Buffer
	if err := tiff.Encode(&buf, img, &tiff.Options{Compression: tiff.Uncompressed}); err != nil {
		return nil, fmt.Errorf("imagecodec: tiff encode: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode implements Codec.
func (TIFF) Decode(data []byte, pt model.PixelType, width, height int) ([]byte, error) {
	img, err := tiff.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}

	bounds := img.Bounds()
	if bounds.Dx() != width || bounds.Dy() != height {
		return nil, fmt.Errorf("%w: dimensions %dx%d, dataset expects %dx%d",
			ErrCorrupt, bounds.Dx(), bounds.Dy(), width, height)
	}

	switch pt {
	case model.PixTypeGray8:
		g, ok := img.(*image.Gray)
		if !ok {
			return nil, fmt.Errorf("%w: file holds %T, dataset expects %s", ErrCorrupt, img, pt)
		}
		return compact(g.Pix, g.Stride, width, height, 1), nil
	case model.PixTypeGray16:
		g, ok := img.(*image.Gray16)
		if !ok {
			return nil, fmt.Errorf("%w: file holds %T, dataset expects %s", ErrCorrupt, img, pt)
		}
		be := compact(g.Pix, g.Stride, width, height, 2)
		for i := 0; i < len(be); i += 2 {
			be[i], be[i+1] = be[i+1], be[i]
		}
		return be, nil
	case model.PixTypeRGB32:
		switch c := img.(type) {
		case *image.RGBA:
			return compact(c.Pix, c.Stride, width, height, 4), nil
		case *image.NRGBA:
			return compact(c.Pix, c.Stride, width, height, 4), nil
		default:
			return nil, fmt.Errorf("%w: file holds %T, dataset expects %s", ErrCorrupt, img, pt)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, pt)
	}
}

// compact copies row data out of a possibly padded stride layout into a
// tightly packed buffer.
func compact(pix []byte, stride, width, height, bpp int) []byte {
	rowLen := width * bpp
	if stride == rowLen && len(pix) == rowLen*height {
		out := make([]byte, len(pix))
		copy(out, pix)
		return out
	}
	out := make([]byte, rowLen*height)
	for y := 0; y < height; y++ {
		copy(out[y*rowLen:(y+1)*rowLen], pix[y*stride:y*stride+rowLen])
	}
	return out
}
