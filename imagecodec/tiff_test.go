package imagecodec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/gridstore/model"
)

func TestTIFF(t *testing.T) {
	codec := TIFF{}

	t.Run("Gray8RoundTrip", func(t *testing.T) {
		const w, h = 4, 3
		pix := make([]byte, w*h)
		for i := range pix {
			pix[i] = byte(i * 7)
		}

		data, err := codec.Encode(pix, model.PixTypeGray8, w, h)
		require.NoError(t, err)

		got, err := codec.Decode(data, model.PixTypeGray8, w, h)
		require.NoError(t, err)
		assert.Equal(t, pix, got)
	})

	t.Run("Gray16RoundTrip", func(t *testing.T) {
		const w, h = 3, 2
		pix := make([]byte, w*h*2)
		for i := range pix {
			pix[i] = byte(i*13 + 1)
		}

		data, err := codec.Encode(pix, model.PixTypeGray16, w, h)
		require.NoError(t, err)

		got, err := codec.Decode(data, model.PixTypeGray16, w, h)
		require.NoError(t, err)
		assert.Equal(t, pix, got)
	})

	t.Run("RGB32RoundTrip", func(t *testing.T) {
		const w, h = 2, 2
		pix := make([]byte, 0, w*h*4)
		for i := 0; i < w*h; i++ {
			pix = append(pix, byte(i*50), byte(i*60), byte(i*70), 0xFF)
		}

		data, err := codec.Encode(pix, model.PixTypeRGB32, w, h)
		require.NoError(t, err)

		got, err := codec.Decode(data, model.PixTypeRGB32, w, h)
		require.NoError(t, err)
		assert.Equal(t, pix, got)
	})

	t.Run("UnsupportedType", func(t *testing.T) {
		_, err := codec.Encode(make([]byte, 4*4*8), model.PixTypeRGB64, 4, 4)
		assert.ErrorIs(t, err, ErrUnsupported)
	})

	t.Run("SizeMismatch", func(t *testing.T) {
		_, err := codec.Encode(make([]byte, 5), model.PixTypeGray8, 4, 4)

		var sm *ErrSizeMismatch
		require.ErrorAs(t, err, &sm)
		assert.Equal(t, 16, sm.Expected)
		assert.Equal(t, 5, sm.Actual)
	})

	t.Run("DecodeGarbage", func(t *testing.T) {
		_, err := codec.Decode([]byte("not a tiff"), model.PixTypeGray8, 4, 4)
		assert.ErrorIs(t, err, ErrCorrupt)
	})

	t.Run("DecodeWrongDimensions", func(t *testing.T) {
		data, err := codec.Encode(make([]byte, 4*4), model.PixTypeGray8, 4, 4)
		require.NoError(t, err)

		_, err = codec.Decode(data, model.PixTypeGray8, 8, 8)
		assert.ErrorIs(t, err, ErrCorrupt)
	})
}

func TestCheckBufferSize(t *testing.T) {
	assert.NoError(t, CheckBufferSize(make([]byte, 32), model.PixTypeGray16, 4, 4))
	assert.ErrorIs(t, CheckBufferSize(make([]byte, 32), model.PixTypeNone, 4, 4), ErrUnsupported)

	var sm *ErrSizeMismatch
	assert.ErrorAs(t, CheckBufferSize(make([]byte, 31), model.PixTypeGray16, 4, 4), &sm)
}
