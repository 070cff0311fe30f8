package gridstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/gridstore/meta"
	"github.com/hupe1980/gridstore/model"
)

func newTestDataset(t *testing.T, optFns ...Option) *Dataset {
	t.Helper()
	ds, err := Create("test-ds", 2, 2, 3, 4, optFns...)
	require.NoError(t, err)
	require.NoError(t, ds.Initialize(8, 6, model.PixTypeGray16, 0, 0, nil))
	return ds
}

func grayPixels(ds *Dataset, seed byte) []byte {
	bpp, _ := ds.PixelType().BytesPerPixel()
	pix := make([]byte, ds.width*ds.height*bpp)
	for i := range pix {
		pix[i] = seed + byte(i)
	}
	return pix
}

func TestCreate(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		ds, err := Create("run", 1, 1, 1, 1)
		require.NoError(t, err)
		assert.Equal(t, "run", ds.Name())
		assert.Equal(t, model.Extents{Positions: 1, Channels: 1, Slices: 1, Frames: 1}, ds.Extents())
	})

	t.Run("BadExtents", func(t *testing.T) {
		_, err := Create("run", 0, 1, 1, 1)
		assert.ErrorIs(t, err, ErrInvalidArgument)

		_, err = Create("run", 1, 1, -1, 1)
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})
}

func TestInitialize(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		ds, err := Create("run", 3, 2, 1, 1)
		require.NoError(t, err)
		require.NoError(t, ds.Initialize(16, 16, model.PixTypeGray16, 0, 0, nil))

		sum, err := ds.GetSummaryMetadata()
		require.NoError(t, err)

		names, err := sum.GetStrings(meta.SummaryChannelNames)
		require.NoError(t, err)
		assert.Equal(t, []string{"Channel-0", "Channel-1"}, names)

		depth, err := sum.GetInt(meta.SummaryBitDepth)
		require.NoError(t, err)
		assert.Equal(t, 16, depth)

		version, err := sum.GetInt(meta.SummaryVersion)
		require.NoError(t, err)
		assert.Equal(t, 9, version)

		source, err := sum.GetString(meta.SummarySource)
		require.NoError(t, err)
		assert.Equal(t, "gridstore", source)

		doc, err := ds.GetImageMetadata(2, 1, 0, 0)
		require.NoError(t, err)
		posName, err := doc.GetString(meta.ImagePosName)
		require.NoError(t, err)
		assert.Equal(t, "Pos_2", posName)

		fileName, err := doc.GetString(meta.ImageFileName)
		require.NoError(t, err)
		assert.Equal(t, "img_000000000_Channel-1_000.tif", fileName)
	})

	t.Run("CustomMetaKept", func(t *testing.T) {
		ds, err := Create("run", 1, 1, 1, 1)
		require.NoError(t, err)
		custom := meta.Document{"Objective": "40x", meta.SummaryWidth: 999}
		require.NoError(t, ds.Initialize(16, 16, model.PixTypeGray8, 0, 0, custom))

		sum, err := ds.GetSummaryMetadata()
		require.NoError(t, err)

		obj, err := sum.GetString("Objective")
		require.NoError(t, err)
		assert.Equal(t, "40x", obj)

		// Generated structural fields win over custom values.
		width, err := sum.GetInt(meta.SummaryWidth)
		require.NoError(t, err)
		assert.Equal(t, 16, width)
	})

	t.Run("Twice", func(t *testing.T) {
		ds := newTestDataset(t)
		err := ds.Initialize(8, 6, model.PixTypeGray16, 0, 0, nil)
		assert.ErrorIs(t, err, ErrAlreadyInitialized)
		assert.ErrorIs(t, err, ErrInvalidState)
	})

	t.Run("UnsupportedPixelType", func(t *testing.T) {
		ds, err := Create("run", 1, 1, 1, 1)
		require.NoError(t, err)
		assert.ErrorIs(t, ds.Initialize(8, 8, model.PixTypeNone, 0, 0, nil), ErrUnsupportedPixelType)
	})

	t.Run("NotInitialized", func(t *testing.T) {
		ds, err := Create("run", 1, 1, 1, 1)
		require.NoError(t, err)

		assert.ErrorIs(t, ds.AddImage(nil, 0, 0, 0, 0, nil), ErrNotInitialized)
		_, err = ds.GetImagePixels(context.Background(), 0, 0, 0, 0)
		assert.ErrorIs(t, err, ErrNotInitialized)
		_, err = ds.GetSummaryMetadata()
		assert.ErrorIs(t, err, ErrNotInitialized)
	})
}

func TestAddImage(t *testing.T) {
	ctx := context.Background()

	t.Run("Lifecycle", func(t *testing.T) {
		ds := newTestDataset(t)

		acquired, err := ds.IsImageAcquired(0, 0, 0, 0)
		require.NoError(t, err)
		assert.False(t, acquired)

		pix := grayPixels(ds, 1)
		require.NoError(t, ds.AddImage(pix, 0, 0, 0, 0, nil))

		has, err := ds.HasImagePixels(0, 0, 0, 0)
		require.NoError(t, err)
		assert.True(t, has)

		acquired, err = ds.IsImageAcquired(0, 0, 0, 0)
		require.NoError(t, err)
		assert.True(t, acquired)

		got, err := ds.GetImagePixels(ctx, 0, 0, 0, 0)
		require.NoError(t, err)
		assert.Equal(t, pix, got)
	})

	t.Run("OutOfRange", func(t *testing.T) {
		ds := newTestDataset(t)
		err := ds.AddImage(grayPixels(ds, 0), 5, 0, 0, 0, nil)

		var oor *ErrOutOfRange
		require.ErrorAs(t, err, &oor)
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})

	t.Run("BufferSizeMismatch", func(t *testing.T) {
		ds := newTestDataset(t)
		err := ds.AddImage([]byte{1, 2, 3}, 0, 0, 0, 0, nil)
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})
}

func TestExtraMetaMerge(t *testing.T) {
	ds := newTestDataset(t)
	require.NoError(t, ds.AddImage(grayPixels(ds, 0), 0, 0, 0, 0, meta.Document{
		"Exposure-ms":      10.0,
		meta.ImageFileName: "caller-supplied.tif",
	}))

	doc, err := ds.GetImageMetadata(0, 0, 0, 0)
	require.NoError(t, err)

	exp, err := doc.GetFloat("Exposure-ms")
	require.NoError(t, err)
	assert.InDelta(t, 10.0, exp, 1e-9)

	// The generated file name must survive a colliding caller tag.
	name, err := doc.GetString(meta.ImageFileName)
	require.NoError(t, err)
	assert.Equal(t, "img_000000000_Channel-0_000.tif", name)
}

func TestBlankPixels(t *testing.T) {
	ds := newTestDataset(t)

	pix, err := ds.GetImagePixels(context.Background(), 1, 1, 2, 3)
	require.NoError(t, err)
	assert.Len(t, pix, 8*6*2)
	for _, b := range pix {
		require.Zero(t, b)
	}
}

func TestGuardedMutations(t *testing.T) {
	t.Run("SetChannelData", func(t *testing.T) {
		ds := newTestDataset(t)

		err := ds.SetChannelData([]model.ChannelData{{Name: "DAPI"}})
		assert.ErrorIs(t, err, ErrInvalidArgument)

		channels := []model.ChannelData{
			{Name: "DAPI", Color: 0x0000FF},
			{Name: "FITC", Color: 0x00FF00},
		}
		require.NoError(t, ds.SetChannelData(channels))

		sum, err := ds.GetSummaryMetadata()
		require.NoError(t, err)
		names, err := sum.GetStrings(meta.SummaryChannelNames)
		require.NoError(t, err)
		assert.Equal(t, []string{"DAPI", "FITC"}, names)

		doc, err := ds.GetImageMetadata(0, 1, 2, 3)
		require.NoError(t, err)
		name, err := doc.GetString(meta.ImageFileName)
		require.NoError(t, err)
		assert.Equal(t, "img_000000003_FITC_002.tif", name)

		require.NoError(t, ds.AddImage(grayPixels(ds, 0), 0, 0, 0, 0, nil))
		err = ds.SetChannelData(channels)
		assert.ErrorIs(t, err, ErrDatasetNotEmpty)
		assert.ErrorIs(t, err, ErrInvalidState)
	})

	t.Run("SetPixelSize", func(t *testing.T) {
		ds := newTestDataset(t)
		require.NoError(t, ds.SetPixelSize(0.325))

		sum, err := ds.GetSummaryMetadata()
		require.NoError(t, err)
		size, err := sum.GetFloat(meta.SummaryPixelSize)
		require.NoError(t, err)
		assert.InDelta(t, 0.325, size, 1e-9)

		require.NoError(t, ds.AddImage(grayPixels(ds, 0), 0, 0, 0, 0, nil))
		assert.ErrorIs(t, ds.SetPixelSize(0.5), ErrDatasetNotEmpty)
	})

	t.Run("SetPositionName", func(t *testing.T) {
		ds := newTestDataset(t)
		require.NoError(t, ds.AddImage(grayPixels(ds, 0), 0, 0, 0, 0, nil))

		assert.ErrorIs(t, ds.SetPositionName(0, "Well-A1"), ErrDatasetNotEmpty)
		assert.ErrorIs(t, ds.SetPositionName(7, "Well-A1"), ErrInvalidArgument)

		require.NoError(t, ds.SetPositionName(1, "Well-B2"))
		doc, err := ds.GetImageMetadata(1, 0, 0, 0)
		require.NoError(t, err)
		name, err := doc.GetString(meta.ImagePosName)
		require.NoError(t, err)
		assert.Equal(t, "Well-B2", name)
	})

	t.Run("SetNameBeforeRoot", func(t *testing.T) {
		ds := newTestDataset(t)
		require.NoError(t, ds.SetName("renamed"))
		assert.Equal(t, "renamed", ds.Name())
	})
}

func TestComment(t *testing.T) {
	ds := newTestDataset(t)
	ds.SetComment("pilot run, lamp flickering")
	assert.Equal(t, "pilot run, lamp flickering", ds.Comment())
}
