package gridstore

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/hupe1980/gridstore/blobstore"
	"github.com/hupe1980/gridstore/imagecodec"
	"github.com/hupe1980/gridstore/internal/fs"
	"github.com/hupe1980/gridstore/meta"
	"github.com/hupe1980/gridstore/model"
)

// Dataset is a disk-backed store for a multi-dimensional image acquisition.
// Frames are addressed by (position, channel, slice, frame) and move through
// a lifecycle from empty to in-memory to persisted, with an optional evicted
// state that keeps metadata resident while pixels stay on disk.
//
// All methods are safe for concurrent use. Accessors that return pixel
// buffers or documents hand out live internal references; callers must treat
// them as read-only.
type Dataset struct {
	mu sync.Mutex

	name     string
	rootPath string
	comment  string

	extents       model.Extents
	width         int
	height        int
	bitDepth      int
	numComponents int
	pixelType     model.PixelType
	pixelSizeUm   float64

	channels      []model.ChannelData
	positionNames []string

	summary     meta.Document
	table       *frameTable
	initialized bool

	// store serves pixel reads for persisted frames. Set at load time for
	// remote datasets, created lazily over the root directory otherwise.
	store blobstore.BlobStore

	codec   imagecodec.Codec
	fsys    fs.FileSystem
	logger  *Logger
	metrics MetricsCollector
	limiter *rate.Limiter

	saveMu sync.Mutex
	save   *saveTask
}

// Create creates an empty, un-initialized dataset with the given grid shape.
// The dataset lives in memory until SaveToDir assigns it a root directory.
func Create(name string, positions, channels, slices, frames int, optFns ...Option) (*Dataset, error) {
	if positions < 1 || channels < 1 || slices < 1 || frames < 1 {
		return nil, fmt.Errorf("%w: grid extents must be positive, got %dx%dx%dx%d",
			ErrInvalidArgument, positions, channels, slices, frames)
	}

	opts := applyOptions(optFns...)

	return &Dataset{
		name: name,
		extents: model.Extents{
			Positions: positions,
			Channels:  channels,
			Slices:    slices,
			Frames:    frames,
		},
		pixelSizeUm: 1.0,
		codec:       opts.codec,
		fsys:        opts.fsys,
		logger:      opts.logger,
		metrics:     opts.metrics,
		limiter:     opts.limiter,
	}, nil
}

// Initialize fixes the image geometry and pixel format, builds the default
// channel and position tables, allocates the frame table and generates all
// metadata documents. custom tags are merged into the summary; generated
// structural tags win on collision. Initialize can be called once.
//
// A zero bitDepth or numComponents is derived from the pixel type.
func (d *Dataset) Initialize(width, height int, pt model.PixelType, bitDepth, numComponents int, custom meta.Document) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.initialized {
		return ErrAlreadyInitialized
	}
	if width < 1 || height < 1 {
		return fmt.Errorf("%w: image geometry must be positive, got %dx%d", ErrInvalidArgument, width, height)
	}
	if _, ok := pt.BytesPerPixel(); !ok {
		return fmt.Errorf("%w: %q", ErrUnsupportedPixelType, pt)
	}
	if bitDepth == 0 {
		bitDepth, _ = pt.DefaultBitDepth()
	}
	if numComponents == 0 {
		numComponents = pt.Components()
	}

	d.width = width
	d.height = height
	d.pixelType = pt
	d.bitDepth = bitDepth
	d.numComponents = numComponents

	d.channels = make([]model.ChannelData, d.extents.Channels)
	for i := range d.channels {
		d.channels[i] = model.ChannelData{Name: model.DefaultChannelName(i), Color: model.ColorGray}
	}

	d.positionNames = make([]string, d.extents.Positions)
	for i := range d.positionNames {
		d.positionNames[i] = model.DefaultPositionName(i, d.extents.Positions)
	}

	d.table = newFrameTable(d.extents)
	for i := range d.table.records {
		d.table.records[i].doc = d.generateFrameDoc(d.extents.CoordinateAt(i))
	}

	d.summary = d.generateSummary(custom)
	d.initialized = true

	return nil
}

// Name returns the dataset name.
func (d *Dataset) Name() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.name
}

// Extents returns the grid shape.
func (d *Dataset) Extents() model.Extents {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.extents
}

// PixelType returns the configured pixel type.
func (d *Dataset) PixelType() model.PixelType {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pixelType
}

// Comment returns the free-text comment.
func (d *Dataset) Comment() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.comment
}

// SetComment stores a free-text comment in memory.
func (d *Dataset) SetComment(text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.comment = text
}

// SetName renames the dataset. Only legal before a root directory is defined,
// since the name doubles as the on-disk directory name.
func (d *Dataset) SetName(name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.rootPath != "" {
		return ErrRootAlreadySet
	}
	d.name = name
	return nil
}

// SetPixelSize sets the pixel size in micrometers. Fails once any image has
// been acquired, because frame documents already embed the old value.
func (d *Dataset) SetPixelSize(um float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.initialized {
		return ErrNotInitialized
	}
	if d.table.anyAcquired() {
		return ErrDatasetNotEmpty
	}

	d.pixelSizeUm = um
	d.summary.Set(meta.SummaryPixelSize, um)
	return nil
}

// SetChannelData replaces the channel table. The new table must match the
// channel count and the dataset must not contain any acquired images, since
// channel names participate in pixel file names.
func (d *Dataset) SetChannelData(channels []model.ChannelData) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.initialized {
		return ErrNotInitialized
	}
	if len(channels) != d.extents.Channels {
		return &ErrChannelCountMismatch{Expected: d.extents.Channels, Actual: len(channels)}
	}
	if d.table.anyAcquired() {
		return ErrDatasetNotEmpty
	}

	d.channels = append([]model.ChannelData(nil), channels...)

	chNames := make([]string, len(d.channels))
	chColors := make([]int, len(d.channels))
	for i, ch := range d.channels {
		chNames[i] = ch.Name
		chColors[i] = ch.Color
	}
	d.summary.Set(meta.SummaryChannelNames, chNames)
	d.summary.Set(meta.SummaryChannelColors, chColors)

	d.regenerateFileNames()
	return nil
}

// SetPositionName renames position pos. Fails once that position holds any
// acquired image, because the name doubles as its directory name.
func (d *Dataset) SetPositionName(pos int, name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.initialized {
		return ErrNotInitialized
	}
	if pos < 0 || pos >= d.extents.Positions {
		return fmt.Errorf("%w: position index %d out of range [0,%d)", ErrInvalidArgument, pos, d.extents.Positions)
	}
	if d.table.anyOnPosition(pos) {
		return ErrDatasetNotEmpty
	}

	d.positionNames[pos] = name
	d.updatePositionTag(pos, name)
	return nil
}

// AddImage stores the pixel buffer for a grid cell and merges extra metadata
// tags into its frame document. The dataset takes ownership of pix; the
// caller must not reuse the slice. Tags already present in the frame document
// keep their values.
//
// This is the sole mutation entry point during acquisition and may run
// concurrently with a background save.
func (d *Dataset) AddImage(pix []byte, pos, ch, slice, frame int, extra meta.Document) error {
	start := time.Now()

	err := d.addImage(pix, pos, ch, slice, frame, extra)

	d.metrics.RecordAddImage(time.Since(start), err)
	d.logger.LogAddImage(d.Name(), model.Coordinate{Position: pos, Channel: ch, Slice: slice, Frame: frame}, len(pix), err)
	return err
}

func (d *Dataset) addImage(pix []byte, pos, ch, slice, frame int, extra meta.Document) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.initialized {
		return ErrNotInitialized
	}

	c := model.Coordinate{Position: pos, Channel: ch, Slice: slice, Frame: frame}
	_, i, err := d.table.get(c)
	if err != nil {
		return err
	}

	if err := imagecodec.CheckBufferSize(pix, d.pixelType, d.width, d.height); err != nil {
		return translateCodecError(err, c.String())
	}

	d.table.supplyPixels(i, pix)

	rec := d.table.at(i)
	if rec.doc == nil {
		// Loaded datasets only carry documents for frames present on disk.
		rec.doc = d.generateFrameDoc(c)
	}
	if extra != nil {
		rec.addMeta(extra)
	}
	return nil
}

// GetImagePixels returns the pixel buffer for a grid cell.
//
// For frames resident in memory the internal buffer is returned and must be
// treated as read-only. Persisted, evicted frames are read back through the
// blob store into a fresh buffer. Frames never acquired yield a zeroed
// buffer of the correct size without touching disk.
func (d *Dataset) GetImagePixels(ctx context.Context, pos, ch, slice, frame int) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.initialized {
		return nil, ErrNotInitialized
	}

	c := model.Coordinate{Position: pos, Channel: ch, Slice: slice, Frame: frame}
	rec, i, err := d.table.get(c)
	if err != nil {
		return nil, err
	}

	if rec.hasPixels() {
		return rec.pix, nil
	}

	if rec.acquired {
		start := time.Now()
		pix, err := d.readStoredPixels(ctx, i)
		d.metrics.RecordPixelRead(time.Since(start), err)
		d.logger.LogPixelRead(d.name, c, err)
		return pix, err
	}

	return d.blankPixels()
}

// HasImagePixels reports whether the frame's pixels are resident in memory.
func (d *Dataset) HasImagePixels(pos, ch, slice, frame int) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.initialized {
		return false, ErrNotInitialized
	}
	rec, _, err := d.table.get(model.Coordinate{Position: pos, Channel: ch, Slice: slice, Frame: frame})
	if err != nil {
		return false, err
	}
	return rec.hasPixels(), nil
}

// IsImageAcquired reports whether the frame ever received pixels, in memory
// or persisted.
func (d *Dataset) IsImageAcquired(pos, ch, slice, frame int) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.initialized {
		return false, ErrNotInitialized
	}
	rec, _, err := d.table.get(model.Coordinate{Position: pos, Channel: ch, Slice: slice, Frame: frame})
	if err != nil {
		return false, err
	}
	return rec.acquired, nil
}

// GetImageMetadata returns the frame document for a grid cell. The returned
// document is the live instance; treat it as read-only.
func (d *Dataset) GetImageMetadata(pos, ch, slice, frame int) (meta.Document, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.initialized {
		return nil, ErrNotInitialized
	}
	rec, _, err := d.table.get(model.Coordinate{Position: pos, Channel: ch, Slice: slice, Frame: frame})
	if err != nil {
		return nil, err
	}
	return rec.doc, nil
}

// GetSummaryMetadata returns the summary document. The returned document is
// the live instance; treat it as read-only.
func (d *Dataset) GetSummaryMetadata() (meta.Document, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.initialized {
		return nil, ErrNotInitialized
	}
	return d.summary, nil
}

// readStoredPixels reads a persisted frame back through the blob store.
// Caller holds d.mu.
func (d *Dataset) readStoredPixels(ctx context.Context, i int) ([]byte, error) {
	store, err := d.pixelStore()
	if err != nil {
		return nil, err
	}

	c := d.extents.CoordinateAt(i)
	name := path.Join(d.positionNames[c.Position], d.frameFileName(i))

	data, err := blobstore.ReadAll(ctx, store, name)
	if err != nil {
		return nil, ioErr(err, "read pixels %s", name)
	}

	pix, err := d.codec.Decode(data, d.pixelType, d.width, d.height)
	if err != nil {
		return nil, translateCodecError(err, name)
	}
	return pix, nil
}

// pixelStore returns the blob store serving persisted pixels, creating a
// local store over the dataset directory on first use. Caller holds d.mu.
func (d *Dataset) pixelStore() (blobstore.BlobStore, error) {
	if d.store != nil {
		return d.store, nil
	}
	if d.rootPath == "" {
		return nil, ErrNoRootPath
	}
	d.store = blobstore.NewLocalStore(filepath.Join(d.rootPath, d.name))
	return d.store, nil
}

// frameFileName returns the pixel file name for frame i, preferring the name
// recorded in its document so renamed channels and externally produced
// datasets resolve correctly.
func (d *Dataset) frameFileName(i int) string {
	if doc := d.table.at(i).doc; doc != nil {
		if name, err := doc.GetString(meta.ImageFileName); err == nil && name != "" {
			return name
		}
	}
	c := d.extents.CoordinateAt(i)
	return model.FileName(c.Frame, d.channels[c.Channel].Name, c.Slice)
}

func (d *Dataset) blankPixels() ([]byte, error) {
	bpp, ok := d.pixelType.BytesPerPixel()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedPixelType, d.pixelType)
	}
	return make([]byte, d.width*d.height*bpp), nil
}
