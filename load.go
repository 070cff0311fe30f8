package gridstore

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/gridstore/blobstore"
	"github.com/hupe1980/gridstore/meta"
	"github.com/hupe1980/gridstore/model"
)

// Load opens a dataset from a directory on the local filesystem. With eager,
// all persisted pixels are read into memory up front; otherwise they are
// read on demand by GetImagePixels.
func Load(ctx context.Context, dir string, eager bool, optFns ...Option) (*Dataset, error) {
	d, err := LoadFromStore(ctx, blobstore.NewLocalStore(dir), eager, optFns...)
	if err != nil {
		return nil, err
	}

	// The directory name is authoritative for local datasets.
	abs := filepath.Clean(dir)
	d.name = filepath.Base(abs)
	d.rootPath = filepath.Dir(abs)
	return d, nil
}

// LoadFromStore opens a dataset from any blob store, local or remote. The
// returned dataset is read-only in practice: it has no root directory, so
// saves are rejected until one is assigned.
func LoadFromStore(ctx context.Context, store blobstore.BlobStore, eager bool, optFns ...Option) (*Dataset, error) {
	opts := applyOptions(optFns...)
	start := time.Now()

	d, err := loadFromStore(ctx, store, eager, opts)

	name := ""
	positions := 0
	frames := 0
	if d != nil {
		name = d.name
		positions = d.extents.Positions
		frames = d.table.numAcquired()
	}
	opts.metrics.RecordLoad(frames, time.Since(start), err)
	opts.logger.LogLoad(name, positions, frames, err)

	if err != nil {
		return nil, err
	}
	return d, nil
}

func loadFromStore(ctx context.Context, store blobstore.BlobStore, eager bool, opts options) (*Dataset, error) {
	posNames, err := listPositionDirs(ctx, store)
	if err != nil {
		return nil, err
	}
	if len(posNames) == 0 {
		return nil, fmt.Errorf("%w: no position metadata found in store", ErrFormat)
	}

	d := &Dataset{
		codec:   opts.codec,
		fsys:    opts.fsys,
		logger:  opts.logger,
		metrics: opts.metrics,
		limiter: opts.limiter,
		store:   store,
	}

	for _, posName := range posNames {
		data, err := blobstore.ReadAll(ctx, store, path.Join(posName, meta.FileName))
		if err != nil {
			return nil, ioErr(err, "read metadata for %s", posName)
		}
		doc, err := meta.Parse(data)
		if err != nil {
			return nil, formatErr(err, "parse metadata for %s", posName)
		}

		if d.summary == nil {
			if err := d.applySummary(doc); err != nil {
				return nil, err
			}
		}

		if err := d.loadPosition(posName, doc); err != nil {
			return nil, err
		}
	}

	d.initialized = true

	if eager {
		if err := d.loadAllPixels(ctx); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// listPositionDirs finds position directories by their metadata files,
// preserving directory order.
func listPositionDirs(ctx context.Context, store blobstore.BlobStore) ([]string, error) {
	names, err := store.List(ctx, "")
	if err != nil {
		return nil, ioErr(err, "list store")
	}

	var dirs []string
	seen := make(map[string]bool)
	for _, name := range names {
		dir, file := path.Split(name)
		if file != meta.FileName {
			continue
		}
		dir = strings.TrimSuffix(dir, "/")
		if dir == "" || strings.Contains(dir, "/") || seen[dir] {
			continue
		}
		seen[dir] = true
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	return dirs, nil
}

// applySummary configures the dataset from the first summary document found.
func (d *Dataset) applySummary(doc meta.Document) error {
	sum, err := doc.GetDocument(meta.KeySummary)
	if err != nil {
		return formatErr(err, "missing summary document")
	}

	var e model.Extents
	for _, f := range []struct {
		key string
		dst *int
	}{
		{meta.SummaryPositions, &e.Positions},
		{meta.SummaryChannels, &e.Channels},
		{meta.SummarySlices, &e.Slices},
		{meta.SummaryFrames, &e.Frames},
		{meta.SummaryWidth, &d.width},
		{meta.SummaryHeight, &d.height},
		{meta.SummaryBitDepth, &d.bitDepth},
	} {
		v, err := sum.GetInt(f.key)
		if err != nil {
			return formatErr(err, "summary field %s", f.key)
		}
		*f.dst = v
	}
	if e.NumFrames() < 1 {
		return fmt.Errorf("%w: summary describes an empty grid", ErrFormat)
	}

	pt, err := sum.GetString(meta.SummaryPixelType)
	if err != nil {
		return formatErr(err, "summary field %s", meta.SummaryPixelType)
	}
	d.pixelType = model.PixelType(pt)

	if v, err := sum.GetFloat(meta.SummaryPixelSize); err == nil {
		d.pixelSizeUm = v
	}
	if v, err := sum.GetInt(meta.SummaryNumComponents); err == nil {
		d.numComponents = v
	} else {
		d.numComponents = d.pixelType.Components()
	}
	if v, err := sum.GetString(meta.SummaryPrefix); err == nil {
		d.name = v
	}

	chNames, err := sum.GetStrings(meta.SummaryChannelNames)
	if err != nil {
		return formatErr(err, "summary field %s", meta.SummaryChannelNames)
	}
	if len(chNames) != e.Channels {
		return fmt.Errorf("%w: summary lists %d channel names for %d channels",
			ErrFormat, len(chNames), e.Channels)
	}
	chColors, _ := sum.GetInts(meta.SummaryChannelColors)
	d.channels = make([]model.ChannelData, e.Channels)
	for i := range d.channels {
		d.channels[i] = model.ChannelData{Name: chNames[i], Color: model.ColorGray}
		if i < len(chColors) {
			d.channels[i].Color = chColors[i]
		}
	}

	d.positionNames = make([]string, e.Positions)
	for i := range d.positionNames {
		d.positionNames[i] = model.DefaultPositionName(i, e.Positions)
	}

	d.extents = e
	d.summary = sum
	d.table = newFrameTable(e)
	return nil
}

// loadPosition registers the frames recorded in one position's metadata.
// Frames missing from the document are left empty; a partially saved
// dataset loads cleanly.
func (d *Dataset) loadPosition(posName string, doc meta.Document) error {
	posIndex, err := resolvePositionIndex(doc, posName)
	if err != nil {
		return err
	}
	if posIndex < 0 || posIndex >= d.extents.Positions {
		return fmt.Errorf("%w: position index %d for %q exceeds grid", ErrFormat, posIndex, posName)
	}
	d.positionNames[posIndex] = posName

	for _, key := range doc.Keys() {
		if !model.IsFrameKey(key) {
			continue
		}
		c, legacy, err := model.ParseFrameKey(key)
		if err != nil {
			return formatErr(err, "metadata for %s", posName)
		}
		if legacy {
			c.Position = posIndex
		}
		if !d.extents.Contains(c) {
			return fmt.Errorf("%w: frame %s in %q exceeds grid", ErrFormat, c, posName)
		}

		frameDoc, err := doc.GetDocument(key)
		if err != nil {
			return formatErr(err, "frame document %s", key)
		}

		i := d.extents.Index(c)
		d.table.at(i).doc = frameDoc
		d.table.markLoaded(i)
	}
	return nil
}

// resolvePositionIndex recovers a directory's position index from its frame
// documents. The index lives only in image metadata: first a frame naming
// this directory as its position is trusted, then any frame's index.
func resolvePositionIndex(doc meta.Document, posName string) (int, error) {
	fallback := -1
	for _, key := range doc.Keys() {
		if !model.IsFrameKey(key) {
			continue
		}
		frameDoc, err := doc.GetDocument(key)
		if err != nil {
			continue
		}
		idx, err := frameDoc.GetInt(meta.ImagePosIndex)
		if err != nil {
			continue
		}
		if name, err := frameDoc.GetString(meta.ImagePosName); err == nil && name == posName {
			return idx, nil
		}
		if fallback < 0 {
			fallback = idx
		}
	}
	if fallback >= 0 {
		return fallback, nil
	}
	return 0, &ErrPositionIndexUnresolved{Position: posName}
}

// loadAllPixels reads every persisted frame into memory, a few positions
// wide in parallel. Used for eager loads of archived datasets.
func (d *Dataset) loadAllPixels(ctx context.Context) error {
	indices := d.table.acquiredIndices()
	buffers := make([][]byte, len(indices))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for slot, i := range indices {
		g.Go(func() error {
			pix, err := d.readPixelsFromStore(ctx, i)
			if err != nil {
				return err
			}
			buffers[slot] = pix
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for slot, i := range indices {
		d.table.supplyPixels(i, buffers[slot])
		d.table.markSaved(i)
	}
	return nil
}

// readPixelsFromStore is the lock-free variant of readStoredPixels used
// during load, before the dataset is shared.
func (d *Dataset) readPixelsFromStore(ctx context.Context, i int) ([]byte, error) {
	c := d.extents.CoordinateAt(i)
	name := path.Join(d.positionNames[c.Position], d.frameFileName(i))

	data, err := blobstore.ReadAll(ctx, d.store, name)
	if err != nil {
		return nil, ioErr(err, "read pixels %s", name)
	}
	pix, err := d.codec.Decode(data, d.pixelType, d.width, d.height)
	if err != nil {
		return nil, translateCodecError(err, name)
	}
	return pix, nil
}
