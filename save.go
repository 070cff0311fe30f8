package gridstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hupe1980/gridstore/meta"
)

// saveTask tracks one background save. A dataset holds at most one.
type saveTask struct {
	done chan struct{}
	err  error
}

// Save writes all unsaved images and the metadata file of every non-empty
// position under the dataset's root directory. It works with incomplete
// datasets and can be called repeatedly; already persisted frames are
// skipped. With unload, pixel buffers are released after writing.
//
// An outstanding background save is waited for first; its error, if any, is
// returned without starting a new save.
func (d *Dataset) Save(unload bool) error {
	if err := d.WaitForSaveToFinish(); err != nil {
		return err
	}
	return d.saveAll(context.Background(), unload)
}

// SaveAsync starts Save in a background goroutine. The result is reported by
// WaitForSaveToFinish or Close. Like Save, it first waits for any
// outstanding background save and returns its error without starting a new
// one. The task slot is claimed in the same critical section that observed
// it empty, so at most one background save runs at any time.
func (d *Dataset) SaveAsync(unload bool) error {
	d.mu.Lock()
	noRoot := d.rootPath == ""
	d.mu.Unlock()
	if noRoot {
		return ErrNoRootPath
	}

	task := &saveTask{done: make(chan struct{})}
	for {
		d.saveMu.Lock()
		prev := d.save
		if prev == nil {
			d.save = task
			d.saveMu.Unlock()
			break
		}
		d.saveMu.Unlock()

		<-prev.done
		d.saveMu.Lock()
		if d.save == prev {
			d.save = nil
		}
		d.saveMu.Unlock()
		if prev.err != nil {
			return prev.err
		}
	}

	go func() {
		defer close(task.done)
		task.err = d.saveAll(context.Background(), unload)
	}()

	return nil
}

// WaitForSaveToFinish blocks until any outstanding background save completes
// and returns its error. It returns nil when no save is in flight.
func (d *Dataset) WaitForSaveToFinish() error {
	d.saveMu.Lock()
	task := d.save
	d.saveMu.Unlock()

	if task == nil {
		return nil
	}
	<-task.done

	d.saveMu.Lock()
	if d.save == task {
		d.save = nil
	}
	d.saveMu.Unlock()

	return task.err
}

// SaveToDir assigns a root directory to an in-memory dataset and saves it.
// The dataset directory is created under parentDir. With overwrite, an
// existing directory is replaced, but only if it holds a recognizable
// dataset; anything else is refused rather than deleted.
func (d *Dataset) SaveToDir(parentDir string, unload, overwrite bool) error {
	d.mu.Lock()
	if !d.initialized {
		d.mu.Unlock()
		return ErrNotInitialized
	}
	if d.rootPath != "" {
		d.mu.Unlock()
		return ErrRootAlreadySet
	}

	target := filepath.Join(parentDir, d.name)
	if _, err := d.fsys.Stat(target); err == nil {
		if !overwrite {
			d.mu.Unlock()
			return fmt.Errorf("%w: directory already exists: %s", ErrIO, target)
		}
		if !d.looksLikeDataset(target) {
			d.mu.Unlock()
			return fmt.Errorf("%w: refusing to overwrite %s: not a dataset directory", ErrIO, target)
		}
		if err := d.fsys.RemoveAll(target); err != nil {
			d.mu.Unlock()
			return ioErr(err, "remove %s", target)
		}
	}
	if err := d.fsys.MkdirAll(target, 0o755); err != nil {
		d.mu.Unlock()
		return ioErr(err, "create %s", target)
	}

	d.rootPath = parentDir
	d.mu.Unlock()

	return d.saveAll(context.Background(), unload)
}

// saveAll is the single writer behind Save, SaveAsync and SaveToDir. The
// dataset lock is taken per unit of work, one metadata file or one pixel
// file, so acquisition can interleave with a long-running save.
func (d *Dataset) saveAll(ctx context.Context, unload bool) error {
	start := time.Now()

	frames, bytes, err := d.savePositions(ctx, unload)

	d.metrics.RecordSave(frames, bytes, time.Since(start), err)
	d.logger.LogSaveDone(d.Name(), frames, bytes, err)
	return err
}

func (d *Dataset) savePositions(ctx context.Context, unload bool) (frames int, bytes int64, err error) {
	d.mu.Lock()
	if !d.initialized {
		d.mu.Unlock()
		return 0, 0, ErrNotInitialized
	}
	if d.rootPath == "" {
		d.mu.Unlock()
		return 0, 0, ErrNoRootPath
	}
	root := filepath.Join(d.rootPath, d.name)
	positions := d.extents.Positions
	bpp, _ := d.pixelType.BytesPerPixel()
	rawSize := d.width * d.height * bpp
	d.mu.Unlock()

	d.logger.LogSaveStart(d.Name(), root, unload)

	for p := 0; p < positions; p++ {
		indices, werr := d.savePositionMeta(p, root)
		if werr != nil {
			return frames, bytes, werr
		}

		for _, i := range indices {
			if werr := d.throttle(ctx, rawSize); werr != nil {
				return frames, bytes, werr
			}
			n, werr := d.saveFrame(i, root, unload)
			if werr != nil {
				return frames, bytes, werr
			}
			if n > 0 {
				frames++
				bytes += int64(n)
			}
		}
	}
	return frames, bytes, nil
}

// savePositionMeta writes the metadata file for position p if the position
// holds any images, and returns the indices of frames that need writing.
func (d *Dataset) savePositionMeta(p int, root string) ([]int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.table.anyOnPosition(p) {
		return nil, nil
	}

	posDir := filepath.Join(root, d.positionNames[p])
	if err := d.fsys.MkdirAll(posDir, 0o755); err != nil {
		return nil, ioErr(err, "create %s", posDir)
	}

	data, err := meta.Marshal(d.positionDocument(p))
	if err != nil {
		return nil, formatErr(err, "marshal metadata for %s", d.positionNames[p])
	}
	if err := d.writeMetaFile(filepath.Join(posDir, meta.FileName), data); err != nil {
		return nil, ioErr(err, "write metadata for %s", d.positionNames[p])
	}

	return d.table.residentUnsaved(p), nil
}

// writeMetaFile writes a metadata file synced to disk. The metadata file is
// what makes a position directory recoverable, so it gets an fsync where
// pixel files do not.
func (d *Dataset) writeMetaFile(path string, data []byte) error {
	f, err := d.fsys.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// saveFrame writes one pixel file and advances the frame's lifecycle. The
// frame's state is re-checked under the lock: it may have been re-supplied
// or saved since the scan.
func (d *Dataset) saveFrame(i int, root string, unload bool) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	rec := d.table.at(i)
	if !rec.hasPixels() || rec.saved {
		return 0, nil
	}

	c := d.extents.CoordinateAt(i)
	name := d.frameFileName(i)
	path := filepath.Join(root, d.positionNames[c.Position], name)

	enc, err := d.codec.Encode(rec.pix, d.pixelType, d.width, d.height)
	if err != nil {
		return 0, translateCodecError(err, path)
	}
	if err := d.fsys.WriteFile(path, enc, 0o644); err != nil {
		return 0, ioErr(err, "write pixels %s", name)
	}

	d.table.markSaved(i)
	if unload {
		d.table.evict(i)
	}
	return len(enc), nil
}

// throttle blocks until the rate limiter admits n bytes of write traffic.
func (d *Dataset) throttle(ctx context.Context, n int) error {
	if d.limiter == nil {
		return nil
	}
	burst := d.limiter.Burst()
	for n > 0 {
		chunk := n
		if chunk > burst {
			chunk = burst
		}
		if err := d.limiter.WaitN(ctx, chunk); err != nil {
			return fmt.Errorf("%w: save throttled: %w", ErrIO, err)
		}
		n -= chunk
	}
	return nil
}

// looksLikeDataset reports whether dir resembles a dataset directory: either
// empty or holding at least one position directory with a metadata file.
// Caller holds d.mu.
func (d *Dataset) looksLikeDataset(dir string) bool {
	entries, err := d.fsys.ReadDir(dir)
	if err != nil {
		return false
	}
	if len(entries) == 0 {
		return true
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := d.fsys.Stat(filepath.Join(dir, e.Name(), meta.FileName)); err == nil {
			return true
		}
	}
	return false
}
