package gridstore

import (
	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/gridstore/model"
)

// frameTable holds the flat record array for the acquisition grid plus
// bitmap indexes over the lifecycle flags. The bitmaps make whole-position
// queries and save scans cheap for sparse acquisitions, where only a small
// fraction of a large grid ever receives pixels.
//
// Invariant: acquired == resident OR saved, per frame.
type frameTable struct {
	extents model.Extents
	records []frameRecord

	acquired *roaring.Bitmap
	resident *roaring.Bitmap
	saved    *roaring.Bitmap
}

func newFrameTable(extents model.Extents) *frameTable {
	return &frameTable{
		extents:  extents,
		records:  make([]frameRecord, extents.NumFrames()),
		acquired: roaring.New(),
		resident: roaring.New(),
		saved:    roaring.New(),
	}
}

func (t *frameTable) at(i int) *frameRecord {
	return &t.records[i]
}

// get returns the record for c, or an out-of-range error.
func (t *frameTable) get(c model.Coordinate) (*frameRecord, int, error) {
	if !t.extents.Contains(c) {
		return nil, 0, &ErrOutOfRange{Coord: c, Extents: t.extents}
	}
	i := t.extents.Index(c)
	return &t.records[i], i, nil
}

func (t *frameTable) supplyPixels(i int, pix []byte) {
	t.records[i].supplyPixels(pix)
	t.acquired.Add(uint32(i))
	t.resident.Add(uint32(i))
}

func (t *frameTable) markSaved(i int) {
	t.records[i].markSaved()
	t.saved.Add(uint32(i))
}

func (t *frameTable) evict(i int) {
	if !t.records[i].saved {
		return
	}
	t.records[i].evict()
	t.resident.Remove(uint32(i))
}

// markLoaded registers a frame discovered in a stored metadata document.
// Pixels stay on disk until read.
func (t *frameTable) markLoaded(i int) {
	t.records[i].acquired = true
	t.records[i].saved = true
	t.acquired.Add(uint32(i))
	t.saved.Add(uint32(i))
}

func (t *frameTable) anyAcquired() bool {
	return !t.acquired.IsEmpty()
}

func (t *frameTable) numAcquired() int {
	return int(t.acquired.GetCardinality())
}

func (t *frameTable) positionRange(p int) (lo, hi uint64) {
	span := uint64(t.extents.FramesPerPosition())
	lo = uint64(p) * span
	return lo, lo + span
}

// anyOnPosition reports whether any frame of position p holds pixels, in
// memory or on disk.
func (t *frameTable) anyOnPosition(p int) bool {
	lo, hi := t.positionRange(p)
	rng := roaring.New()
	rng.AddRange(lo, hi)
	return t.acquired.Intersects(rng)
}

// residentUnsaved returns the indices within position p that need writing.
func (t *frameTable) residentUnsaved(p int) []int {
	lo, hi := t.positionRange(p)
	rng := roaring.New()
	rng.AddRange(lo, hi)
	rng.And(t.resident)
	rng.AndNot(t.saved)

	out := make([]int, 0, rng.GetCardinality())
	it := rng.Iterator()
	for it.HasNext() {
		out = append(out, int(it.Next()))
	}
	return out
}

// acquiredIndices returns every acquired frame index in grid order.
func (t *frameTable) acquiredIndices() []int {
	out := make([]int, 0, t.acquired.GetCardinality())
	it := t.acquired.Iterator()
	for it.HasNext() {
		out = append(out, int(it.Next()))
	}
	return out
}
