package gridstore

import (
	"github.com/hupe1980/gridstore/meta"
)

// frameRecord tracks one cell of the acquisition grid.
//
// Lifecycle flags encode four states: empty (!acquired), in memory
// (pix != nil, !saved), persisted (pix != nil, saved) and persisted but
// evicted (pix == nil, saved). A record never moves back to empty.
type frameRecord struct {
	pix      []byte
	doc      meta.Document
	acquired bool
	saved    bool
}

func (r *frameRecord) hasPixels() bool { return r.pix != nil }

// supplyPixels takes ownership of pix. The saved flag is left alone: once a
// frame has been written, the on-disk copy stays authoritative and a
// re-supplied buffer is not written again.
func (r *frameRecord) supplyPixels(pix []byte) {
	r.pix = pix
	r.acquired = true
}

func (r *frameRecord) markSaved() {
	r.saved = true
}

// evict drops the in-memory pixel buffer. Only legal once saved.
func (r *frameRecord) evict() {
	if r.saved {
		r.pix = nil
	}
}

// addMeta merges extra tags into the frame document. Keys written by the
// generator or by an earlier call keep their values.
func (r *frameRecord) addMeta(extra meta.Document) {
	if r.doc == nil {
		r.doc = meta.New()
	}
	r.doc.Merge(extra)
}
