// Package gridstore stores large multi-dimensional image acquisitions on
// disk in the Micro-Manager directory layout.
//
// A dataset is a grid of frames addressed by position, channel, slice and
// frame index. Frames are added during acquisition, saved to one directory
// per position by a background writer, and can be evicted from memory once
// persisted while staying addressable. Saved datasets are reopened from the
// local filesystem or from object storage through the blobstore package.
//
//	ds, err := gridstore.Create("run-17", 2, 2, 5, 100)
//	if err != nil { ... }
//	if err := ds.Initialize(512, 512, model.PixTypeGray16, 0, 0, nil); err != nil { ... }
//	if err := ds.AddImage(buf, 0, 0, 0, 0, nil); err != nil { ... }
//	if err := ds.SaveToDir("/data", true, false); err != nil { ... }
package gridstore
