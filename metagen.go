package gridstore

import (
	"os"
	"os/user"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/gridstore/meta"
	"github.com/hupe1980/gridstore/model"
)

// sourceModule is written to the summary Source tag.
const sourceModule = "gridstore"

const timeLayout = "2006.01.02.15.04.05"

// generateSummary builds the dataset-wide summary document. Custom tags from
// the caller are kept; generated tags overwrite custom ones of the same name
// so the structural fields always reflect the actual dataset shape.
func (d *Dataset) generateSummary(custom meta.Document) meta.Document {
	sum := meta.New()
	if custom != nil {
		sum.Merge(custom)
	}

	chNames := make([]string, len(d.channels))
	chColors := make([]int, len(d.channels))
	for i, ch := range d.channels {
		chNames[i] = ch.Name
		chColors[i] = ch.Color
	}

	sum.Set(meta.SummaryPrefix, d.name)
	sum.Set(meta.SummarySource, sourceModule)
	sum.Set(meta.SummaryWidth, d.width)
	sum.Set(meta.SummaryHeight, d.height)
	sum.Set(meta.SummaryPixelType, string(d.pixelType))
	sum.Set(meta.SummaryPixelSize, d.pixelSizeUm)
	sum.Set(meta.SummaryBitDepth, d.bitDepth)
	sum.Set(meta.SummaryPixelAspect, 1)
	sum.Set(meta.SummaryPositions, d.extents.Positions)
	sum.Set(meta.SummaryChannels, d.extents.Channels)
	sum.Set(meta.SummaryChannelNames, chNames)
	sum.Set(meta.SummaryChannelColors, chColors)
	sum.Set(meta.SummarySlices, d.extents.Slices)
	sum.Set(meta.SummaryFrames, d.extents.Frames)
	sum.Set(meta.SummaryTimeFirst, true)
	sum.Set(meta.SummarySlicesFirst, false)
	sum.Set(meta.SummaryNumComponents, d.numComponents)
	sum.Set(meta.SummaryUUID, uuid.NewString())
	sum.Set(meta.SummaryVersion, meta.Version)
	sum.Set(meta.SummaryTime, time.Now().Format(timeLayout))

	if host, err := os.Hostname(); err == nil {
		sum.Set(meta.SummaryComputerName, host)
	}
	if u, err := user.Current(); err == nil {
		sum.Set(meta.SummaryUserName, u.Username)
	}

	return sum
}

// generateFrameDoc builds the auto-generated document for one grid cell.
func (d *Dataset) generateFrameDoc(c model.Coordinate) meta.Document {
	doc := meta.New()
	doc.Set(meta.ImageWidth, d.width)
	doc.Set(meta.ImageHeight, d.height)
	doc.Set(meta.ImageChannelIndex, c.Channel)
	doc.Set(meta.ImagePosIndex, c.Position)
	doc.Set(meta.ImageSliceIndex, c.Slice)
	doc.Set(meta.ImageSlice, c.Slice)
	doc.Set(meta.ImageFrameIndex, c.Frame)
	doc.Set(meta.ImageFrame, c.Frame)
	doc.Set(meta.ImageChannelName, d.channels[c.Channel].Name)
	doc.Set(meta.SummaryBitDepth, d.bitDepth)
	doc.Set(meta.SummaryPixelType, string(d.pixelType))
	doc.Set(meta.SummaryPixelSize, d.pixelSizeUm)
	doc.Set(meta.SummaryUUID, uuid.NewString())
	doc.Set(meta.ImageFileName, model.FileName(c.Frame, d.channels[c.Channel].Name, c.Slice))
	doc.Set(meta.ImagePosName, d.positionNames[c.Position])
	return doc
}

// positionDocument assembles the metadata file content for position p: the
// summary plus one frame document per acquired frame of the position, keyed
// by its frame key. Frames that never received pixels are absent, so a
// reloaded incomplete dataset knows which cells are still empty.
func (d *Dataset) positionDocument(p int) meta.Document {
	doc := meta.New()
	doc.Set(meta.KeySummary, d.summary)

	span := d.extents.FramesPerPosition()
	for i := p * span; i < (p+1)*span; i++ {
		rec := d.table.at(i)
		if !rec.acquired || rec.doc == nil {
			continue
		}
		doc.Set(model.FrameKey(d.extents.CoordinateAt(i)), rec.doc)
	}
	return doc
}

// regenerateFileNames rewrites every frame document's file name field after
// a channel rename.
func (d *Dataset) regenerateFileNames() {
	for i := range d.table.records {
		c := d.extents.CoordinateAt(i)
		rec := d.table.at(i)
		if rec.doc != nil {
			rec.doc.Set(meta.ImageFileName, model.FileName(c.Frame, d.channels[c.Channel].Name, c.Slice))
		}
	}
}

// updatePositionTag rewrites the position name field in every frame document
// of position p.
func (d *Dataset) updatePositionTag(p int, name string) {
	span := d.extents.FramesPerPosition()
	for i := p * span; i < (p+1)*span; i++ {
		if doc := d.table.at(i).doc; doc != nil {
			doc.Set(meta.ImagePosName, name)
		}
	}
}
