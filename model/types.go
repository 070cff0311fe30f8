// Package model defines the core value types of a gridstore dataset:
// coordinates, extents, frame keys, pixel types and channel descriptors.
package model

import "fmt"

// PixelType identifies the element layout of a pixel buffer.
type PixelType string

const (
	PixTypeNone   PixelType = "NONE"
	PixTypeGray8  PixelType = "GRAY8"
	PixTypeGray16 PixelType = "GRAY16"
	PixTypeGray32 PixelType = "GRAY32"
	PixTypeRGB32  PixelType = "RGB32"
	PixTypeRGB64  PixelType = "RGB64"
)

// BytesPerPixel returns the size of one pixel in bytes.
// ok is false for PixTypeNone and unknown types.
func (p PixelType) BytesPerPixel() (size int, ok bool) {
	switch p {
	case PixTypeGray8:
		return 1, true
	case PixTypeGray16:
		return 2, true
	case PixTypeGray32, PixTypeRGB32:
		return 4, true
	case PixTypeRGB64:
		return 8, true
	default:
		return 0, false
	}
}

// Components returns the number of color components per pixel.
func (p PixelType) Components() int {
	switch p {
	case PixTypeRGB32, PixTypeRGB64:
		return 4
	default:
		return 1
	}
}

// DefaultBitDepth returns the dynamic range in bits used when the caller
// does not specify one at initialization.
func (p PixelType) DefaultBitDepth() (depth int, ok bool) {
	switch p {
	case PixTypeGray8:
		return 8, true
	case PixTypeGray16:
		return 16, true
	case PixTypeGray32:
		return 32, true
	case PixTypeRGB32:
		return 8, true
	case PixTypeRGB64:
		return 16, true
	default:
		return 0, false
	}
}

// Coordinate addresses one frame in the 4-D acquisition grid.
type Coordinate struct {
	Position int
	Channel  int
	Slice    int
	Frame    int
}

func (c Coordinate) String() string {
	return fmt.Sprintf("(pos=%d, ch=%d, slice=%d, frame=%d)", c.Position, c.Channel, c.Slice, c.Frame)
}

// Extents holds the fixed dimensions of the grid. They are set when the
// dataset is created and never resized.
type Extents struct {
	Positions int
	Channels  int
	Slices    int
	Frames    int
}

// NumFrames returns the total number of grid cells.
func (e Extents) NumFrames() int {
	return e.Positions * e.Channels * e.Slices * e.Frames
}

// FramesPerPosition returns the number of grid cells on a single position.
func (e Extents) FramesPerPosition() int {
	return e.Channels * e.Slices * e.Frames
}

// Contains reports whether c lies inside the grid.
func (e Extents) Contains(c Coordinate) bool {
	return c.Position >= 0 && c.Position < e.Positions &&
		c.Channel >= 0 && c.Channel < e.Channels &&
		c.Slice >= 0 && c.Slice < e.Slices &&
		c.Frame >= 0 && c.Frame < e.Frames
}

// Index maps c to its row-major arena index. Position is the slowest
// dimension, so one position occupies a contiguous index range.
func (e Extents) Index(c Coordinate) int {
	return ((c.Position*e.Channels+c.Channel)*e.Slices+c.Slice)*e.Frames + c.Frame
}

// CoordinateAt is the inverse of Index.
func (e Extents) CoordinateAt(i int) Coordinate {
	f := i % e.Frames
	i /= e.Frames
	s := i % e.Slices
	i /= e.Slices
	c := i % e.Channels
	return Coordinate{Position: i / e.Channels, Channel: c, Slice: s, Frame: f}
}

// ChannelData describes one imaging channel.
type ChannelData struct {
	Name  string
	Color int // 24-bit RGB
}

// ColorGray is the default channel color.
const ColorGray = 0x808080

// DefaultChannelName returns the placeholder name for channel i.
func DefaultChannelName(i int) string {
	return fmt.Sprintf("Channel-%d", i)
}

// DefaultPositionName returns the placeholder name for position i,
// zero-padded to the digit width of the position count.
func DefaultPositionName(i, numPositions int) string {
	width := 1
	for n := numPositions; n >= 10; n /= 10 {
		width++
	}
	return fmt.Sprintf("Pos_%0*d", width, i)
}

// FileName derives the pixel file name for a frame.
// The layout is fixed by the container format: img_<frame>_<channel>_<slice>.tif
// with a 9-digit frame index and a 3-digit slice index.
func FileName(frame int, channelName string, slice int) string {
	return fmt.Sprintf("img_%09d_%s_%03d.tif", frame, channelName, slice)
}
