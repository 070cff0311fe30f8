package gridstore

import (
	"errors"
	"fmt"

	"github.com/hupe1980/gridstore/imagecodec"
	"github.com/hupe1980/gridstore/model"
)

// Error kinds. Every error returned by this package satisfies errors.Is
// against exactly one of these, so callers can separate recoverable I/O
// failures from programming errors.
var (
	// ErrInvalidArgument covers bad coordinates, malformed keys and
	// mismatched array or buffer sizes.
	ErrInvalidArgument = errors.New("gridstore: invalid argument")

	// ErrInvalidState covers operations that are not legal in the dataset's
	// current lifecycle phase.
	ErrInvalidState = errors.New("gridstore: invalid state")

	// ErrIO covers directory creation and file read/write failures,
	// including failures reported by the pixel codec and blob stores.
	ErrIO = errors.New("gridstore: i/o failure")

	// ErrFormat covers metadata documents that fail to parse or that lack
	// required structure.
	ErrFormat = errors.New("gridstore: format error")

	// ErrUnsupportedPixelType is returned when an operation needs a pixel
	// element size the core does not know.
	ErrUnsupportedPixelType = errors.New("gridstore: unsupported pixel type")
)

// Common invalid-state conditions.
var (
	ErrAlreadyInitialized = fmt.Errorf("%w: dataset already initialized", ErrInvalidState)
	ErrNotInitialized     = fmt.Errorf("%w: dataset not initialized", ErrInvalidState)
	ErrDatasetNotEmpty    = fmt.Errorf("%w: dataset already contains images", ErrInvalidState)
	ErrNoRootPath         = fmt.Errorf("%w: in-memory dataset has no root directory", ErrInvalidState)
	ErrRootAlreadySet     = fmt.Errorf("%w: dataset root directory already defined", ErrInvalidState)
)

// ErrOutOfRange reports a coordinate outside the dataset extents.
type ErrOutOfRange struct {
	Coord   model.Coordinate
	Extents model.Extents
}

func (e *ErrOutOfRange) Error() string {
	return fmt.Sprintf("gridstore: coordinate %s out of range %dx%dx%dx%d",
		e.Coord, e.Extents.Positions, e.Extents.Channels, e.Extents.Slices, e.Extents.Frames)
}

func (e *ErrOutOfRange) Unwrap() error { return ErrInvalidArgument }

// ErrChannelCountMismatch reports a channel array whose length does not match
// the dataset's channel count.
type ErrChannelCountMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrChannelCountMismatch) Error() string {
	return fmt.Sprintf("gridstore: channel count mismatch: expected %d, got %d", e.Expected, e.Actual)
}

func (e *ErrChannelCountMismatch) Unwrap() error { return ErrInvalidArgument }

// ErrPositionIndexUnresolved reports a position directory whose metadata
// contains no frame document identifying its index.
type ErrPositionIndexUnresolved struct {
	Position string
}

func (e *ErrPositionIndexUnresolved) Error() string {
	return fmt.Sprintf("gridstore: cannot establish position index for %q", e.Position)
}

func (e *ErrPositionIndexUnresolved) Unwrap() error { return ErrFormat }

func ioErr(err error, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	return fmt.Errorf("%w: %s: %w", ErrIO, msg, err)
}

func formatErr(err error, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	return fmt.Errorf("%w: %s: %w", ErrFormat, msg, err)
}

// translateCodecError maps pixel-codec failures onto the package error kinds.
func translateCodecError(err error, path string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, imagecodec.ErrUnsupported) {
		return fmt.Errorf("%w: %w", ErrUnsupportedPixelType, err)
	}
	var sm *imagecodec.ErrSizeMismatch
	if errors.As(err, &sm) {
		return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	return ioErr(err, "codec failure for %s", path)
}
