package gridstore

import (
	"sync/atomic"
	"time"
)

// MetricsCollector receives measurements from dataset operations.
type MetricsCollector interface {
	RecordAddImage(duration time.Duration, err error)
	RecordSave(frames int, bytes int64, duration time.Duration, err error)
	RecordLoad(frames int, duration time.Duration, err error)
	RecordPixelRead(duration time.Duration, err error)
}

// NoopMetricsCollector discards all measurements.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordAddImage(_ time.Duration, _ error)             {}
func (NoopMetricsCollector) RecordSave(_ int, _ int64, _ time.Duration, _ error) {}
func (NoopMetricsCollector) RecordLoad(_ int, _ time.Duration, _ error)          {}
func (NoopMetricsCollector) RecordPixelRead(_ time.Duration, _ error)            {}

// BasicMetricsCollector counts operations and errors with atomic counters.
type BasicMetricsCollector struct {
	ImagesAdded  atomic.Int64
	FramesSaved  atomic.Int64
	BytesSaved   atomic.Int64
	SaveRuns     atomic.Int64
	FramesLoaded atomic.Int64
	PixelReads   atomic.Int64
	Errors       atomic.Int64
}

func (c *BasicMetricsCollector) RecordAddImage(_ time.Duration, err error) {
	if err != nil {
		c.Errors.Add(1)
		return
	}
	c.ImagesAdded.Add(1)
}

func (c *BasicMetricsCollector) RecordSave(frames int, bytes int64, _ time.Duration, err error) {
	c.SaveRuns.Add(1)
	c.FramesSaved.Add(int64(frames))
	c.BytesSaved.Add(bytes)
	if err != nil {
		c.Errors.Add(1)
	}
}

func (c *BasicMetricsCollector) RecordLoad(frames int, _ time.Duration, err error) {
	c.FramesLoaded.Add(int64(frames))
	if err != nil {
		c.Errors.Add(1)
	}
}

func (c *BasicMetricsCollector) RecordPixelRead(_ time.Duration, err error) {
	c.PixelReads.Add(1)
	if err != nil {
		c.Errors.Add(1)
	}
}
