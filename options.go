package gridstore

import (
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/hupe1980/gridstore/imagecodec"
	"github.com/hupe1980/gridstore/internal/fs"
)

type options struct {
	codec   imagecodec.Codec
	fsys    fs.FileSystem
	logger  *Logger
	metrics MetricsCollector
	limiter *rate.Limiter
}

// Option configures a Dataset.
type Option func(*options)

// WithCodec sets the pixel codec used to encode and decode frame files.
func WithCodec(c imagecodec.Codec) Option {
	return func(o *options) {
		o.codec = c
	}
}

// WithFileSystem sets the filesystem used for saving. Intended for tests.
func WithFileSystem(fsys fs.FileSystem) Option {
	return func(o *options) {
		o.fsys = fsys
	}
}

// WithLogger sets the logger.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithLogLevel installs a stderr text logger at the given level.
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector sets the metrics collector.
func WithMetricsCollector(m MetricsCollector) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithSaveRateLimit throttles save throughput to roughly bytesPerSec. Useful
// when background saves share a disk or network link with a running
// acquisition. Zero or negative disables throttling.
func WithSaveRateLimit(bytesPerSec int) Option {
	return func(o *options) {
		if bytesPerSec <= 0 {
			o.limiter = nil
			return
		}
		o.limiter = rate.NewLimiter(rate.Limit(bytesPerSec), bytesPerSec)
	}
}

func applyOptions(optFns ...Option) options {
	opts := options{
		codec:   imagecodec.TIFF{},
		fsys:    fs.Default,
		logger:  NoopLogger(),
		metrics: NoopMetricsCollector{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return opts
}
