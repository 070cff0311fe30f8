package gridstore

import (
	"log/slog"
	"os"

	"github.com/hupe1980/gridstore/model"
)

// Logger wraps slog.Logger with helpers for the events this package emits.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a Logger from an existing slog.Logger.
func NewLogger(l *slog.Logger) *Logger {
	return &Logger{Logger: l}
}

// NewTextLogger creates a Logger writing human-readable lines to stderr.
func NewTextLogger(level slog.Level) *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))}
}

// NewJSONLogger creates a Logger writing JSON lines to stderr.
func NewJSONLogger(level slog.Level) *Logger {
	return &Logger{Logger: slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))}
}

// NoopLogger creates a Logger that discards everything.
func NoopLogger() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000),
	}))}
}

func (l *Logger) LogAddImage(name string, c model.Coordinate, size int, err error) {
	if err != nil {
		l.Error("add image failed", "dataset", name, "coordinate", c.String(), "error", err)
		return
	}
	l.Debug("image added", "dataset", name, "coordinate", c.String(), "bytes", size)
}

func (l *Logger) LogSaveStart(name, root string, unload bool) {
	l.Info("save started", "dataset", name, "root", root, "unload", unload)
}

func (l *Logger) LogSaveDone(name string, frames int, bytes int64, err error) {
	if err != nil {
		l.Error("save failed", "dataset", name, "frames", frames, "error", err)
		return
	}
	l.Info("save finished", "dataset", name, "frames", frames, "bytes", bytes)
}

func (l *Logger) LogLoad(name string, positions, frames int, err error) {
	if err != nil {
		l.Error("load failed", "dataset", name, "error", err)
		return
	}
	l.Info("dataset loaded", "dataset", name, "positions", positions, "frames", frames)
}

func (l *Logger) LogPixelRead(name string, c model.Coordinate, err error) {
	if err != nil {
		l.Error("pixel read failed", "dataset", name, "coordinate", c.String(), "error", err)
		return
	}
	l.Debug("pixels read from store", "dataset", name, "coordinate", c.String())
}
