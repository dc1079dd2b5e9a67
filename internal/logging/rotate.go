package logging

import (
	"io"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation limits for NewRotatingWriter.
const (
	MaxLogSizeMB  = 10
	MaxLogBackups = 3
	MaxLogAgeDays = 28
)

// NewRotatingWriter returns a writer appending to path that rotates the
// file once it grows past MaxLogSizeMB.
func NewRotatingWriter(path string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    MaxLogSizeMB,
		MaxBackups: MaxLogBackups,
		MaxAge:     MaxLogAgeDays,
	}
}

// NewFileLogger returns a JSON logger filtered at level and writing to a
// rotating file at path. The caller closes the returned io.Closer on
// exit. Unknown level names fall back to warn.
func NewFileLogger(path, component, level string) (*ZerologAdapter, io.Closer) {
	w := NewRotatingWriter(path)
	zl := zerolog.New(w).Level(parseLevel(level)).With().Timestamp().Str("component", component).Logger()
	return NewZerologAdapter(zl), w
}
