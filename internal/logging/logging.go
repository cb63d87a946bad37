// Package logging builds the structured loggers used by the CLI and server.
package logging

import (
	"io"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
	"gopkg.in/natefinch/lumberjack.v2"
)

// TimeFormat is the timestamp layout of console log lines.
const TimeFormat = "15:04:05"

// Options configures New.
type Options struct {
	Level slog.Level

	// Writer receives log lines. Nil means os.Stderr.
	Writer io.Writer

	// File, when set, sends log lines to a size-rotated file instead of
	// Writer. Colour is disabled for files.
	File string

	// NoColor disables ANSI colour on Writer.
	NoColor bool
}

// Rotation limits for File.
const (
	MaxSizeMB  = 50
	MaxBackups = 3
	MaxAgeDays = 28
)

// New returns a tint-formatted logger. The returned closer flushes and
// closes the log file, if any; it is safe to call when no file is used.
func New(opts Options) (*slog.Logger, io.Closer) {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}
	noColor := opts.NoColor

	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		lj := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    MaxSizeMB,
			MaxBackups: MaxBackups,
			MaxAge:     MaxAgeDays,
			LocalTime:  true,
		}
		w, closer, noColor = lj, lj, true
	}

	handler := tint.NewHandler(w, &tint.Options{
		Level:      opts.Level,
		TimeFormat: TimeFormat,
		NoColor:    noColor,
	})
	return slog.New(handler), closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
