// Package logging configures the process-wide structured logger.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Options holds logger configuration.
type Options struct {
	Level  string // debug, info, warn, error
	JSON   bool   // JSON output instead of console format
	Output io.Writer
}

// New creates a structured logger. Console format writes to stderr by
// default so report output on stdout stays machine-readable.
func New(opts Options) zerolog.Logger {
	level := zerolog.InfoLevel
	switch opts.Level {
	case "debug":
		level = zerolog.DebugLevel
	case "info":
		level = zerolog.InfoLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	output := opts.Output
	if output == nil {
		output = os.Stderr
	}
	if !opts.JSON {
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
		}
	}

	return zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Str("service", "pdfscout").
		Logger()
}
