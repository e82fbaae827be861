// Package logging centralizes zerolog setup for glint. Packages that log
// take a zerolog.Logger value through their constructor rather than
// reaching for a global; cmd/glint builds that logger once from its
// --verbose flag and the configured log level.
package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// New builds a console-writer logger at the given level. verbose raises the
// level to debug; quiet raises it to warn. Both false yields info, matching
// glint-core's default log_level of "info".
func New(verbose, quiet bool) zerolog.Logger {
	level := zerolog.InfoLevel
	switch {
	case verbose:
		level = zerolog.DebugLevel
	case quiet:
		level = zerolog.WarnLevel
	}
	return NewWithWriter(os.Stderr, level)
}

// NewWithWriter builds a logger writing to w at the given level, used by
// tests that want to capture output.
func NewWithWriter(w io.Writer, level zerolog.Level) zerolog.Logger {
	cw := zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	return zerolog.New(cw).Level(level).With().Timestamp().Logger()
}

// Nop returns a logger that discards everything, for call sites (mostly
// tests) that don't want to thread a real logger through.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}
