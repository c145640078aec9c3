// ABOUTME: Logger construction and the package-level logger.
// ABOUTME: Cycles get a child logger that drops to debug level when verbose logging is on.

package main

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// logger is replaced in main; tests run with it discarded.
var logger = zerolog.Nop()

// newLogger builds a console logger, or a JSON one when format is "json".
func newLogger(w io.Writer, format string, debug bool) zerolog.Logger {
	out := w
	if format != "json" {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	}
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// cycleLogger tags log lines with the cycle and mode. The Verbose setting is
// read from the cycle's own snapshot, so toggling it takes effect on the next cycle.
func cycleLogger(c Cycle) zerolog.Logger {
	l := logger.With().Str("cycle", shortID(c.ID)).Stringer("mode", c.Mode).Logger()
	if c.Config.Verbose && l.GetLevel() > zerolog.DebugLevel {
		l = l.Level(zerolog.DebugLevel)
	}
	return l
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
