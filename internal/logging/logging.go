// Package logging builds the console logger shared by every stage.
//
// Lines are human-readable and timestamped, e.g.
//
//	2026-01-15 14:30:22 INF Processing report_jan.xlsx stage=convert
package logging

import (
	"io"
	"strings"

	"github.com/rs/zerolog"
)

// TimeFormat is the timestamp layout used on every console line.
const TimeFormat = "2006-01-02 15:04:05"

// New returns a logger writing plain console lines to w at the given level.
// Unknown levels fall back to info.
func New(w io.Writer, level string) zerolog.Logger {
	out := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: TimeFormat,
		NoColor:    true,
	}
	return zerolog.New(out).Level(ParseLevel(level)).With().Timestamp().Logger()
}

// ParseLevel maps a configured level name to a zerolog level.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
