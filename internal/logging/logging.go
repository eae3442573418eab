// Package logging builds the slog loggers shared by the CLI and the
// Galaxy client.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// NewLogger returns a logger writing to stderr so that stdout stays free
// for command output such as dataset ids and result paths. format selects
// the handler: "json" emits structured records, anything else plain text.
func NewLogger(level slog.Level, format string) *slog.Logger {
	return NewLoggerWithWriter(level, format, os.Stderr)
}

// NewLoggerWithWriter is NewLogger with an explicit destination. Tests use
// it to capture records.
func NewLoggerWithWriter(level slog.Level, format string, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch strings.ToLower(format) {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

// ParseLevel maps a --log-level value ("debug", "info", "warn" or
// "warning", "error") to its slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
