// Package logging provides structured logging for go-ffmpeg-seam-check.
//
// Run events go to a slog.Logger built here. Transcoder stderr is routed by
// StderrHandler: packet lines are counted, diagnostic lines are kept for
// failure reports and logged at a level matching their severity.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// NewLogger creates the run logger on stderr.
// Format should be "json" or "text"; anything else means JSON.
// Level should be "debug", "info", "warn", or "error". verbose forces debug
// and adds source locations.
func NewLogger(format, level string, verbose bool) *slog.Logger {
	logLevel := parseLevel(level)
	if verbose {
		logLevel = slog.LevelDebug
	}

	return slog.New(newHandler(os.Stderr, format, &slog.HandlerOptions{
		Level:     logLevel,
		AddSource: logLevel == slog.LevelDebug,
	}))
}

// NewLoggerWithWriter creates a logger that writes to a custom writer.
// Useful for testing.
func NewLoggerWithWriter(w io.Writer, format, level string) *slog.Logger {
	return slog.New(newHandler(w, format, &slog.HandlerOptions{
		Level: parseLevel(level),
	}))
}

// Discard returns a logger that drops everything. The dashboard owns the
// terminal while it runs.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newHandler(w io.Writer, format string, opts *slog.HandlerOptions) slog.Handler {
	if strings.EqualFold(format, "text") {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

// parseLevel converts a string level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetDefault sets the default logger for the slog package.
func SetDefault(logger *slog.Logger) {
	slog.SetDefault(logger)
}
