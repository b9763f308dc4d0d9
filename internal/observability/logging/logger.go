// Package logging builds the process-wide structured logger. Both binaries
// emit one JSON object per line on stdout, tagged with the service name so
// api and worker events can be told apart in aggregated output.
package logging

import (
	"log/slog"
	"os"
	"strings"
)

// NewJSONLogger returns the logger for the named service. At debug level it
// also records source positions.
func NewJSONLogger(service, level string) *slog.Logger {
	lvl := parseLevel(level)
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:     lvl,
		AddSource: lvl < slog.LevelInfo,
	})
	return slog.New(handler).With("service", service)
}

// parseLevel maps a LOG_LEVEL value to a slog level. Unknown values fall back
// to info rather than failing startup.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug", "trace":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error", "fatal":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
