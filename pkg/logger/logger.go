package logger

import (
	"log/slog"
	"os"
	"strings"
)

// New constructs a JSON slog logger for the admin CLIs. Diagnostics go to
// stderr so the human-readable report on stdout stays clean.
func New(tool string) *slog.Logger {
	level := parseLevel(os.Getenv("LOG_LEVEL"))
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With("tool", tool)
}

func parseLevel(level string) slog.Leveler {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
