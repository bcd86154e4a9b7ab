package logging

import (
	"io"
	"strings"

	"cdr.dev/slog"
	"cdr.dev/slog/sloggers/sloghuman"
)

// New returns a human-readable logger writing to w at the named level.
func New(w io.Writer, level string) slog.Logger {
	return slog.Make(sloghuman.Sink(w)).Leveled(ParseLevel(level))
}

func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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
