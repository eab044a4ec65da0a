package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New constructs a JSON slog logger shared by every component of the service.
func New() *slog.Logger {
	return NewTo(os.Stdout)
}

// NewTo is New writing to w. The admin CLI logs to stderr so stdout stays
// parseable.
func NewTo(w io.Writer) *slog.Logger {
	level := parseLevel(os.Getenv("LOG_LEVEL"))
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With("service", "blobdrop")
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
