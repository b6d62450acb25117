package obs

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// NewLogger configures slog logger with colorful dev output and JSON for production-like envs.
func NewLogger(env, level string) *slog.Logger {
	lvl := ParseLevel(level)
	writer := os.Stdout
	if env == "dev" || env == "local" {
		handler := tint.NewHandler(writer, &tint.Options{
			Level:      lvl,
			TimeFormat: time.RFC3339,
			AddSource:  true,
		})
		return slog.New(handler)
	}
	handler := slog.NewJSONHandler(writer, &slog.HandlerOptions{
		Level:     lvl,
		AddSource: true,
	})
	return slog.New(handler)
}

// ParseLevel maps debug, warn and error onto slog levels. Anything else is info.
func ParseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
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
