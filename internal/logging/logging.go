package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Setup configures the global slog default. level is one of debug, info,
// warn, error (case-insensitive); format is "text" or "json". If w is nil,
// os.Stderr is used.
func Setup(level, format string, w io.Writer) error {
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}
	if w == nil {
		w = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: lvl}

	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	case "", "text":
		handler = slog.NewTextHandler(w, opts)
	default:
		return fmt.Errorf("unknown log format %q (want text or json)", format)
	}

	slog.SetDefault(slog.New(handler))
	return nil
}

// ParseLevel maps a level name to its slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q", s)
}

// New returns a logger with a "component" attribute for module-scoped logging.
func New(component string) *slog.Logger {
	return slog.Default().With(slog.String("component", component))
}
