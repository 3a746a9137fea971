// Package logger configures the process-wide slog logger.
package logger

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// Setup builds a logger writing to stderr (stdout belongs to the child) and
// installs it as the slog default. Level is one of debug, info, warn, error;
// format is text or json.
func Setup(level, format string) (*slog.Logger, error) {
	lvl, err := parseLevel(level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: lvl}
	var handler slog.Handler
	switch strings.ToLower(format) {
	case "", "text":
		handler = slog.NewTextHandler(os.Stderr, opts)
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	default:
		return nil, fmt.Errorf("logger: unknown format %q", format)
	}
	log := slog.New(handler)
	slog.SetDefault(log)
	return log, nil
}

func parseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("logger: unknown level %q", level)
	}
}
