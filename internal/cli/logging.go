package cli

import (
	"io"
	"log/slog"

	"github.com/mesh-intelligence/catalog/pkg/types"
)

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// newLogger builds the process logger. Logs go to w so that command output
// on stdout stays machine readable.
func newLogger(cfg types.LoggingConfig, w io.Writer) *slog.Logger {
	level, ok := logLevels[cfg.Level]
	if !ok {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
