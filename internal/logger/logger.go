package logger

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
)

// Configure builds the process logger and installs it as the slog default.
// Stdout gets tint in dev and JSON in prod. When path is non-empty, log
// lines are also appended to that file, always as JSON so the file stays
// machine-readable regardless of env. The returned closer owns the file
// handle and may be nil.
func Configure(levelStr string, env string, path string) (*slog.Logger, io.Closer, error) {
	level := parseLogLevel(levelStr)

	var stdout slog.Handler
	if env == "dev" || env == "development" {
		stdout = tint.NewHandler(os.Stdout, &tint.Options{Level: level})
	} else {
		stdout = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}

	handler := stdout
	var closer io.Closer
	if path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, err
		}
		closer = f
		handler = fanout{stdout, slog.NewJSONHandler(f, &slog.HandlerOptions{Level: level})}
	}

	log := slog.New(handler)
	slog.SetDefault(log)
	return log, closer, nil
}

// fanout forwards every record to each wrapped handler.
type fanout []slog.Handler

func (h fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, hh := range h {
		if hh.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h fanout) Handle(ctx context.Context, r slog.Record) error {
	for _, hh := range h {
		if !hh.Enabled(ctx, r.Level) {
			continue
		}
		if err := hh.Handle(ctx, r.Clone()); err != nil {
			return err
		}
	}
	return nil
}

func (h fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(h))
	for i, hh := range h {
		out[i] = hh.WithAttrs(attrs)
	}
	return out
}

func (h fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(h))
	for i, hh := range h {
		out[i] = hh.WithGroup(name)
	}
	return out
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
