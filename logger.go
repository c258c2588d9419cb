package falcon

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with falcon-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// WithView adds a view field to the logger.
func (l *Logger) WithView(id ViewID) *Logger {
	return &Logger{
		Logger: l.Logger.With("view", uint64(id)),
	}
}

// WithDimension adds a dimension field to the logger.
func (l *Logger) WithDimension(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("dimension", name),
	}
}

// WithGeneration adds a generation field to the logger.
func (l *Logger) WithGeneration(gen uint64) *Logger {
	return &Logger{
		Logger: l.Logger.With("generation", gen),
	}
}

// LogActivate logs an index build for a newly active view.
func (l *Logger) LogActivate(ctx context.Context, id ViewID, dimension string, passive int, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "activate failed",
			"view", uint64(id),
			"dimension", dimension,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "index built",
			"view", uint64(id),
			"dimension", dimension,
			"passive", passive,
			"elapsed", elapsed,
		)
	}
}

// LogSelect logs a brush on the active view.
func (l *Logger) LogSelect(ctx context.Context, id ViewID, filter string, err error) {
	if err != nil {
		l.WarnContext(ctx, "select completed with failures",
			"view", uint64(id),
			"filter", filter,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "select completed",
			"view", uint64(id),
			"filter", filter,
		)
	}
}

// LogStale logs a backend result dropped because a newer activation won.
func (l *Logger) LogStale(ctx context.Context, op string, gen, current uint64) {
	l.InfoContext(ctx, "stale result dropped",
		"op", op,
		"generation", gen,
		"current", current,
	)
}

// LogViewFailure logs a passive view whose cube could not be built.
func (l *Logger) LogViewFailure(ctx context.Context, id ViewID, err error) {
	l.ErrorContext(ctx, "passive view failed",
		"view", uint64(id),
		"error", err,
	)
}
