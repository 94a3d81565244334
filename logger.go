package wvgo

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with wvgo-specific operation helpers.
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
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithPath adds a path field to the logger.
func (l *Logger) WithPath(path string) *Logger {
	return &Logger{
		Logger: l.Logger.With("path", path),
	}
}

// WithFormat adds a format field to the logger.
func (l *Logger) WithFormat(format Format) *Logger {
	return &Logger{
		Logger: l.Logger.With("format", string(format)),
	}
}

// LogLoad logs a load operation.
func (l *Logger) LogLoad(ctx context.Context, path string, format Format, words int, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "load failed",
			"path", path,
			"format", string(format),
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "load completed",
			"path", path,
			"format", string(format),
			"words", words,
			"elapsed", elapsed,
		)
	}
}

// LogSave logs a save operation.
func (l *Logger) LogSave(ctx context.Context, path string, format Format, words int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "save failed",
			"path", path,
			"format", string(format),
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "save completed",
			"path", path,
			"format", string(format),
			"words", words,
		)
	}
}

// LogSearch logs a nearest-neighbor query.
func (l *Logger) LogSearch(ctx context.Context, n, candidates, resultsFound int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "search failed",
			"n", n,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "search completed",
			"n", n,
			"candidates", candidates,
			"results", resultsFound,
		)
	}
}

// LogIndexBuild logs the construction of an LSH index.
func (l *Logger) LogIndexBuild(ctx context.Context, bits, entries int, loadFactor float64) {
	l.DebugContext(ctx, "lsh index built",
		"bits", bits,
		"entries", entries,
		"load_factor", loadFactor,
	)
	if loadFactor < lowLoadFactor {
		l.WarnContext(ctx, "low lsh load factor, neighbor searches may be slow",
			"load_factor", loadFactor,
		)
	}
}
