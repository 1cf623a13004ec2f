package truthbits

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with generator-specific helpers.
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

// WithRun tags every record with the run's storage prefix.
func (l *Logger) WithRun(prefix string) *Logger {
	return &Logger{
		Logger: l.Logger.With("run", prefix),
	}
}

// WithInputs adds the input count and batch width to the logger.
func (l *Logger) WithInputs(inputs, useBits int) *Logger {
	return &Logger{
		Logger: l.Logger.With("inputs", inputs, "use_bits", useBits),
	}
}

// LogBatch logs one produced batch.
func (l *Logger) LogBatch(ctx context.Context, status string, rows uint64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "batch failed",
			"status", status,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "batch completed",
			"status", status,
			"rows", rows,
		)
	}
}

// LogPersist logs a blob write.
func (l *Logger) LogPersist(ctx context.Context, name string, size int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "persist failed",
			"blob", name,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "persist completed",
			"blob", name,
			"bytes", size,
		)
	}
}

// LogProgress logs periodic throughput and the bytes waiting for upload.
// uploadLimit is 0 when pending uploads are not capped.
func (l *Logger) LogProgress(ctx context.Context, batches uint64, status string, elapsed time.Duration, rowsPerSec float64, uploadBytes, uploadLimit int64) {
	l.InfoContext(ctx, "enumeration progress",
		"batches", batches,
		"status", status,
		"elapsed", elapsed.Round(time.Millisecond),
		"rows_per_sec", rowsPerSec,
		"upload_bytes", uploadBytes,
		"upload_limit", uploadLimit,
	)
}

// LogResume logs a run picked up from a stored manifest.
func (l *Logger) LogResume(ctx context.Context, next string, stored int) {
	l.InfoContext(ctx, "resuming run",
		"next", next,
		"stored_batches", stored,
	)
}

// LogDone logs the end of a run.
func (l *Logger) LogDone(ctx context.Context, batches uint64, complete bool, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "run failed",
			"batches", batches,
			"elapsed", elapsed.Round(time.Millisecond),
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "run finished",
		"batches", batches,
		"complete", complete,
		"elapsed", elapsed.Round(time.Millisecond),
	)
}
