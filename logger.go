package nblast

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/hupe1980/nblast/match"
)

// Logger wraps slog.Logger with nblast-specific context.
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
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	}))
}

// WithSkeleton adds a skeleton name field to the logger.
func (l *Logger) WithSkeleton(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("skeleton", name),
	}
}

// LogScore logs a single comparison.
func (l *Logger) LogScore(ctx context.Context, query, target string, res Result, err error) {
	if err != nil {
		l.WarnContext(ctx, "score failed",
			"query", query,
			"target", target,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "score computed",
		"query", query,
		"target", target,
		"score", res.Score,
		"undefined", res.Undefined,
	)
}

// LogCoverage logs how much of the target one directional match touched.
func (l *Logger) LogCoverage(ctx context.Context, query, target string, cov match.Summary) {
	l.DebugContext(ctx, "match coverage",
		"query", query,
		"target", target,
		"matches", cov.Matches,
		"distinct_targets", cov.DistinctTargets,
		"fraction", cov.Fraction,
		"mean_distance", cov.MeanDistance,
	)
}

// LogBatch logs the outcome of ScoreMany.
func (l *Logger) LogBatch(ctx context.Context, query string, count, failed int, elapsed time.Duration) {
	if failed > 0 {
		l.WarnContext(ctx, "batch completed with failures",
			"query", query,
			"total", count,
			"failed", failed,
			"success", count-failed,
			"elapsed", elapsed,
		)
		return
	}
	l.InfoContext(ctx, "batch completed",
		"query", query,
		"count", count,
		"elapsed", elapsed,
	)
}

// LogBuild logs the outcome of a score table estimation.
func (l *Logger) LogBuild(ctx context.Context, iterations, skipped int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "table build failed",
			"iterations", iterations,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "table build completed",
		"iterations", iterations,
		"skipped_skeletons", skipped,
	)
}
