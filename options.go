package nblast

import (
	"log/slog"
	"runtime"

	"github.com/hupe1980/nblast/skeleton"
	"github.com/hupe1980/nblast/spatial"
)

type options struct {
	mode             skeleton.AngleMode
	index            spatial.Builder
	metricsCollector MetricsCollector
	logger           *Logger
	workers          int
	strictAngles     bool
}

// Option configures a Scorer.
type Option func(*options)

// WithAngleMode selects cosine or sine angle measures. It must match the
// convention the score table was estimated with.
func WithAngleMode(mode skeleton.AngleMode) Option {
	return func(o *options) {
		o.mode = mode
	}
}

// WithIndex selects the spatial index built over target midpoints.
//
// If nil is passed, the k-d tree is used.
func WithIndex(build spatial.Builder) Option {
	return func(o *options) {
		if build == nil {
			build = spatial.KDTreeBuilder
		}
		o.index = build
	}
}

// WithMetricsCollector configures a metrics collector for monitoring
// comparisons. Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &nblast.BasicMetricsCollector{}
//	scorer, _ := nblast.NewScorer(tbl, nblast.WithMetricsCollector(metrics))
//	// ... score ...
//	stats := metrics.GetStats()
//	fmt.Printf("Scores: %d, Avg latency: %dns\n", stats.ScoreCount, stats.ScoreAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for comparisons.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithWorkers bounds the number of targets ScoreMany compares concurrently.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithStrictAngles fails a comparison when any match has an undefined angle
// instead of leaving that match out of the sums.
func WithStrictAngles() Option {
	return func(o *options) {
		o.strictAngles = true
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		mode:             skeleton.Cosine,
		index:            spatial.KDTreeBuilder,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
		workers:          runtime.GOMAXPROCS(0),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
