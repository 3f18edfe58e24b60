package nblast

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like
// Prometheus; see package metrics/prom.
type MetricsCollector interface {
	// RecordScore is called after each pairwise comparison.
	RecordScore(duration time.Duration, err error)

	// RecordMatch is called once per matcher run with the number of
	// matches and how many of them had an undefined angle.
	RecordMatch(matches, undefined int)

	// RecordBatch is called after each ScoreMany call.
	RecordBatch(count, failed int, duration time.Duration)

	// RecordSample is called once per sampled pair while estimating a
	// score table. kind is "known" or "random".
	RecordSample(kind string, matches int, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordScore(time.Duration, error)    {}
func (NoopMetricsCollector) RecordMatch(int, int)                {}
func (NoopMetricsCollector) RecordBatch(int, int, time.Duration) {}
func (NoopMetricsCollector) RecordSample(string, int, error)     {}

// BasicMetricsCollector provides simple in-memory metrics collection.
type BasicMetricsCollector struct {
	ScoreCount       atomic.Int64
	ScoreErrors      atomic.Int64
	ScoreTotalNanos  atomic.Int64
	MatchRuns        atomic.Int64
	Matches          atomic.Int64
	UndefinedMatches atomic.Int64
	BatchCount       atomic.Int64
	BatchItems       atomic.Int64
	BatchFailed      atomic.Int64
	KnownSamples     atomic.Int64
	RandomSamples    atomic.Int64
	SampleErrors     atomic.Int64
}

// RecordScore implements MetricsCollector.
func (b *BasicMetricsCollector) RecordScore(duration time.Duration, err error) {
	b.ScoreCount.Add(1)
	b.ScoreTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.ScoreErrors.Add(1)
	}
}

// RecordMatch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordMatch(matches, undefined int) {
	b.MatchRuns.Add(1)
	b.Matches.Add(int64(matches))
	b.UndefinedMatches.Add(int64(undefined))
}

// RecordBatch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBatch(count, failed int, _ time.Duration) {
	b.BatchCount.Add(1)
	b.BatchItems.Add(int64(count))
	b.BatchFailed.Add(int64(failed))
}

// RecordSample implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSample(kind string, _ int, err error) {
	if kind == "known" {
		b.KnownSamples.Add(1)
	} else {
		b.RandomSamples.Add(1)
	}
	if err != nil {
		b.SampleErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		ScoreCount:       b.ScoreCount.Load(),
		ScoreErrors:      b.ScoreErrors.Load(),
		ScoreAvgNanos:    b.avgScoreNanos(),
		MatchRuns:        b.MatchRuns.Load(),
		Matches:          b.Matches.Load(),
		UndefinedMatches: b.UndefinedMatches.Load(),
		BatchCount:       b.BatchCount.Load(),
		BatchItems:       b.BatchItems.Load(),
		BatchFailed:      b.BatchFailed.Load(),
		KnownSamples:     b.KnownSamples.Load(),
		RandomSamples:    b.RandomSamples.Load(),
		SampleErrors:     b.SampleErrors.Load(),
	}
}

func (b *BasicMetricsCollector) avgScoreNanos() int64 {
	count := b.ScoreCount.Load()
	if count == 0 {
		return 0
	}
	return b.ScoreTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	ScoreCount       int64
	ScoreErrors      int64
	ScoreAvgNanos    int64
	MatchRuns        int64
	Matches          int64
	UndefinedMatches int64
	BatchCount       int64
	BatchItems       int64
	BatchFailed      int64
	KnownSamples     int64
	RandomSamples    int64
	SampleErrors     int64
}
