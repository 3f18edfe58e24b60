// Package prom exports nblast metrics to Prometheus.
//
//	c := prom.New()
//	scorer, _ := nblast.NewScorer(tbl, nblast.WithMetricsCollector(c))
//	http.Handle("/metrics", promhttp.HandlerFor(c.Registry(), promhttp.HandlerOpts{}))
//
// Batch jobs without a scrape endpoint can write a node-exporter textfile
// with WriteTextfile instead.
package prom

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/nblast"
)

// Namespace prefixes every metric name.
const Namespace = "nblast"

// Collector implements nblast.MetricsCollector on a private registry.
type Collector struct {
	registry *prometheus.Registry

	scoreLatency *prometheus.HistogramVec
	matches      *prometheus.CounterVec
	matchRuns    prometheus.Counter
	batchTargets *prometheus.CounterVec
	batches      prometheus.Counter
	samples      *prometheus.CounterVec
}

var _ nblast.MetricsCollector = (*Collector)(nil)

// New creates a Collector and registers its metrics.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		scoreLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "score_duration_seconds",
			Help:      "Latency of pairwise skeleton comparisons",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}, []string{"status"}),
		matches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "matches_total",
			Help:      "Segment matches by angle state",
		}, []string{"angle"}),
		matchRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "match_runs_total",
			Help:      "Matcher invocations",
		}),
		batchTargets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "batch_targets_total",
			Help:      "Targets compared in batches",
		}, []string{"status"}),
		batches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "batches_total",
			Help:      "Completed batches",
		}),
		samples: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "samples_total",
			Help:      "Sampled pairs while estimating score tables",
		}, []string{"kind", "status"}),
	}

	c.registry.MustRegister(
		c.scoreLatency,
		c.matches,
		c.matchRuns,
		c.batchTargets,
		c.batches,
		c.samples,
	)
	return c
}

// Registry returns the registry holding the collector's metrics.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// WriteTextfile writes all metrics in the text exposition format to path,
// atomically.
func (c *Collector) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, c.registry)
}

// RecordScore implements nblast.MetricsCollector.
func (c *Collector) RecordScore(d time.Duration, err error) {
	c.scoreLatency.WithLabelValues(status(err)).Observe(d.Seconds())
}

// RecordMatch implements nblast.MetricsCollector.
func (c *Collector) RecordMatch(matches, undefined int) {
	c.matchRuns.Inc()
	c.matches.WithLabelValues("defined").Add(float64(matches - undefined))
	c.matches.WithLabelValues("undefined").Add(float64(undefined))
}

// RecordBatch implements nblast.MetricsCollector.
func (c *Collector) RecordBatch(count, failed int, _ time.Duration) {
	c.batches.Inc()
	c.batchTargets.WithLabelValues("success").Add(float64(count - failed))
	c.batchTargets.WithLabelValues("error").Add(float64(failed))
}

// RecordSample implements nblast.MetricsCollector.
func (c *Collector) RecordSample(kind string, _ int, err error) {
	c.samples.WithLabelValues(kind, status(err)).Inc()
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
