// Package metrics provides Prometheus metrics for lawkit's parsing
// pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dshills/lawkit/internal/parser/cache"
)

// Metrics holds all Prometheus collectors for the parsing pipeline.
type Metrics struct {
	// Parse pipeline
	ParsesTotal   *prometheus.CounterVec
	ParseDuration prometheus.Histogram
	StatutesTotal prometheus.Gauge

	// Document cache, fed from cache.Stats
	CacheHits    prometheus.Gauge
	CacheMisses  prometheus.Gauge
	CacheSize    prometheus.Gauge
	CacheHitRate prometheus.Gauge

	// Validation and lint
	ValidationIssues prometheus.Gauge
	RuleFindings     prometheus.Gauge
}

// New creates the metric set and registers it with reg.
// Passing prometheus.NewRegistry keeps tests isolated from the default
// registry.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ParsesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lawkit_parses_total",
				Help: "Total number of document parses",
			},
			[]string{"status"},
		),
		ParseDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "lawkit_parse_duration_seconds",
				Help:    "Duration of document parses in seconds",
				Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
			},
		),
		StatutesTotal: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "lawkit_statutes",
				Help: "Statutes in the most recently parsed document",
			},
		),
		CacheHits: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "lawkit_cache_hits",
				Help: "Document cache hits since last clear",
			},
		),
		CacheMisses: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "lawkit_cache_misses",
				Help: "Document cache misses since last clear",
			},
		),
		CacheSize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "lawkit_cache_entries",
				Help: "Documents currently cached",
			},
		),
		CacheHitRate: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "lawkit_cache_hit_rate",
				Help: "Document cache hit rate (0-1)",
			},
		),
		ValidationIssues: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "lawkit_validation_issues",
				Help: "Validation issues in the most recent check",
			},
		),
		RuleFindings: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "lawkit_rule_findings",
				Help: "Lint rule findings in the most recent check",
			},
		),
	}

	reg.MustRegister(
		m.ParsesTotal,
		m.ParseDuration,
		m.StatutesTotal,
		m.CacheHits,
		m.CacheMisses,
		m.CacheSize,
		m.CacheHitRate,
		m.ValidationIssues,
		m.RuleFindings,
	)

	return m
}

// ObserveParse records one parse attempt.
func (m *Metrics) ObserveParse(d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.ParsesTotal.WithLabelValues(status).Inc()
	m.ParseDuration.Observe(d.Seconds())
}

// ObserveCache publishes a cache stats snapshot.
func (m *Metrics) ObserveCache(stats cache.Stats) {
	m.CacheHits.Set(float64(stats.Hits))
	m.CacheMisses.Set(float64(stats.Misses))
	m.CacheSize.Set(float64(stats.Size))
	m.CacheHitRate.Set(stats.HitRate)
}
