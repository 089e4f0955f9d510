// Package metrics counts fetch and store activity and writes it to a node-exporter textfile.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder holds the Prometheus collectors of one process. A nil *Recorder is a no-op.
type Recorder struct {
	registry      *prometheus.Registry
	fetchAttempts *prometheus.CounterVec
	fetchLatency  *prometheus.HistogramVec
	appended      *prometheus.CounterVec
	lastRate      *prometheus.GaugeVec
}

// New creates a Recorder with its own registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Recorder{
		registry: reg,
		fetchAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ratesentinel",
				Name:      "fetch_attempts_total",
				Help:      "Source fetch attempts by outcome",
			},
			[]string{"source", "kind", "outcome"},
		),
		fetchLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "ratesentinel",
				Name:      "fetch_duration_seconds",
				Help:      "Duration of source fetch attempts",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"source"},
		),
		appended: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ratesentinel",
				Name:      "observations_appended_total",
				Help:      "Observations appended to the store",
			},
			[]string{"source"},
		),
		lastRate: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "ratesentinel",
				Name:      "last_rate",
				Help:      "Most recently fetched rate",
			},
			[]string{"pair", "source"},
		),
	}
}

// RecordFetch counts one attempt. kind is "current" or "history", outcome "ok" or "error".
func (r *Recorder) RecordFetch(source, kind, outcome string, seconds float64) {
	if r == nil {
		return
	}
	r.fetchAttempts.WithLabelValues(source, kind, outcome).Inc()
	r.fetchLatency.WithLabelValues(source).Observe(seconds)
}

// RecordAppended counts observations written to the store.
func (r *Recorder) RecordAppended(source string, n int) {
	if r == nil || n <= 0 {
		return
	}
	r.appended.WithLabelValues(source).Add(float64(n))
}

// RecordLastRate sets the gauge for the latest rate of a pair.
func (r *Recorder) RecordLastRate(pair, source string, rate float64) {
	if r == nil {
		return
	}
	r.lastRate.WithLabelValues(pair, source).Set(rate)
}

// Gatherer exposes the registry, mainly for tests.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteTextfile atomically writes all metrics in text format to path.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
