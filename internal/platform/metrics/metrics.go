// Package metrics exposes Prometheus collectors for lookups and their sources.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the lookup collectors. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	// Per-source query latency
	SourceLatency *prometheus.HistogramVec

	// Per-source outcomes: "ok" or an error kind
	SourceOutcome *prometheus.CounterVec

	// Full lookup latency including hosting classification
	LookupLatency prometheus.Histogram

	// Reliability level of finished lookups
	ReliabilityLevel *prometheus.CounterVec
}

// New registers the collectors on reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		SourceLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "abuse_rec_source_duration_seconds",
			Help:    "Duration of registration-data queries by source",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 17},
		}, []string{"source"}),

		SourceOutcome: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "abuse_rec_source_outcomes_total",
			Help: "Source query outcomes by source and outcome",
		}, []string{"source", "outcome"}),

		LookupLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "abuse_rec_lookup_duration_seconds",
			Help:    "Duration of full domain lookups",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 40},
		}),

		ReliabilityLevel: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "abuse_rec_reliability_level_total",
			Help: "Finished lookups by reliability level",
		}, []string{"level"}),
	}
}

// ObserveSource records one source query.
func (m *Metrics) ObserveSource(source, outcome string, d time.Duration) {
	if m != nil {
		m.SourceLatency.WithLabelValues(source).Observe(d.Seconds())
		m.SourceOutcome.WithLabelValues(source, outcome).Inc()
	}
}

// ObserveLookup records a finished lookup.
func (m *Metrics) ObserveLookup(level string, d time.Duration) {
	if m != nil {
		m.LookupLatency.Observe(d.Seconds())
		m.ReliabilityLevel.WithLabelValues(level).Inc()
	}
}
