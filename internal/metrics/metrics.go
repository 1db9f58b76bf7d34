// Package metrics exposes Prometheus instrumentation for search and indexing.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// Search request outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeDegraded = "degraded"
	OutcomeInvalid  = "invalid"
	OutcomeError    = "error"
)

// Index item results.
const (
	ItemIndexed = "indexed"
	ItemFailed  = "failed"
)

// Metrics holds the collectors registered by the service.
type Metrics struct {
	SearchRequestsTotal    *prometheus.CounterVec
	SearchLatency          prometheus.Histogram
	SearchZeroResultsTotal prometheus.Counter
	IndexItemsTotal        *prometheus.CounterVec
	IndexRebuildDuration   prometheus.Histogram
}

// New returns the process-wide metrics, registering them on first use.
//
// Metrics:
//   - intranet_search_requests_total{outcome}
//   - intranet_search_latency_seconds
//   - intranet_search_zero_results_total
//   - intranet_index_items_total{result}
//   - intranet_index_rebuild_duration_seconds
func New() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = newMetrics(promauto.With(prometheus.DefaultRegisterer))
	})
	return globalMetrics
}

// NewWithRegistry registers a fresh set of collectors on reg.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	return newMetrics(promauto.With(reg))
}

func newMetrics(factory promauto.Factory) *Metrics {
	return &Metrics{
		SearchRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "intranet_search_requests_total",
				Help: "Total number of search requests by outcome",
			},
			[]string{"outcome"},
		),
		SearchLatency: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "intranet_search_latency_seconds",
				Help:    "End-to-end latency of search requests",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
		),
		SearchZeroResultsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "intranet_search_zero_results_total",
				Help: "Total number of searches that returned no results",
			},
		),
		IndexItemsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "intranet_index_items_total",
				Help: "Total number of items processed by index rebuilds",
			},
			[]string{"result"},
		),
		IndexRebuildDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "intranet_index_rebuild_duration_seconds",
				Help:    "Duration of full search index rebuilds",
				Buckets: prometheus.ExponentialBuckets(1, 2, 10),
			},
		),
	}
}

// ObserveSearch records one search request. A nil receiver is a no-op.
func (m *Metrics) ObserveSearch(outcome string, latency time.Duration, zeroResults bool) {
	if m == nil {
		return
	}
	m.SearchRequestsTotal.WithLabelValues(outcome).Inc()
	m.SearchLatency.Observe(latency.Seconds())
	if zeroResults {
		m.SearchZeroResultsTotal.Inc()
	}
}

// ObserveRebuild records the outcome of one index rebuild.
func (m *Metrics) ObserveRebuild(indexed, failed int, duration time.Duration) {
	if m == nil {
		return
	}
	m.IndexItemsTotal.WithLabelValues(ItemIndexed).Add(float64(indexed))
	m.IndexItemsTotal.WithLabelValues(ItemFailed).Add(float64(failed))
	m.IndexRebuildDuration.Observe(duration.Seconds())
}
