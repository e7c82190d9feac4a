package observe

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for the tracker service.
type Metrics struct {
	FeedFetches   *prometheus.CounterVec // labels: outcome={success,error}
	FetchDuration prometheus.Histogram
	CacheLookups  *prometheus.CounterVec // labels: result={hit,miss}
	StateVectors  prometheus.Gauge

	EpochLookups *prometheus.CounterVec // labels: outcome={found,not_found}

	GeocodeRequests *prometheus.CounterVec // labels: outcome={success,empty,error}
	GeocodeCache    *prometheus.CounterVec // labels: result={hit,miss}
}

func newMetrics() *Metrics {
	return &Metrics{
		FeedFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "iss_tracker",
			Name:      "feed_fetches_total",
			Help:      "Ephemeris feed downloads by outcome.",
		}, []string{"outcome"}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "iss_tracker",
			Name:      "feed_fetch_duration_seconds",
			Help:      "Duration of a full download-and-parse of the feed.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "iss_tracker",
			Name:      "cache_lookups_total",
			Help:      "Dataset blob cache lookups by result.",
		}, []string{"result"}),
		StateVectors: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "iss_tracker",
			Name:      "state_vectors",
			Help:      "State vectors in the most recently fetched dataset.",
		}),
		EpochLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "iss_tracker",
			Name:      "epoch_lookups_total",
			Help:      "Single-epoch lookups by outcome.",
		}, []string{"outcome"}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "iss_tracker",
			Name:      "geocode_requests_total",
			Help:      "Reverse-geocoding API requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "iss_tracker",
			Name:      "geocode_cache_total",
			Help:      "Reverse-geocoding cache lookups by result.",
		}, []string{"result"}),
	}
}

// NewMetrics creates the collectors and registers them with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.FeedFetches,
		m.FetchDuration,
		m.CacheLookups,
		m.StateVectors,
		m.EpochLookups,
		m.GeocodeRequests,
		m.GeocodeCache,
	)
	return m
}

// NewMetricsForTesting creates unregistered collectors to avoid "already
// registered" panics across tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
