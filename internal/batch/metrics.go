package batch

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects fetch counters on a private registry so tests and
// embedding programs never fight over the global one. A nil *Metrics is
// valid and drops every observation.
type Metrics struct {
	registry       *prometheus.Registry
	fetchesTotal   *prometheus.CounterVec
	fetchDuration  prometheus.Histogram
	retriesTotal   prometheus.Counter
	cacheHitsTotal prometheus.Counter
	batchesTotal   prometheus.Counter
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		fetchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "resultfetch_fetches_total",
			Help: "Fetched identifiers by outcome kind.",
		}, []string{"outcome"}),
		fetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "resultfetch_fetch_duration_seconds",
			Help:    "Time spent resolving a single identifier.",
			Buckets: prometheus.DefBuckets,
		}),
		retriesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "resultfetch_retries_total",
			Help: "Retried fetch attempts.",
		}),
		cacheHitsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "resultfetch_cache_hits_total",
			Help: "Identifiers served from the record cache.",
		}),
		batchesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "resultfetch_batches_total",
			Help: "Batch runs started.",
		}),
	}
	reg.MustRegister(m.fetchesTotal, m.fetchDuration, m.retriesTotal, m.cacheHitsTotal, m.batchesTotal)

	return m
}

// Registry exposes the private registry for an HTTP metrics endpoint.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) FetchInc(outcome string) {
	if m == nil {
		return
	}
	m.fetchesTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveFetchDuration(seconds float64) {
	if m == nil {
		return
	}
	m.fetchDuration.Observe(seconds)
}

func (m *Metrics) RetryInc() {
	if m == nil {
		return
	}
	m.retriesTotal.Inc()
}

func (m *Metrics) CacheHitInc() {
	if m == nil {
		return
	}
	m.cacheHitsTotal.Inc()
}

func (m *Metrics) BatchInc() {
	if m == nil {
		return
	}
	m.batchesTotal.Inc()
}
