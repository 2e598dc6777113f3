package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records registry cache and provider behaviour. A nil *Metrics is a
// valid no-op recorder.
type Metrics struct {
	CacheHits        *prometheus.CounterVec
	CacheMisses      *prometheus.CounterVec
	LookupDuration   *prometheus.HistogramVec
	ProviderFailures *prometheus.CounterVec
	BreakerOpen      *prometheus.GaugeVec
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		CacheHits: f.NewCounterVec(prometheus.CounterOpts{
			Name: "docverify_registry_cache_hits_total",
			Help: "Registry cache hits by record type",
		}, []string{"record_type"}),
		CacheMisses: f.NewCounterVec(prometheus.CounterOpts{
			Name: "docverify_registry_cache_misses_total",
			Help: "Registry cache misses by record type",
		}, []string{"record_type"}),
		LookupDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "docverify_registry_lookup_duration_seconds",
			Help:    "Upstream registry lookup latency by provider",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"provider"}),
		ProviderFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "docverify_registry_provider_failures_total",
			Help: "Failed upstream lookups by provider and error category",
		}, []string{"provider", "category"}),
		BreakerOpen: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "docverify_registry_breaker_open",
			Help: "1 while the provider circuit breaker is open",
		}, []string{"provider"}),
	}
}

func (m *Metrics) RecordCacheHit(recordType string) {
	if m != nil {
		m.CacheHits.WithLabelValues(recordType).Inc()
	}
}

func (m *Metrics) RecordCacheMiss(recordType string) {
	if m != nil {
		m.CacheMisses.WithLabelValues(recordType).Inc()
	}
}

func (m *Metrics) ObserveLookupDuration(provider string, seconds float64) {
	if m != nil {
		m.LookupDuration.WithLabelValues(provider).Observe(seconds)
	}
}

func (m *Metrics) RecordProviderFailure(provider, category string) {
	if m != nil {
		m.ProviderFailures.WithLabelValues(provider, category).Inc()
	}
}

func (m *Metrics) SetBreakerOpen(provider string, open bool) {
	if m == nil {
		return
	}
	v := 0.0
	if open {
		v = 1
	}
	m.BreakerOpen.WithLabelValues(provider).Set(v)
}
