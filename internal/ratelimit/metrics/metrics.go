package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	QuotaConsumed   *prometheus.CounterVec
	QuotaRejections *prometheus.CounterVec
	StoreErrors     prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		QuotaConsumed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "docverify_quota_consumed_total",
			Help: "Quota units consumed by API key tier",
		}, []string{"tier"}),
		QuotaRejections: f.NewCounterVec(prometheus.CounterOpts{
			Name: "docverify_quota_rejections_total",
			Help: "Requests rejected because the daily quota was exhausted, by tier",
		}, []string{"tier"}),
		StoreErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "docverify_quota_store_errors_total",
			Help: "Quota store failures; requests are let through when the store is unavailable",
		}),
	}
}

func (m *Metrics) IncrementConsumed(tier string, cost int) {
	if m != nil {
		m.QuotaConsumed.WithLabelValues(tier).Add(float64(cost))
	}
}

func (m *Metrics) IncrementRejections(tier string) {
	if m != nil {
		m.QuotaRejections.WithLabelValues(tier).Inc()
	}
}

func (m *Metrics) IncrementStoreErrors() {
	if m != nil {
		m.StoreErrors.Inc()
	}
}
