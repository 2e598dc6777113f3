package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the verification module.
type Metrics struct {
	// Verifications by identifier kind and outcome (valid, invalid)
	Verifications *prometheus.CounterVec

	// Enrichment attempts by source (company, vies) and status
	Enrichments *prometheus.CounterVec

	BatchSize prometheus.Histogram
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Verifications: f.NewCounterVec(prometheus.CounterOpts{
			Name: "docverify_verifications_total",
			Help: "Identifier verifications by kind and outcome",
		}, []string{"kind", "outcome"}),
		Enrichments: f.NewCounterVec(prometheus.CounterOpts{
			Name: "docverify_enrichments_total",
			Help: "Registry enrichment outcomes by source and status",
		}, []string{"source", "status"}),
		BatchSize: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "docverify_batch_size",
			Help:    "Number of items per batch verification",
			Buckets: []float64{1, 5, 10, 25, 50, 100},
		}),
	}
}

func (m *Metrics) RecordVerification(kind string, valid bool) {
	if m == nil {
		return
	}
	outcome := "invalid"
	if valid {
		outcome = "valid"
	}
	m.Verifications.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) RecordEnrichment(source, status string) {
	if m != nil {
		m.Enrichments.WithLabelValues(source, status).Inc()
	}
}

func (m *Metrics) ObserveBatchSize(n int) {
	if m != nil {
		m.BatchSize.Observe(float64(n))
	}
}
