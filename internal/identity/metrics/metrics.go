package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the identity gate.
type Metrics struct {
	// Verification outcomes: verified, unverified, unregistered, error
	Verifications *prometheus.CounterVec

	VerifyLatency prometheus.Histogram

	// Registry mutations by kind: register, delete, update_country, update_identity
	Mutations *prometheus.CounterVec
}

// New registers identity metrics on the default registry.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers identity metrics on reg.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Verifications: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tokengate_identity_verifications_total",
			Help: "Identity verification checks by outcome",
		}, []string{"outcome"}),

		VerifyLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "tokengate_identity_verify_duration_seconds",
			Help:    "Duration of identity verification including claim validation",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}),

		Mutations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tokengate_identity_registry_mutations_total",
			Help: "Identity registry mutations by kind",
		}, []string{"kind"}),
	}
}

func (m *Metrics) IncVerification(outcome string) {
	if m != nil {
		m.Verifications.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) ObserveVerifyLatency(d time.Duration) {
	if m != nil {
		m.VerifyLatency.Observe(d.Seconds())
	}
}

func (m *Metrics) IncMutation(kind string) {
	if m != nil {
		m.Mutations.WithLabelValues(kind).Inc()
	}
}
