package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics for the compliance engine.
type Metrics struct {
	Checks     *prometheus.CounterVec
	Rejections *prometheus.CounterVec
	HookErrors *prometheus.CounterVec
}

func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Checks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tokengate_compliance_checks_total",
			Help: "Engine-level compliance checks by outcome",
		}, []string{"outcome"}),
		Rejections: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tokengate_compliance_rejections_total",
			Help: "Compliance rejections by module name",
		}, []string{"module"}),
		HookErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tokengate_compliance_hook_errors_total",
			Help: "Lifecycle hook failures by hook",
		}, []string{"hook"}),
	}
}

func (m *Metrics) IncCheck(outcome string) {
	if m != nil {
		m.Checks.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) IncRejection(module string) {
	if m != nil {
		m.Rejections.WithLabelValues(module).Inc()
	}
}

func (m *Metrics) IncHookError(hook string) {
	if m != nil {
		m.HookErrors.WithLabelValues(hook).Inc()
	}
}
