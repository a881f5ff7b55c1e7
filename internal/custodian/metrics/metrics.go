package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics for custodian actions.
type Metrics struct {
	Actions *prometheus.CounterVec
	Thawed  prometheus.Counter
}

func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Actions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tokengate_custodian_actions_total",
			Help: "Custodian actions by kind",
		}, []string{"action"}),
		Thawed: f.NewCounter(prometheus.CounterOpts{
			Name: "tokengate_custodian_auto_thaws_total",
			Help: "Forced transfers and burns that thawed frozen tokens",
		}),
	}
}

func (m *Metrics) IncAction(action string) {
	if m != nil {
		m.Actions.WithLabelValues(action).Inc()
	}
}

func (m *Metrics) IncThaw() {
	if m != nil {
		m.Thawed.Inc()
	}
}
