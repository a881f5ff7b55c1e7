package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics for the event projection.
type Metrics struct {
	Projected  *prometheus.CounterVec
	Malformed  *prometheus.CounterVec
	Duplicates prometheus.Counter
}

func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Projected: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tokengate_indexer_events_projected_total",
			Help: "Events folded into the read model by type",
		}, []string{"type"}),
		Malformed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tokengate_indexer_events_malformed_total",
			Help: "Events skipped because their attributes could not be parsed",
		}, []string{"type"}),
		Duplicates: f.NewCounter(prometheus.CounterOpts{
			Name: "tokengate_indexer_events_duplicate_total",
			Help: "Redelivered events ignored by the projection",
		}),
	}
}

func (m *Metrics) IncProjected(typ string) {
	if m == nil {
		return
	}
	m.Projected.WithLabelValues(typ).Inc()
}

func (m *Metrics) IncMalformed(typ string) {
	if m == nil {
		return
	}
	m.Malformed.WithLabelValues(typ).Inc()
}

func (m *Metrics) IncDuplicate() {
	if m == nil {
		return
	}
	m.Duplicates.Inc()
}
