package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics for token operations.
type Metrics struct {
	Operations      *prometheus.CounterVec
	OperationLength *prometheus.HistogramVec
	PersistFailures prometheus.Counter
	EventsPublished prometheus.Counter
	EventsRelayed   prometheus.Counter
	RelayFailures   prometheus.Counter
}

func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Operations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tokengate_token_operations_total",
			Help: "Token operations by operation and outcome",
		}, []string{"operation", "outcome"}),
		OperationLength: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tokengate_token_operation_duration_seconds",
			Help:    "Token operation latency including persistence",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		PersistFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "tokengate_event_persist_failures_total",
			Help: "Outbox writes that failed and aborted an operation",
		}),
		EventsPublished: f.NewCounter(prometheus.CounterOpts{
			Name: "tokengate_events_published_total",
			Help: "Events written to the outbox",
		}),
		EventsRelayed: f.NewCounter(prometheus.CounterOpts{
			Name: "tokengate_events_relayed_total",
			Help: "Outbox events forwarded to the broker",
		}),
		RelayFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "tokengate_event_relay_failures_total",
			Help: "Outbox relay batches that failed",
		}),
	}
}

func (m *Metrics) ObserveOperation(op, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.Operations.WithLabelValues(op, outcome).Inc()
	m.OperationLength.WithLabelValues(op).Observe(d.Seconds())
}

// IncEventsPublished implements publisher.Metrics.
func (m *Metrics) IncEventsPublished(n int) {
	if m != nil {
		m.EventsPublished.Add(float64(n))
	}
}

// IncPersistFailures implements publisher.Metrics.
func (m *Metrics) IncPersistFailures() {
	if m != nil {
		m.PersistFailures.Inc()
	}
}

// IncRelayed implements relay.Metrics.
func (m *Metrics) IncRelayed(n int) {
	if m != nil {
		m.EventsRelayed.Add(float64(n))
	}
}

// IncRelayFailures implements relay.Metrics.
func (m *Metrics) IncRelayFailures() {
	if m != nil {
		m.RelayFailures.Inc()
	}
}
