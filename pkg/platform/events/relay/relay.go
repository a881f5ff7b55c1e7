// Package relay moves outbox entries to Kafka. It is the only component that
// reads the outbox; token operations only ever append to it.
package relay

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"tokengate/internal/platform/kafka/producer"
	"tokengate/pkg/platform/circuit"
	"tokengate/pkg/platform/events"
)

// Producer is the Kafka side of the relay.
type Producer interface {
	Produce(ctx context.Context, msgs ...producer.Message) error
}

// Metrics is the subset of metrics the relay records.
type Metrics interface {
	IncRelayed(n int)
	IncRelayFailures()
}

// Worker polls the outbox and produces pending entries in order.
type Worker struct {
	outbox      events.Outbox
	producer    Producer
	topicPrefix string
	interval    time.Duration
	batchSize   int
	breaker     *circuit.Breaker
	logger      *slog.Logger
	metrics     Metrics
}

// Option configures the Worker.
type Option func(*Worker)

func WithInterval(d time.Duration) Option {
	return func(w *Worker) {
		if d > 0 {
			w.interval = d
		}
	}
}

func WithBatchSize(n int) Option {
	return func(w *Worker) {
		if n > 0 {
			w.batchSize = n
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) {
		w.logger = logger
	}
}

func WithMetrics(m Metrics) Option {
	return func(w *Worker) {
		w.metrics = m
	}
}

// WithBreaker replaces the default breaker.
func WithBreaker(b *circuit.Breaker) Option {
	return func(w *Worker) {
		w.breaker = b
	}
}

// New creates a relay worker.
func New(outbox events.Outbox, p Producer, topicPrefix string, opts ...Option) (*Worker, error) {
	if outbox == nil {
		return nil, fmt.Errorf("outbox is required")
	}
	if p == nil {
		return nil, fmt.Errorf("producer is required")
	}
	w := &Worker{
		outbox:      outbox,
		producer:    p,
		topicPrefix: topicPrefix,
		interval:    time.Second,
		batchSize:   100,
		breaker:     circuit.New("event-relay", circuit.WithFailureThreshold(3), circuit.WithSuccessThreshold(1)),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Run relays until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	skip := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			// While open, probe once every few ticks instead of every tick.
			if w.breaker.IsOpen() && skip < 4 {
				skip++
				continue
			}
			skip = 0
			if _, err := w.RelayOnce(ctx); err != nil {
				w.logger.WarnContext(ctx, "event relay cycle failed", "error", err)
			}
		}
	}
}

// RelayOnce produces one batch and marks it published. Returns the number
// of relayed events.
func (w *Worker) RelayOnce(ctx context.Context) (int, error) {
	pending, err := w.outbox.Pending(ctx, w.batchSize)
	if err != nil {
		return 0, fmt.Errorf("load pending events: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	msgs := make([]producer.Message, 0, len(pending))
	ids := make([]uuid.UUID, 0, len(pending))
	for _, rec := range pending {
		value, err := events.Marshal(rec.Event)
		if err != nil {
			return 0, err
		}
		// Keyed by emitter so one contract's events stay in partition order.
		msgs = append(msgs, producer.Message{
			Topic: events.Topic(w.topicPrefix, rec.Event.Type),
			Key:   []byte(rec.Event.Emitter.Hex()),
			Value: value,
		})
		ids = append(ids, rec.Event.ID)
	}

	if err := w.producer.Produce(ctx, msgs...); err != nil {
		if _, change := w.breaker.RecordFailure(); change.Opened {
			w.logger.ErrorContext(ctx, "event relay circuit opened", "error", err)
		}
		if w.metrics != nil {
			w.metrics.IncRelayFailures()
		}
		return 0, err
	}
	if _, change := w.breaker.RecordSuccess(); change.Closed {
		w.logger.InfoContext(ctx, "event relay circuit closed")
	}

	if err := w.outbox.MarkPublished(ctx, ids, time.Now()); err != nil {
		return 0, fmt.Errorf("mark events published: %w", err)
	}
	if w.metrics != nil {
		w.metrics.IncRelayed(len(ids))
	}
	return len(ids), nil
}
