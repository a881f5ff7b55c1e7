// Package publisher writes token events to the outbox with fail-closed
// semantics: if the outbox write fails, the calling operation must fail.
package publisher

import (
	"context"
	"fmt"
	"log/slog"

	"tokengate/pkg/platform/events"
	"tokengate/pkg/requestcontext"
)

// Metrics is the subset of metrics the publisher records.
type Metrics interface {
	IncEventsPublished(n int)
	IncPersistFailures()
}

// Publisher emits events synchronously to an outbox.
type Publisher struct {
	outbox    events.Outbox
	logger    *slog.Logger
	metrics   Metrics
	listeners []events.Listener
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithLogger sets a logger for error reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m Metrics) Option {
	return func(p *Publisher) {
		p.metrics = m
	}
}

// WithListeners notifies ls after every successful outbox write. Only use
// it for emitters whose writes are already final when they publish.
func WithListeners(ls ...events.Listener) Option {
	return func(p *Publisher) {
		p.listeners = append(p.listeners, ls...)
	}
}

// New creates an outbox publisher.
func New(outbox events.Outbox, opts ...Option) *Publisher {
	p := &Publisher{outbox: outbox}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish stamps and persists events. Timestamp and request ID default to
// the request-scoped values.
func (p *Publisher) Publish(ctx context.Context, evs ...events.Event) error {
	if len(evs) == 0 {
		return nil
	}
	now := requestcontext.Now(ctx)
	requestID := requestcontext.RequestID(ctx)
	for i := range evs {
		if evs[i].Type == "" {
			return fmt.Errorf("event requires Type")
		}
		if evs[i].Timestamp.IsZero() {
			evs[i].Timestamp = now
		}
		if evs[i].RequestID == "" {
			evs[i].RequestID = requestID
		}
	}

	if err := p.outbox.Append(ctx, evs...); err != nil {
		if p.metrics != nil {
			p.metrics.IncPersistFailures()
		}
		if p.logger != nil {
			p.logger.ErrorContext(ctx, "event outbox write failed",
				"count", len(evs),
				"first_type", string(evs[0].Type),
				"error", err,
			)
		}
		return fmt.Errorf("event persistence failed: %w", err)
	}

	if p.metrics != nil {
		p.metrics.IncEventsPublished(len(evs))
	}
	for _, l := range p.listeners {
		l.Notify(ctx, evs)
	}
	return nil
}
