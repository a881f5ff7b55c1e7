package consumer

import (
	"context"
	"log/slog"
	"slices"

	"tokengate/internal/platform/kafka/consumer"
)

// TopicHandler handles messages from a specific topic.
type TopicHandler interface {
	Handle(ctx context.Context, msg *consumer.Message) error
}

// Router dispatches messages to topic-specific handlers.
type Router struct {
	handlers map[string]TopicHandler
	fallback TopicHandler
	logger   *slog.Logger
}

// NewRouter creates a topic router with an optional fallback handler.
func NewRouter(logger *slog.Logger, fallback TopicHandler) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		handlers: make(map[string]TopicHandler),
		fallback: fallback,
		logger:   logger,
	}
}

// Register adds a handler for a specific topic.
func (r *Router) Register(topic string, handler TopicHandler) {
	r.handlers[topic] = handler
}

// Topics lists registered topics in sorted order.
func (r *Router) Topics() []string {
	out := make([]string, 0, len(r.handlers))
	for t := range r.handlers {
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}

// Handle routes the message to the appropriate topic handler.
func (r *Router) Handle(ctx context.Context, msg *consumer.Message) error {
	handler, ok := r.handlers[msg.Topic]
	if !ok {
		if r.fallback != nil {
			return r.fallback.Handle(ctx, msg)
		}
		// Committed so an unrouted topic cannot stall the group.
		r.logger.WarnContext(ctx, "no handler for topic, skipping message",
			"topic", msg.Topic,
			"emitter", string(msg.Key),
		)
		return nil
	}
	return handler.Handle(ctx, msg)
}
