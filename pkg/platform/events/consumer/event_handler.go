package consumer

import (
	"context"
	"log/slog"

	"tokengate/internal/platform/kafka/consumer"
	"tokengate/pkg/platform/events"
)

// EventHandler decodes the event envelope and hands it to a listener.
// Malformed payloads are logged and committed so they cannot block a partition.
type EventHandler struct {
	listener events.Listener
	logger   *slog.Logger
}

// NewEventHandler creates a decoding handler.
func NewEventHandler(listener events.Listener, logger *slog.Logger) *EventHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventHandler{listener: listener, logger: logger}
}

// Handle processes a token event message.
func (h *EventHandler) Handle(ctx context.Context, msg *consumer.Message) error {
	e, err := events.Unmarshal(msg.Value)
	if err != nil {
		h.logger.ErrorContext(ctx, "CRITICAL: failed to decode token event",
			"topic", msg.Topic,
			"key", string(msg.Key),
			"error", err,
		)
		return nil
	}
	h.listener.Notify(ctx, []events.Event{e})
	return nil
}
