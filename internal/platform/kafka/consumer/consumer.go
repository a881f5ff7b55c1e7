package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Message is a consumed record.
type Message struct {
	Topic     string
	Partition int32
	Offset    int64
	Key       []byte
	Value     []byte
}

// Handler processes one message. Returning an error stops the consumer
// without committing, so the message is redelivered after restart.
type Handler interface {
	Handle(ctx context.Context, msg *Message) error
}

// Consumer reads a set of topics as part of a consumer group and commits
// offsets only after the handler succeeds.
type Consumer struct {
	client  *kgo.Client
	handler Handler
	logger  *slog.Logger
}

// New creates a group consumer.
func New(brokers []string, group string, topics []string, handler Handler, logger *slog.Logger) (*Consumer, error) {
	if handler == nil {
		return nil, fmt.Errorf("handler is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ConsumerGroup(group),
		kgo.ConsumeTopics(topics...),
		kgo.DisableAutoCommit(),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka consumer: %w", err)
	}
	return &Consumer{client: client, handler: handler, logger: logger}, nil
}

// Run polls until ctx is cancelled or the handler fails.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		for _, fe := range fetches.Errors() {
			if errors.Is(fe.Err, context.Canceled) {
				return ctx.Err()
			}
			c.logger.WarnContext(ctx, "kafka fetch error",
				"topic", fe.Topic,
				"partition", fe.Partition,
				"error", fe.Err,
			)
		}

		var handleErr error
		fetches.EachRecord(func(r *kgo.Record) {
			if handleErr != nil {
				return
			}
			msg := &Message{
				Topic:     r.Topic,
				Partition: r.Partition,
				Offset:    r.Offset,
				Key:       r.Key,
				Value:     r.Value,
			}
			if err := c.handler.Handle(ctx, msg); err != nil {
				handleErr = fmt.Errorf("handle %s/%d@%d: %w", r.Topic, r.Partition, r.Offset, err)
				return
			}
			if err := c.client.CommitRecords(ctx, r); err != nil {
				handleErr = fmt.Errorf("commit offset: %w", err)
			}
		})
		if handleErr != nil {
			return handleErr
		}
	}
}

func (c *Consumer) Close() {
	c.client.Close()
}
