package producer

import (
	"context"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Message is a record to produce.
type Message struct {
	Topic string
	Key   []byte
	Value []byte
}

// Producer produces records synchronously.
type Producer struct {
	client *kgo.Client
}

// New creates a producer against the given brokers.
func New(brokers []string, opts ...kgo.Opt) (*Producer, error) {
	all := append([]kgo.Opt{
		kgo.SeedBrokers(brokers...),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	}, opts...)
	client, err := kgo.NewClient(all...)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return &Producer{client: client}, nil
}

// Produce writes every message and waits for acknowledgement.
func (p *Producer) Produce(ctx context.Context, msgs ...Message) error {
	records := make([]*kgo.Record, 0, len(msgs))
	for _, m := range msgs {
		records = append(records, &kgo.Record{Topic: m.Topic, Key: m.Key, Value: m.Value})
	}
	if err := p.client.ProduceSync(ctx, records...).FirstErr(); err != nil {
		return fmt.Errorf("produce records: %w", err)
	}
	return nil
}

// Ping checks broker connectivity.
func (p *Producer) Ping(ctx context.Context) error {
	return p.client.Ping(ctx)
}

func (p *Producer) Close() {
	p.client.Close()
}
