//go:build integration

package relay_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"tokengate/internal/platform/kafka"
	kafkaconsumer "tokengate/internal/platform/kafka/consumer"
	"tokengate/internal/platform/kafka/producer"
	"tokengate/pkg/platform/events"
	eventconsumer "tokengate/pkg/platform/events/consumer"
	"tokengate/pkg/platform/events/relay"
	"tokengate/pkg/platform/events/store/memory"
	"tokengate/pkg/testutil/containers"
)

type channelListener chan events.Event

func (c channelListener) Notify(_ context.Context, evs []events.Event) {
	for _, e := range evs {
		c <- e
	}
}

// Justification: the outbox, relay, broker and consumer only agree on the
// wire format and topic naming at runtime.
func TestRelayRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	brokers := containers.GetManager().GetRedpanda(t).Brokers
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	const prefix = "tokengate.it"
	var topics []string
	for _, c := range events.Categories() {
		topics = append(topics, events.CategoryTopic(prefix, c))
	}
	require.NoError(t, kafka.EnsureTopics(ctx, brokers, 1, 1, topics...))

	bond := common.HexToAddress("0x70c0")
	outbox := memory.NewInMemoryStore()
	sent := []events.Event{
		events.New(events.TypeMintCompleted, bond, common.HexToAddress("0xa6"), events.AttrTo, common.HexToAddress("0xa11ce").Hex(), events.AttrAmount, "10"),
		events.New(events.TypeTokensFrozen, bond, common.HexToAddress("0xa6"), events.AttrHolder, common.HexToAddress("0xa11ce").Hex(), events.AttrAmount, "4"),
	}
	require.NoError(t, outbox.Append(ctx, sent...))

	p, err := producer.New(brokers)
	require.NoError(t, err)
	defer p.Close()
	worker, err := relay.New(outbox, p, prefix, relay.WithLogger(logger))
	require.NoError(t, err)
	n, err := worker.RelayOnce(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	received := make(channelListener, len(sent))
	router := eventconsumer.NewRouter(logger, nil)
	for _, topic := range topics {
		router.Register(topic, eventconsumer.NewEventHandler(received, logger))
	}
	c, err := kafkaconsumer.New(brokers, "tokengate-it", router.Topics(), router, logger)
	require.NoError(t, err)
	defer c.Close()
	go func() { _ = c.Run(ctx) }()

	got := map[events.Type]events.Event{}
	for len(got) < len(sent) {
		select {
		case e := <-received:
			got[e.Type] = e
		case <-ctx.Done():
			t.Fatalf("received %d of %d events", len(got), len(sent))
		}
	}
	for _, e := range sent {
		require.Equal(t, e.ID, got[e.Type].ID)
		require.Equal(t, e.Attributes, got[e.Type].Attributes)
	}

	pending, err := outbox.Pending(ctx, 10)
	require.NoError(t, err)
	require.Empty(t, pending)
}
