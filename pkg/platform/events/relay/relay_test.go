package relay

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/suite"

	"tokengate/internal/platform/kafka/producer"
	"tokengate/pkg/platform/circuit"
	"tokengate/pkg/platform/events"
	"tokengate/pkg/platform/events/store/memory"
)

type fakeProducer struct {
	produced []producer.Message
	fail     bool
}

func (f *fakeProducer) Produce(_ context.Context, msgs ...producer.Message) error {
	if f.fail {
		return errors.New("broker unavailable")
	}
	f.produced = append(f.produced, msgs...)
	return nil
}

type RelaySuite struct {
	suite.Suite
	outbox   *memory.InMemoryStore
	producer *fakeProducer
	worker   *Worker
}

func TestRelaySuite(t *testing.T) {
	suite.Run(t, new(RelaySuite))
}

func (s *RelaySuite) SetupTest() {
	s.outbox = memory.NewInMemoryStore()
	s.producer = &fakeProducer{}
	var err error
	s.worker, err = New(s.outbox, s.producer, "tokengate",
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithBreaker(circuit.New("test", circuit.WithFailureThreshold(2))),
	)
	s.Require().NoError(err)
}

func (s *RelaySuite) TestNew() {
	s.Run("nil outbox returns error", func() {
		_, err := New(nil, s.producer, "p")
		s.ErrorContains(err, "outbox is required")
	})
	s.Run("nil producer returns error", func() {
		_, err := New(s.outbox, nil, "p")
		s.ErrorContains(err, "producer is required")
	})
}

func (s *RelaySuite) TestRelayOnce() {
	ctx := context.Background()
	token := common.HexToAddress("0x70")
	s.Require().NoError(s.outbox.Append(ctx,
		events.New(events.TypeMintCompleted, token, common.Address{}),
		events.New(events.TypeAddressFrozen, token, common.Address{}),
	))

	s.Run("routes by category and marks published", func() {
		n, err := s.worker.RelayOnce(ctx)
		s.Require().NoError(err)
		s.Equal(2, n)
		s.Equal("tokengate.supply", s.producer.produced[0].Topic)
		s.Equal("tokengate.custody", s.producer.produced[1].Topic)

		pending, err := s.outbox.Pending(ctx, 0)
		s.Require().NoError(err)
		s.Empty(pending)
	})

	s.Run("producer failure keeps events pending and opens breaker", func() {
		s.Require().NoError(s.outbox.Append(ctx, events.New(events.TypePaused, token, common.Address{})))
		s.producer.fail = true

		_, err := s.worker.RelayOnce(ctx)
		s.Error(err)
		_, err = s.worker.RelayOnce(ctx)
		s.Error(err)
		s.True(s.worker.breaker.IsOpen())

		pending, err := s.outbox.Pending(ctx, 0)
		s.Require().NoError(err)
		s.Len(pending, 1)
	})
}
