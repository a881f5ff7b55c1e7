package consumer

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokengate/internal/platform/kafka/consumer"
	"tokengate/pkg/platform/events"
)

type recordingListener struct {
	got []events.Event
}

func (l *recordingListener) Notify(_ context.Context, evs []events.Event) {
	l.got = append(l.got, evs...)
}

func TestRouter_DispatchesByTopic(t *testing.T) {
	custody := &recordingListener{}
	fallback := &recordingListener{}
	router := NewRouter(nil, NewEventHandler(fallback, nil))
	router.Register("tokengate.custody", NewEventHandler(custody, nil))

	frozen := events.New(events.TypeAddressFrozen, common.HexToAddress("0x70"), common.Address{})
	payload, err := events.Marshal(frozen)
	require.NoError(t, err)

	require.NoError(t, router.Handle(context.Background(), &consumer.Message{Topic: "tokengate.custody", Value: payload}))
	require.NoError(t, router.Handle(context.Background(), &consumer.Message{Topic: "tokengate.supply", Value: payload}))

	require.Len(t, custody.got, 1)
	assert.Equal(t, frozen.ID, custody.got[0].ID)
	assert.Len(t, fallback.got, 1)
}

func TestRouter_SkipsUnknownTopicWithoutFallback(t *testing.T) {
	router := NewRouter(nil, nil)
	err := router.Handle(context.Background(), &consumer.Message{Topic: "elsewhere"})
	assert.NoError(t, err)
}

func TestEventHandler_CommitsMalformedPayloads(t *testing.T) {
	l := &recordingListener{}
	h := NewEventHandler(l, nil)
	err := h.Handle(context.Background(), &consumer.Message{Topic: "t", Value: []byte("{")})
	assert.NoError(t, err)
	assert.Empty(t, l.got)
}
