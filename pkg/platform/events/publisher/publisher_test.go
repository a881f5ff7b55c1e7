package publisher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokengate/pkg/platform/events"
	"tokengate/pkg/platform/events/store/memory"
	"tokengate/pkg/requestcontext"
)

type failingOutbox struct{}

func (failingOutbox) Append(context.Context, ...events.Event) error { return errors.New("db down") }
func (failingOutbox) Pending(context.Context, int) ([]events.Record, error) {
	return nil, nil
}
func (failingOutbox) MarkPublished(context.Context, []uuid.UUID, time.Time) error { return nil }

type countingMetrics struct {
	published int
	failures  int
}

func (m *countingMetrics) IncEventsPublished(n int) { m.published += n }
func (m *countingMetrics) IncPersistFailures()      { m.failures++ }

func TestPublisher_StampsAndPersists(t *testing.T) {
	store := memory.NewInMemoryStore()
	metrics := &countingMetrics{}
	pub := New(store, WithMetrics(metrics))

	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), fixed)
	ctx = requestcontext.WithRequestID(ctx, "req-42")

	e := events.New(events.TypeAddressFrozen, common.HexToAddress("0x70"), common.HexToAddress("0xac"))
	require.NoError(t, pub.Publish(ctx, e))

	all := store.All()
	require.Len(t, all, 1)
	assert.Equal(t, fixed, all[0].Timestamp)
	assert.Equal(t, "req-42", all[0].RequestID)
	assert.Equal(t, 1, metrics.published)
}

func TestPublisher_FailClosed(t *testing.T) {
	metrics := &countingMetrics{}
	pub := New(failingOutbox{}, WithMetrics(metrics))

	err := pub.Publish(context.Background(), events.New(events.TypePaused, common.HexToAddress("0x70"), common.Address{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "event persistence failed")
	assert.Equal(t, 1, metrics.failures)
}

func TestPublisher_RejectsUntypedEvents(t *testing.T) {
	pub := New(memory.NewInMemoryStore())
	err := pub.Publish(context.Background(), events.Event{})
	require.Error(t, err)
}

type recordingListener struct{ seen []events.Event }

func (l *recordingListener) Notify(_ context.Context, evs []events.Event) {
	l.seen = append(l.seen, evs...)
}

func TestPublisher_NotifiesListenersAfterWrite(t *testing.T) {
	t.Run("listeners see persisted events", func(t *testing.T) {
		l := &recordingListener{}
		pub := New(memory.NewInMemoryStore(), WithListeners(l))

		require.NoError(t, pub.Publish(context.Background(), events.New(events.TypePaused, common.HexToAddress("0x70"), common.Address{})))
		require.Len(t, l.seen, 1)
		assert.False(t, l.seen[0].Timestamp.IsZero())
	})

	t.Run("failed writes are not announced", func(t *testing.T) {
		l := &recordingListener{}
		pub := New(failingOutbox{}, WithListeners(l))

		require.Error(t, pub.Publish(context.Background(), events.New(events.TypePaused, common.HexToAddress("0x70"), common.Address{})))
		assert.Empty(t, l.seen)
	})
}
