package memory

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"tokengate/pkg/platform/events"
)

// InMemoryStore is an outbox kept in process memory. Used by tests, the
// simulator CLI and servers running without Postgres.
type InMemoryStore struct {
	mu      sync.RWMutex
	records []events.Record
	index   map[uuid.UUID]int
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{index: make(map[uuid.UUID]int)}
}

func (s *InMemoryStore) Append(ctx context.Context, evs ...events.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for _, e := range evs {
		if _, dup := s.index[e.ID]; dup {
			continue
		}
		s.index[e.ID] = len(s.records)
		s.records = append(s.records, events.Record{Event: e, CreatedAt: now})
	}
	return nil
}

// Pending returns unpublished records in append order.
func (s *InMemoryStore) Pending(_ context.Context, limit int) ([]events.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []events.Record
	for _, r := range s.records {
		if r.PublishedAt != nil {
			continue
		}
		out = append(out, r)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *InMemoryStore) MarkPublished(_ context.Context, ids []uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		if i, ok := s.index[id]; ok {
			published := at
			s.records[i].PublishedAt = &published
		}
	}
	return nil
}

// ListByEmitter returns every event emitted by the given contract, oldest first.
func (s *InMemoryStore) ListByEmitter(_ context.Context, emitter common.Address) ([]events.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []events.Event
	for _, r := range s.records {
		if r.Event.Emitter == emitter {
			out = append(out, r.Event)
		}
	}
	return out, nil
}

// All returns every event in append order.
func (s *InMemoryStore) All() []events.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]events.Event, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r.Event)
	}
	return out
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
	s.index = make(map[uuid.UUID]int)
}
