package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"tokengate/pkg/platform/sentinel"
)

type stored struct {
	sequence uint64
	raw      []byte
}

// InMemory keeps encoded snapshots so callers never share pointers with the store.
type InMemory struct {
	mu    sync.RWMutex
	snaps map[common.Address]stored
}

func NewInMemory() *InMemory {
	return &InMemory{snaps: make(map[common.Address]stored)}
}

func (s *InMemory) Save(_ context.Context, snap *Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.snaps[snap.Token]; ok && prev.sequence >= snap.Sequence {
		return fmt.Errorf("save snapshot sequence %d: %w", snap.Sequence, sentinel.ErrConflict)
	}
	s.snaps[snap.Token] = stored{sequence: snap.Sequence, raw: raw}
	return nil
}

func (s *InMemory) Load(_ context.Context, token common.Address) (*Snapshot, error) {
	s.mu.RLock()
	st, ok := s.snaps[token]
	s.mu.RUnlock()
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return decode(st.raw)
}

func (s *InMemory) List(_ context.Context) ([]common.Address, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]common.Address, 0, len(s.snaps))
	for a := range s.snaps {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Cmp(out[j]) < 0 })
	return out, nil
}

func decode(raw []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.Version != SchemaVersion {
		return nil, fmt.Errorf("snapshot schema version %d: %w", snap.Version, sentinel.ErrInvalidState)
	}
	return &snap, nil
}
