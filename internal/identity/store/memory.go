package store

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"tokengate/internal/identity/models"
	"tokengate/pkg/platform/sentinel"
)

// InMemory keeps entries in a map guarded by a RWMutex.
type InMemory struct {
	mu      sync.RWMutex
	entries map[common.Address]models.Entry
}

func NewInMemory() *InMemory {
	return &InMemory{entries: make(map[common.Address]models.Entry)}
}

func (s *InMemory) Get(_ context.Context, wallet common.Address) (*models.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[wallet]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &e, nil
}

func (s *InMemory) Save(_ context.Context, entry *models.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.Wallet] = *entry
	return nil
}

func (s *InMemory) Delete(_ context.Context, wallet common.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[wallet]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.entries, wallet)
	return nil
}
