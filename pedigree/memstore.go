package pedigree

import (
	"context"
	"errors"
	"sync"
)

// MemStore keeps the pedigree in memory. It is the default store when no
// database path is configured.
type MemStore struct {
	mu     sync.RWMutex
	births map[string]Record
	order  []string
}

func NewMemStore() *MemStore {
	return &MemStore{births: make(map[string]Record)}
}

func (s *MemStore) AddBirth(_ context.Context, rec Record) error {
	if rec.ID == "" {
		return errors.New("pedigree: birth record has no plant ID")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.births[rec.ID]; !exists {
		s.order = append(s.order, rec.ID)
	}
	s.births[rec.ID] = rec
	return nil
}

func (s *MemStore) Parents(_ context.Context, id string) (Record, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.births[id]
	return rec, ok, nil
}

func (s *MemStore) Records(_ context.Context) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Record, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.births[id])
	}
	return out, nil
}

func (s *MemStore) Close() error {
	return nil
}
