package progress

import (
	"context"
	"sync"
)

// MemoryStore keeps records in process memory. Default backend for embedded
// sessions and the fake used in tests.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: map[string]string{}}
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.records[key]
	return value, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[key] = value
	return nil
}

func (s *MemoryStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, key)
	return nil
}
