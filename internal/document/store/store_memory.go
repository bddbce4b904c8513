package store

import (
	"context"
	"sync"

	"passport-cri/internal/document/models"
)

// MemoryStore is an in-memory Store for development and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	results map[string]models.DocumentCheckResult
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		results: make(map[string]models.DocumentCheckResult),
	}
}

func (s *MemoryStore) Put(_ context.Context, sessionID string, result models.DocumentCheckResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[sessionID] = result
	return nil
}

func (s *MemoryStore) Get(_ context.Context, sessionID string) (*models.DocumentCheckResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result, ok := s.results[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	return &result, nil
}

var _ Store = (*MemoryStore)(nil)
