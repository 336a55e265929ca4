package store

import (
	"context"
	"sort"
	"sync"

	"github.com/uvlkit/uvlkit/pkg/errors"
)

// MemoryStore keeps models in process memory. Safe for concurrent use.
type MemoryStore struct {
	mu     sync.RWMutex
	models map[string]Model
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{models: make(map[string]Model)}
}

// Put stores a model.
func (s *MemoryStore) Put(ctx context.Context, m Model) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.models[m.ID] = m
	return nil
}

// Get retrieves a model by id.
func (s *MemoryStore) Get(ctx context.Context, id string) (Model, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.models[id]
	if !ok {
		return Model{}, errors.New(errors.ErrCodeNotFound, "model %q not found", id)
	}
	return m, nil
}

// List returns all models ordered by creation time, then id.
func (s *MemoryStore) List(ctx context.Context) ([]Model, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Model, 0, len(s.models))
	for _, m := range s.models {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Delete removes a model by id.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.models[id]; !ok {
		return errors.New(errors.ErrCodeNotFound, "model %q not found", id)
	}
	delete(s.models, id)
	return nil
}

// Close does nothing for the memory backend.
func (s *MemoryStore) Close(ctx context.Context) error { return nil }

var _ Store = (*MemoryStore)(nil)
