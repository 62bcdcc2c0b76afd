package session

import (
	"context"
	"sync"
	"time"

	"invoicebot/internal/invoice/models"
	"invoicebot/pkg/platform/sentinel"
)

// MemoryStore implements Store with an in-process map. Expiry is
// enforced on read; a background sweep is unnecessary at this scale
// because entries are deleted on completion and conversations are
// short-lived.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	data      models.StageOne
	expiresAt time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Put stores stage-one data under id with the given TTL.
func (s *MemoryStore) Put(_ context.Context, id string, data models.StageOne, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[id] = memoryEntry{
		data:      data,
		expiresAt: s.now().Add(ttl),
	}
	return nil
}

// Get returns the stage-one data for id. Expired entries are removed
// and reported as sentinel.ErrExpired.
func (s *MemoryStore) Get(_ context.Context, id string) (models.StageOne, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	if !ok {
		return models.StageOne{}, sentinel.ErrNotFound
	}
	if s.now().After(entry.expiresAt) {
		delete(s.entries, id)
		return models.StageOne{}, sentinel.ErrExpired
	}
	return entry.data, nil
}

// Delete removes the entry for id. Deleting an absent entry is a no-op.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
	return nil
}
