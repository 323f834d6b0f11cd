// internal/querycache/memory.go
package querycache

import (
	"context"
	"sync"
	"time"

	"analytics-workers/internal/models"
)

type memoryEntry struct {
	rs        *models.ResultSet
	expiresAt time.Time
}

// MemoryStore is the default in-process backend: a mutex-guarded map
// with lazy expiry. Expired entries are dropped on the read path and
// swept opportunistically on writes.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	nowFn   func() time.Time
}

// NewMemoryStore builds an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		nowFn:   time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) (*models.ResultSet, bool, error) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if s.nowFn().After(entry.expiresAt) {
		s.mu.Lock()
		// Re-check under the write lock: a fresher entry may have
		// landed between the two lock acquisitions.
		if cur, ok := s.entries[key]; ok && s.nowFn().After(cur.expiresAt) {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		return nil, false, nil
	}
	return entry.rs, true, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, rs *models.ResultSet, ttl time.Duration) error {
	now := s.nowFn()
	s.mu.Lock()
	defer s.mu.Unlock()

	for k, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, k)
		}
	}
	s.entries[key] = memoryEntry{rs: rs, expiresAt: now.Add(ttl)}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// Len reports the number of stored entries, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
