package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is the fallback when no Redis is configured. Tokens survive
// only for the process lifetime, which matches how the original app treated
// sessions.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	data      Remembered
	expiresAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry)}
}

func (s *MemoryStore) Save(ctx context.Context, tokenHash string, data Remembered, expiresAt time.Time) error {
	if data.CreatedAt.IsZero() {
		data.CreatedAt = time.Now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[tokenHash] = memoryEntry{data: data, expiresAt: expiresAt}
	return nil
}

func (s *MemoryStore) Lookup(ctx context.Context, tokenHash string) (Remembered, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[tokenHash]
	if !ok || time.Now().After(entry.expiresAt) {
		delete(s.entries, tokenHash)
		return Remembered{}, ErrNotFound
	}
	return entry.data, nil
}

func (s *MemoryStore) Revoke(ctx context.Context, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, tokenHash)
	return nil
}
