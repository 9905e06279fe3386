package lock

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store used by tests and local
// development when no Redis is available.  Expiry is checked
// lazily on access, which is enough to honor the Store contract:
// an expired key behaves exactly like an absent one.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry)}
}

// SetIfAbsent sets key to value with the given TTL when no live
// entry exists.  The check and the write happen under one mutex
// hold, mirroring the atomicity of the Redis script.
func (s *MemoryStore) SetIfAbsent(_ context.Context, key, value string, ttl time.Duration) (bool, error) {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[key]; ok && e.expiresAt.After(now) {
		return false, nil
	}
	s.entries[key] = memoryEntry{value: value, expiresAt: now.Add(ttl)}
	return true, nil
}

// Delete removes the given keys.  Absent keys are ignored.
func (s *MemoryStore) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.entries, k)
	}
	return nil
}

// Len reports the number of live entries.  Expired entries are
// purged as a side effect so tests can assert on leak behavior.
func (s *MemoryStore) Len() int {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, e := range s.entries {
		if !e.expiresAt.After(now) {
			delete(s.entries, k)
		}
	}
	return len(s.entries)
}
