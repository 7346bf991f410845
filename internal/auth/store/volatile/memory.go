package volatile

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process Store used in tests and single-node dev setups.
// Expired entries are dropped lazily on Find and in bulk by PurgeExpired,
// which the housekeeping worker calls on a ticker.
type Memory[V any] struct {
	mu      sync.Mutex
	entries map[string]memoryEntry[V]
	now     func() time.Time
}

type memoryEntry[V any] struct {
	val       V
	expiresAt time.Time
}

// NewMemory returns an empty in-process store.
func NewMemory[V any]() *Memory[V] {
	return &Memory[V]{
		entries: make(map[string]memoryEntry[V]),
		now:     time.Now,
	}
}

// Create implements Store.
func (m *Memory[V]) Create(_ context.Context, key string, val V, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = memoryEntry[V]{
		val:       val,
		expiresAt: m.now().Add(ttl),
	}
	return nil
}

// Find implements Store.
func (m *Memory[V]) Find(_ context.Context, key string) (V, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		var zero V
		return zero, false, nil
	}
	if !m.now().Before(entry.expiresAt) {
		delete(m.entries, key)
		var zero V
		return zero, false, nil
	}
	return entry.val, true, nil
}

// Revoke implements Store.
func (m *Memory[V]) Revoke(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, key)
	return nil
}

// PurgeExpired drops every entry past its expiry and reports how many were
// removed.
func (m *Memory[V]) PurgeExpired() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	purged := 0
	for key, entry := range m.entries {
		if !now.Before(entry.expiresAt) {
			delete(m.entries, key)
			purged++
		}
	}
	return purged
}

// Len reports the number of live entries, expired ones included until they
// are purged.
func (m *Memory[V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
