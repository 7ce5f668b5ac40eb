package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry[V any] struct {
	value     V
	expiresAt time.Time
}

// Memory is a process-local cache. Expired entries are dropped lazily on read.
type Memory[V any] struct {
	mu         sync.Mutex
	items      map[string]memoryEntry[V]
	defaultTTL time.Duration
	now        func() time.Time
}

// NewMemory creates an in-memory cache with the given default TTL.
func NewMemory[V any](defaultTTL time.Duration) *Memory[V] {
	return &Memory[V]{
		items:      make(map[string]memoryEntry[V]),
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
}

// Get implements Cache.
func (m *Memory[V]) Get(_ context.Context, key string) (V, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.items[key]
	if !ok || (!e.expiresAt.IsZero() && m.now().After(e.expiresAt)) {
		delete(m.items, key)
		var zero V
		return zero, ErrNotFound
	}
	return e.value, nil
}

// Set implements Cache.
func (m *Memory[V]) Set(_ context.Context, key string, value V, ttl time.Duration) error {
	if ttl == 0 {
		ttl = m.defaultTTL
	}

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = m.now().Add(ttl)
	}

	m.mu.Lock()
	m.items[key] = memoryEntry[V]{value: value, expiresAt: expiresAt}
	m.mu.Unlock()
	return nil
}

// Delete implements Cache.
func (m *Memory[V]) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.items, key)
	m.mu.Unlock()
	return nil
}

var _ Cache[any] = (*Memory[any])(nil)
