package lock

import (
	"context"
	"sync"
	"time"
)

// Memory implements Locker inside a single process.
type Memory struct {
	mu    sync.Mutex
	held  map[string]memoryHold
	seq   uint64
	clock func() time.Time
}

type memoryHold struct {
	id        uint64
	expiresAt time.Time
}

// NewMemory creates an in-process locker.
func NewMemory() *Memory {
	return &Memory{held: make(map[string]memoryHold), clock: time.Now}
}

// TryAcquire implements Locker.
func (m *Memory) TryAcquire(_ context.Context, key string, ttl time.Duration) (Lease, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock()
	if h, ok := m.held[key]; ok && now.Before(h.expiresAt) {
		return nil, ErrHeld
	}

	m.seq++
	m.held[key] = memoryHold{id: m.seq, expiresAt: now.Add(ttl)}
	return &memoryLease{owner: m, key: key, id: m.seq}, nil
}

type memoryLease struct {
	owner *Memory
	key   string
	id    uint64
}

func (l *memoryLease) Release(context.Context) error {
	l.owner.mu.Lock()
	defer l.owner.mu.Unlock()

	if h, ok := l.owner.held[l.key]; ok && h.id == l.id {
		delete(l.owner.held, l.key)
	}
	return nil
}

var _ Locker = (*Memory)(nil)
