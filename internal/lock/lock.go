// Package lock provides advisory, expiring locks. A lock that is never
// released frees itself once its TTL passes.
package lock

import (
	"context"
	"sync"
	"time"
)

// Locker acquires and releases named advisory locks.
type Locker interface {
	// Acquire takes the lock if nobody holds it. It reports false, without
	// error, when the lock is held elsewhere.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// Memory is an in-process Locker.
type Memory struct {
	mu    sync.Mutex
	held  map[string]time.Time
	clock func() time.Time
}

func NewMemory() *Memory {
	return &Memory{held: make(map[string]time.Time), clock: time.Now}
}

func (m *Memory) Acquire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock()
	if exp, ok := m.held[key]; ok && now.Before(exp) {
		return false, nil
	}
	m.held[key] = now.Add(ttl)
	return true, nil
}

func (m *Memory) Release(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.held, key)
	m.mu.Unlock()
	return nil
}
