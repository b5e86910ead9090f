// Package lock serializes reservation decisions per association.
package lock

import (
	"context"
	"errors"
	"sync"
)

// ErrNotAcquired is returned when a lock cannot be taken before the context ends.
var ErrNotAcquired = errors.New("lock not acquired")

// Locker grants exclusive access to a key until the returned release is called.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// ApprovalKey is the lock key of all stock-changing decisions in one association.
func ApprovalKey(associationID string) string {
	return "approval:" + associationID
}

// Memory is an in-process keyed mutex. It is enough when a single server
// instance runs against the database.
type Memory struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	ch   chan struct{}
	refs int
}

// NewMemory creates an in-process locker.
func NewMemory() *Memory {
	return &Memory{slots: map[string]*slot{}}
}

// Acquire blocks until key is free or ctx is done.
// PRE: key is non-empty
// POST: On success the caller holds key until release; release is idempotent
func (m *Memory) Acquire(ctx context.Context, key string) (func(), error) {
	m.mu.Lock()
	s, ok := m.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		m.slots[key] = s
	}
	s.refs++
	m.mu.Unlock()

	select {
	case s.ch <- struct{}{}:
	case <-ctx.Done():
		m.unref(key, s)
		return nil, errors.Join(ErrNotAcquired, ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-s.ch
			m.unref(key, s)
		})
	}, nil
}

func (m *Memory) unref(key string, s *slot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(m.slots, key)
	}
}
