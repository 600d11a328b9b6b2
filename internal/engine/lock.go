package engine

import (
	"context"
	"fmt"
	"sync"
)

// Locker serializes runs of the same strategy.
// Lock blocks until the named lock is held or ctx is done; the returned func releases it.
type Locker interface {
	Lock(ctx context.Context, name string) (func(), error)
}

// LocalLocker is an in-process Locker with one slot per name
type LocalLocker struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

// NewLocalLocker creates a LocalLocker
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{slots: make(map[string]chan struct{})}
}

func (l *LocalLocker) slot(name string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, ok := l.slots[name]
	if !ok {
		s = make(chan struct{}, 1)
		l.slots[name] = s
	}
	return s
}

// Lock implements Locker
func (l *LocalLocker) Lock(ctx context.Context, name string) (func(), error) {
	s := l.slot(name)

	select {
	case s <- struct{}{}:
	default:
		select {
		case s <- struct{}{}:
		case <-ctx.Done():
			return nil, fmt.Errorf("lock %s not acquired: %w", name, ctx.Err())
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() { <-s })
	}, nil
}
