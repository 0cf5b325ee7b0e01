package lock

import (
	"context"
	"sync"
	"time"
)

// Local is an in-process KeyLocker. It only serialises callers within one
// process; multi-instance deployments use Redis.
type Local struct {
	wait time.Duration

	mu      sync.Mutex
	entries map[string]*localEntry
}

type localEntry struct {
	slot chan struct{}
	refs int
}

// NewLocal builds a Local locker. wait <= 0 means wait until ctx is done.
func NewLocal(wait time.Duration) *Local {
	return &Local{wait: wait, entries: map[string]*localEntry{}}
}

func (l *Local) Lock(ctx context.Context, key string) (Unlock, error) {
	entry := l.acquireEntry(key)

	var timeout <-chan time.Time
	if l.wait > 0 {
		timer := time.NewTimer(l.wait)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case entry.slot <- struct{}{}:
	case <-timeout:
		l.releaseEntry(key)
		return nil, ErrNotAcquired
	case <-ctx.Done():
		l.releaseEntry(key)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-entry.slot
			l.releaseEntry(key)
		})
	}, nil
}

func (l *Local) acquireEntry(key string) *localEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry, ok := l.entries[key]
	if !ok {
		entry = &localEntry{slot: make(chan struct{}, 1)}
		l.entries[key] = entry
	}
	entry.refs++
	return entry
}

func (l *Local) releaseEntry(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry, ok := l.entries[key]
	if !ok {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(l.entries, key)
	}
}

// size reports the number of tracked keys.
func (l *Local) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
