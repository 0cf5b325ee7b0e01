// Package lock provides short lived exclusive locks scoped to a string key.
package lock

import (
	"context"
	"errors"
)

// ErrNotAcquired is returned when the lock stays held by someone else for the
// whole wait budget.
var ErrNotAcquired = errors.New("lock not acquired before wait elapsed")

// Unlock releases a held lock. Calling it more than once is a no-op.
type Unlock func()

// KeyLocker serialises callers that share the same key.
type KeyLocker interface {
	Lock(ctx context.Context, key string) (Unlock, error)
}

// Nop never blocks; used when the store's own constraints are the only guard.
type Nop struct{}

func (Nop) Lock(context.Context, string) (Unlock, error) {
	return func() {}, nil
}
