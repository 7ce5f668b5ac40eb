// Package lock provides short-lived exclusive leases keyed by name.
//
// A Locker hands out at most one live Lease per key. The lease expires on its
// own after the TTL, so a crashed holder never blocks the key forever.
package lock

import (
	"context"
	"errors"
	"time"
)

// ErrHeld is returned by TryAcquire when another holder owns the key.
var ErrHeld = errors.New("lock: key is held by another owner")

// Lease is a held lock. Release is safe to call more than once and only
// removes the key while this lease still owns it.
type Lease interface {
	Release(ctx context.Context) error
}

// Locker acquires leases without waiting.
type Locker interface {
	TryAcquire(ctx context.Context, key string, ttl time.Duration) (Lease, error)
}
