package ports

import (
	"context"
	"time"
)

// UnlockFunc is a function that releases a distributed lock.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker defines the interface for distributed concurrency control.
// It lets the session manager claim a triggering message across replicas.
type DistributedLocker interface {
	// TryLock attempts to acquire the lock for key once, without waiting.
	// It returns acquired == false when another holder owns the key.
	// The lock expires after ttl even if the UnlockFunc is never called.
	TryLock(ctx context.Context, key string, ttl time.Duration) (unlock UnlockFunc, acquired bool, err error)
}
