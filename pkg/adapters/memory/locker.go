package memory

import (
	"context"
	"sync"
	"time"

	"github.com/aretw0/scribe/pkg/ports"
)

// Locker implements ports.DistributedLocker within a single process.
// Held keys expire after their TTL like their redis counterparts.
type Locker struct {
	mu    sync.Mutex
	held  map[string]lease
	now   func() time.Time
	token uint64
}

type lease struct {
	token   uint64
	expires time.Time
}

// NewLocker creates an in-process locker.
func NewLocker() *Locker {
	return &Locker{
		held: make(map[string]lease),
		now:  time.Now,
	}
}

// TryLock acquires key if it is free or its previous lease has expired.
func (l *Locker) TryLock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.prune(now)
	if _, ok := l.held[key]; ok {
		return nil, false, nil
	}

	l.token++
	token := l.token
	var expires time.Time
	if ttl > 0 {
		expires = now.Add(ttl)
	}
	l.held[key] = lease{token: token, expires: expires}

	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		// Only the holder of this lease may release it.
		if cur, ok := l.held[key]; ok && cur.token == token {
			delete(l.held, key)
		}
		return nil
	}, true, nil
}

// prune drops expired leases. Claims that are never released would otherwise
// accumulate for the life of the process.
func (l *Locker) prune(now time.Time) {
	for key, cur := range l.held {
		if !cur.expires.IsZero() && !now.Before(cur.expires) {
			delete(l.held, key)
		}
	}
}

// Len reports how many leases are currently held.
func (l *Locker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prune(l.now())
	return len(l.held)
}
