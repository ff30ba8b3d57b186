// Package dedup provides an in-process, time-boxed idempotency guard. It
// collapses near-simultaneous duplicate creation requests into one logical
// operation: the first caller acquires the key, later callers are rejected
// until the key expires. State is not shared across processes and resets on
// restart; this is not a distributed lock.
package dedup

import (
	"sync"
	"time"
)

// Guard holds keys until their TTL elapses.
type Guard struct {
	mu   sync.Mutex
	held map[string]time.Time // key -> expiry

	now func() time.Time // test hook
}

// NewGuard returns an empty Guard.
func NewGuard() *Guard {
	return &Guard{
		held: make(map[string]time.Time),
		now:  time.Now,
	}
}

// TryAcquire marks key busy for ttl and returns true, or returns false if the
// key is already held. Expiry is lazy: an expired key is reclaimed by the next
// acquirer even if the original holder never released it, which bounds the
// damage of a crashed or hung holder.
func (g *Guard) TryAcquire(key string, ttl time.Duration) bool {
	now := g.now()

	g.mu.Lock()
	defer g.mu.Unlock()

	if expiry, ok := g.held[key]; ok && now.Before(expiry) {
		return false
	}
	g.held[key] = now.Add(ttl)

	// Opportunistic sweep so abandoned keys do not accumulate between restarts.
	if len(g.held) > 1024 {
		for k, exp := range g.held {
			if now.After(exp) {
				delete(g.held, k)
			}
		}
	}
	return true
}

// Release frees key before its TTL elapses. Releasing an unheld key is a no-op.
func (g *Guard) Release(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.held, key)
}

// Len returns the number of keys currently tracked, expired or not.
func (g *Guard) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.held)
}
