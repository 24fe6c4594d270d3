package dispatch

import (
	"context"
	"sync"
	"time"
)

type bucket struct {
	tokens    int
	lastReset time.Time
}

// RateLimiter is a per-actor fixed-window token bucket. Each actor gets capacity
// tokens; once interval has passed since the bucket was last reset it refills completely.
type RateLimiter struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	capacity int
	interval time.Duration
	now      func() time.Time
}

// NewRateLimiter creates a limiter allowing capacity takes per actor per interval.
func NewRateLimiter(capacity int, interval time.Duration) *RateLimiter {
	return &RateLimiter{
		buckets:  make(map[string]*bucket),
		capacity: capacity,
		interval: interval,
		now:      time.Now,
	}
}

// Take consumes one token for actorID and reports whether the actor is limited.
func (rl *RateLimiter) Take(actorID string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	b, ok := rl.buckets[actorID]
	if !ok || now.Sub(b.lastReset) >= rl.interval {
		b = &bucket{tokens: rl.capacity, lastReset: now}
		rl.buckets[actorID] = b
	}
	if b.tokens <= 0 {
		return true
	}
	b.tokens--
	return false
}

// Sweep drops buckets whose window has elapsed; they would be reset on next use anyway.
func (rl *RateLimiter) Sweep() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := rl.now()
	removed := 0
	for id, b := range rl.buckets {
		if now.Sub(b.lastReset) >= rl.interval {
			delete(rl.buckets, id)
			removed++
		}
	}
	return removed
}

// Run sweeps stale buckets every period until ctx is done.
func (rl *RateLimiter) Run(ctx context.Context, period time.Duration) {
	t := time.NewTicker(period)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			rl.Sweep()
		}
	}
}
