package limiter

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter keeps a sliding window of attempt timestamps per key.
type MemoryLimiter struct {
	mu        sync.Mutex
	limit     int
	window    time.Duration
	now       func() time.Time
	attempts  map[string][]time.Time
	lastPrune time.Time
}

func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		limit:    limit,
		window:   window,
		now:      time.Now,
		attempts: make(map[string][]time.Time),
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)

	if now.Sub(l.lastPrune) >= l.window {
		l.prune(cutoff)
		l.lastPrune = now
	}

	kept := l.attempts[key][:0]
	for _, at := range l.attempts[key] {
		if at.After(cutoff) {
			kept = append(kept, at)
		}
	}
	kept = append(kept, now)
	l.attempts[key] = kept

	return len(kept) <= l.limit, nil
}

// prune drops keys whose newest attempt is no longer inside the window.
func (l *MemoryLimiter) prune(cutoff time.Time) {
	for key, at := range l.attempts {
		if len(at) == 0 || !at[len(at)-1].After(cutoff) {
			delete(l.attempts, key)
		}
	}
}

// Len returns the number of keys currently tracked.
func (l *MemoryLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.attempts)
}
