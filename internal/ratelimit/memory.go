package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter allows limit hits per key in each window.
type MemoryLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	now     func() time.Time
	buckets map[string]*bucket
}

type bucket struct {
	count     int
	windowEnd time.Time
}

func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		limit:   limit,
		window:  window,
		now:     time.Now,
		buckets: make(map[string]*bucket),
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Decision, error) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok || !now.Before(b.windowEnd) {
		l.sweep(now)
		l.buckets[key] = &bucket{count: 1, windowEnd: now.Add(l.window)}
		return Decision{Allowed: true}, nil
	}

	if b.count >= l.limit {
		return Decision{RetryAfter: b.windowEnd.Sub(now)}, nil
	}

	b.count++
	return Decision{Allowed: true}, nil
}

// sweep drops finished windows once the map grows, so one-off clients do not
// accumulate forever. Caller holds l.mu.
func (l *MemoryLimiter) sweep(now time.Time) {
	if len(l.buckets) < 1024 {
		return
	}

	for k, b := range l.buckets {
		if !now.Before(b.windowEnd) {
			delete(l.buckets, k)
		}
	}
}
