package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter is a single-instance fixed-window limiter, used in tests
// and when no Redis is configured.
type MemoryLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	entries map[string]*entry

	now func() time.Time
}

type entry struct {
	count int
	reset time.Time
}

func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		limit:   limit,
		window:  window,
		entries: map[string]*entry{},
		now:     time.Now,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	e, ok := l.entries[key]
	if !ok || now.After(e.reset) {
		l.entries[key] = &entry{count: 1, reset: now.Add(l.window)}
		return true, nil
	}

	if e.count >= l.limit {
		return false, nil
	}
	e.count++
	return true, nil
}
