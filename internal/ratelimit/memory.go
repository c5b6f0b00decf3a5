package ratelimit

import (
	"context"
	"sync"
	"time"
)

type MemoryLimiter struct {
	mu      sync.Mutex
	entries map[string]*windowCount
	now     func() time.Time
}

type windowCount struct {
	count     int
	windowEnd time.Time
}

func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{
		entries: make(map[string]*windowCount),
		now:     time.Now,
	}
}

func (l *MemoryLimiter) CheckAndIncrement(ctx context.Context, key string, limit int, window time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	entry, exists := l.entries[key]

	if !exists || now.After(entry.windowEnd) {
		l.entries[key] = &windowCount{
			count:     1,
			windowEnd: now.Add(window),
		}
		return nil
	}

	if entry.count >= limit {
		return ErrLimitExceeded
	}

	entry.count++
	return nil
}
