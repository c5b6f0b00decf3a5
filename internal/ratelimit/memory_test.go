package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestMemoryLimiterAllowsUnderLimit(t *testing.T) {
	l := NewMemoryLimiter()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := l.CheckAndIncrement(ctx, "1.2.3.4", 3, time.Minute); err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
	}

	if err := l.CheckAndIncrement(ctx, "1.2.3.4", 3, time.Minute); err != ErrLimitExceeded {
		t.Fatalf("fourth request = %v, want ErrLimitExceeded", err)
	}
}

func TestMemoryLimiterKeysAreIndependent(t *testing.T) {
	l := NewMemoryLimiter()
	ctx := context.Background()

	if err := l.CheckAndIncrement(ctx, "a", 1, time.Minute); err != nil {
		t.Fatalf("key a: %v", err)
	}
	if err := l.CheckAndIncrement(ctx, "b", 1, time.Minute); err != nil {
		t.Fatalf("key b: %v", err)
	}
}

func TestMemoryLimiterWindowResets(t *testing.T) {
	l := NewMemoryLimiter()
	ctx := context.Background()

	base := time.Now()
	l.now = func() time.Time { return base }

	if err := l.CheckAndIncrement(ctx, "a", 1, time.Minute); err != nil {
		t.Fatalf("first: %v", err)
	}
	if err := l.CheckAndIncrement(ctx, "a", 1, time.Minute); err != ErrLimitExceeded {
		t.Fatalf("second = %v, want ErrLimitExceeded", err)
	}

	l.now = func() time.Time { return base.Add(2 * time.Minute) }
	if err := l.CheckAndIncrement(ctx, "a", 1, time.Minute); err != nil {
		t.Fatalf("after window: %v", err)
	}
}
