package ratelimit

import (
	"context"
	"errors"
	"time"
)

var ErrLimitExceeded = errors.New("rate limit exceeded")

// Limiter is a fixed-window counter keyed by caller identity (client IP for
// the HTTP middleware).
type Limiter interface {
	CheckAndIncrement(ctx context.Context, key string, limit int, window time.Duration) error
}
