// Package ratelimit implements fixed-window request limiting, in memory for
// a single instance or in Redis when several instances share the budget.
package ratelimit

import (
	"context"
	"time"
)

type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}
