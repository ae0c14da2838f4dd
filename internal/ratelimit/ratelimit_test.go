package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestMemoryLimiter_FixedWindow(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewMemoryLimiter(2, time.Minute)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if d, _ := l.Allow(ctx, "1.2.3.4"); !d.Allowed {
			t.Fatalf("hit %d should be allowed", i)
		}
	}

	now = now.Add(20 * time.Second)
	d, _ := l.Allow(ctx, "1.2.3.4")
	if d.Allowed || d.RetryAfter != 40*time.Second {
		t.Fatalf("expected rejection with 40s retry, got %+v", d)
	}

	if d, _ := l.Allow(ctx, "5.6.7.8"); !d.Allowed {
		t.Fatalf("other keys have their own budget")
	}

	now = now.Add(40 * time.Second)
	if d, _ := l.Allow(ctx, "1.2.3.4"); !d.Allowed {
		t.Fatalf("new window should allow again")
	}
}

func TestDecide(t *testing.T) {
	if d := decide(3, 3, time.Second); !d.Allowed {
		t.Fatalf("count at limit is allowed")
	}
	if d := decide(4, 3, time.Second); d.Allowed || d.RetryAfter != time.Second {
		t.Fatalf("count over limit is rejected, got %+v", d)
	}
}
