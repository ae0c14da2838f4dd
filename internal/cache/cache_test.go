package cache

import (
	"testing"
	"time"
)

func TestCache_GetSetExpire(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c := New[string](30 * time.Second).WithClock(func() time.Time { return now })

	c.Set("k", "v")

	got, ok := c.Get("k")
	if !ok || got != "v" {
		t.Fatalf("expected hit with v, got %q ok=%v", got, ok)
	}

	now = now.Add(30 * time.Second)

	if _, ok := c.Get("k"); ok {
		t.Fatalf("expected entry to expire at its ttl")
	}

	if c.Len() != 0 {
		t.Fatalf("expected expired entry to be evicted, len=%d", c.Len())
	}
}

func TestCache_Delete(t *testing.T) {
	c := New[int](time.Minute)
	c.Set("a", 1)
	c.Delete("a")

	if _, ok := c.Get("a"); ok {
		t.Fatalf("expected miss after delete")
	}
}

func TestCache_DefaultTTL(t *testing.T) {
	c := New[int](0)
	if c.ttl != 5*time.Second {
		t.Fatalf("expected default ttl, got %v", c.ttl)
	}
}
