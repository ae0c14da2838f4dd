package notifications

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeNotifier struct {
	sendFn func(ctx context.Context, in WelcomeInput) error
	calls  int
}

func (f *fakeNotifier) SendWelcome(ctx context.Context, in WelcomeInput) error {
	f.calls++
	return f.sendFn(ctx, in)
}

func TestProtectedNotifier_OpensAfterThreshold(t *testing.T) {
	boom := errors.New("provider down")
	inner := &fakeNotifier{sendFn: func(context.Context, WelcomeInput) error { return boom }}

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	n := NewProtectedNotifier(inner, ProtectedNotifierConfig{FailureThreshold: 2, Cooldown: time.Minute})
	n.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		if err := n.SendWelcome(context.Background(), WelcomeInput{}); !errors.Is(err, boom) {
			t.Fatalf("attempt %d: expected provider error, got %v", i, err)
		}
	}

	if n.State() != "open" {
		t.Fatalf("expected open circuit, got %s", n.State())
	}
	if err := n.SendWelcome(context.Background(), WelcomeInput{}); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if inner.calls != 2 {
		t.Fatalf("open circuit must not call the provider, calls=%d", inner.calls)
	}

	// after cooldown a trial call is let through and closes the circuit
	now = now.Add(time.Minute)
	inner.sendFn = func(context.Context, WelcomeInput) error { return nil }

	if err := n.SendWelcome(context.Background(), WelcomeInput{}); err != nil {
		t.Fatalf("expected trial call to succeed, got %v", err)
	}
	if n.State() != "closed" {
		t.Fatalf("expected closed circuit, got %s", n.State())
	}
}

func TestProtectedNotifier_HalfOpenFailureReopens(t *testing.T) {
	inner := &fakeNotifier{sendFn: func(context.Context, WelcomeInput) error { return errors.New("down") }}

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	n := NewProtectedNotifier(inner, ProtectedNotifierConfig{FailureThreshold: 1, Cooldown: time.Second})
	n.now = func() time.Time { return now }

	_ = n.SendWelcome(context.Background(), WelcomeInput{})
	now = now.Add(2 * time.Second)
	_ = n.SendWelcome(context.Background(), WelcomeInput{})

	if n.State() != "open" {
		t.Fatalf("failed trial call must reopen the circuit, got %s", n.State())
	}
}

func TestProtectedNotifier_EnforcesTimeout(t *testing.T) {
	inner := &fakeNotifier{sendFn: func(ctx context.Context, _ WelcomeInput) error {
		<-ctx.Done()
		return ctx.Err()
	}}

	n := NewProtectedNotifier(inner, ProtectedNotifierConfig{Timeout: 10 * time.Millisecond})

	if err := n.SendWelcome(context.Background(), WelcomeInput{}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}
