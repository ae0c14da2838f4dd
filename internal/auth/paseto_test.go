package auth

import (
	"errors"
	"testing"
	"time"
)

func TestPasetoCodec_RoundTripAndExpiry(t *testing.T) {
	clock := newTestClock()

	codec, err := NewCodec("paseto", "test-secret", WithClock(clock.Now))
	if err != nil {
		t.Fatalf("NewCodec error: %v", err)
	}

	tok, err := codec.Issue(testIdentity)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	claims, err := codec.Verify(tok)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if claims.Identity.UserID != testIdentity.UserID || claims.Email != testIdentity.Email {
		t.Fatalf("claims mismatch: %+v", claims.Identity)
	}

	clock.t = clock.t.Add(SessionTTL + time.Second)

	if _, err := codec.Verify(tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken after expiry, got %v", err)
	}
}

func TestPasetoCodec_TamperedPayload(t *testing.T) {
	codec, err := NewPasetoCodec("test-secret")
	if err != nil {
		t.Fatalf("NewPasetoCodec error: %v", err)
	}

	tok, err := codec.Issue(testIdentity)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	const header = len("v4.local.")
	for _, i := range []int{0, 3, header, header + 10, len(tok) / 2, len(tok) - 2} {
		b := []byte(tok)
		b[i] ^= 0x01

		if _, err := codec.Verify(string(b)); err == nil {
			t.Fatalf("tampered token at byte %d still verified", i)
		}
	}
}

func TestPasetoCodec_TypeConfusion(t *testing.T) {
	codec, err := NewPasetoCodec("test-secret")
	if err != nil {
		t.Fatalf("NewPasetoCodec error: %v", err)
	}

	tok, err := codec.IssueEmailVerification(testIdentity)
	if err != nil {
		t.Fatalf("IssueEmailVerification error: %v", err)
	}

	if _, err := codec.Verify(tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}
