package auth

import (
	"errors"
	"testing"
	"time"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func newTestClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
}

var testIdentity = Identity{UserID: "user-123", Email: "a@x.com", Role: "user"}

func TestJWTCodec_RoundTrip(t *testing.T) {
	clock := newTestClock()
	c := NewJWTCodec("test-secret", WithClock(clock.Now))

	tok, err := c.Issue(testIdentity)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	clock.t = clock.t.Add(6 * 24 * time.Hour)

	claims, err := c.Verify(tok)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}

	if claims.UserID != testIdentity.UserID || claims.Email != testIdentity.Email || claims.Role != testIdentity.Role {
		t.Fatalf("claims mismatch: %+v", claims.Identity)
	}

	if claims.TokenType != TokenTypeSession {
		t.Fatalf("unexpected token type %q", claims.TokenType)
	}

	if got := claims.ExpiresAt.Sub(claims.IssuedAt); got != SessionTTL {
		t.Fatalf("expected lifetime %v, got %v", SessionTTL, got)
	}
}

func TestJWTCodec_ExpiredAfterSevenDays(t *testing.T) {
	clock := newTestClock()
	c := NewJWTCodec("test-secret", WithClock(clock.Now))

	tok, err := c.Issue(testIdentity)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	clock.t = clock.t.Add(SessionTTL + time.Second)

	if _, err := c.Verify(tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestJWTCodec_WrongSecret(t *testing.T) {
	tok, err := NewJWTCodec("secret-a").Issue(testIdentity)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	if _, err := NewJWTCodec("secret-b").Verify(tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestJWTCodec_TamperedByteRejected(t *testing.T) {
	c := NewJWTCodec("test-secret")

	tok, err := c.Issue(testIdentity)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	for i := 0; i < len(tok); i++ {
		b := []byte(tok)
		b[i] ^= 0x01

		if _, err := c.Verify(string(b)); err == nil {
			t.Fatalf("tampered token at byte %d still verified", i)
		}
	}
}

func TestJWTCodec_MalformedAndTypeConfusion(t *testing.T) {
	c := NewJWTCodec("test-secret")

	if _, err := c.Verify("not.a.jwt"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for garbage, got %v", err)
	}

	verifyTok, err := c.IssueEmailVerification(testIdentity)
	if err != nil {
		t.Fatalf("IssueEmailVerification error: %v", err)
	}

	if _, err := c.Verify(verifyTok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("email verification token must not work as a session")
	}

	claims, err := c.VerifyEmailVerification(verifyTok)
	if err != nil {
		t.Fatalf("VerifyEmailVerification error: %v", err)
	}
	if claims.TokenType != TokenTypeEmailVerify {
		t.Fatalf("unexpected token type %q", claims.TokenType)
	}
}

func TestNewCodec_UnknownFormat(t *testing.T) {
	if _, err := NewCodec("rot13", "secret"); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}
