package auth

import (
	"errors"
	"time"
)

const (
	SessionTTL     = 7 * 24 * time.Hour
	EmailVerifyTTL = 24 * time.Hour

	TokenTypeSession     = "session"
	TokenTypeEmailVerify = "email_verify"
)

// ErrInvalidToken covers bad signatures, expiry, malformed payloads and
// wrong token types alike. Callers must not try to tell them apart.
var ErrInvalidToken = errors.New("invalid token")

type Identity struct {
	UserID string
	Email  string
	Role   string
	// Provider names the AuthenticationProvider that produced the identity.
	Provider string
}

type Claims struct {
	Identity
	TokenType string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenCodec signs and verifies the compact tokens carried in the session
// cookie and in email verification links.
type TokenCodec interface {
	Issue(id Identity) (string, error)
	Verify(token string) (*Claims, error)
	IssueEmailVerification(id Identity) (string, error)
	VerifyEmailVerification(token string) (*Claims, error)
}

type CodecOption func(*codecOptions)

type codecOptions struct {
	now        func() time.Time
	sessionTTL time.Duration
	verifyTTL  time.Duration
}

func defaultCodecOptions() codecOptions {
	return codecOptions{
		now:        func() time.Time { return time.Now().UTC() },
		sessionTTL: SessionTTL,
		verifyTTL:  EmailVerifyTTL,
	}
}

// WithClock replaces the wall clock used for issuing and checking expiry.
func WithClock(now func() time.Time) CodecOption {
	return func(o *codecOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// NewCodec picks a codec implementation by name ("jwt" or "paseto").
func NewCodec(format string, secret string, opts ...CodecOption) (TokenCodec, error) {
	switch format {
	case "", "jwt":
		return NewJWTCodec(secret, opts...), nil
	case "paseto":
		return NewPasetoCodec(secret, opts...)
	default:
		return nil, errors.New("unknown token format: " + format)
	}
}
