package auth

import (
	"context"
	"net/http"
)

const (
	ProviderSession = "session"
	ProviderManaged = "managed"
)

// AuthenticationProvider decides whether an inbound request carries a valid
// session. Implementations must not write to the response.
type AuthenticationProvider interface {
	Authenticate(ctx context.Context, r *http.Request) (Identity, bool)
}

// SessionProvider validates the storefront's own session cookie.
type SessionProvider struct {
	codec   TokenCodec
	cookies *CookieManager
}

func NewSessionProvider(codec TokenCodec, cookies *CookieManager) *SessionProvider {
	return &SessionProvider{codec: codec, cookies: cookies}
}

func (p *SessionProvider) Authenticate(_ context.Context, r *http.Request) (Identity, bool) {
	raw, ok := p.cookies.ExtractToken(r.Header.Get("Cookie"))
	if !ok {
		return Identity{}, false
	}

	claims, err := p.codec.Verify(raw)
	if err != nil {
		return Identity{}, false
	}

	id := claims.Identity
	id.Provider = ProviderSession
	return id, true
}

// Chain asks each provider in order; the first that authenticates wins.
type Chain []AuthenticationProvider

func (c Chain) Authenticate(ctx context.Context, r *http.Request) (Identity, bool) {
	for _, p := range c {
		if p == nil {
			continue
		}
		if id, ok := p.Authenticate(ctx, r); ok {
			return id, true
		}
	}
	return Identity{}, false
}
