package auth

import (
	"net/http"
	"time"
)

const SessionCookieName = "storefront_session"

// CookieManager moves the session token in and out of HTTP cookies.
// The cookie is always HttpOnly, Secure and SameSite=Strict.
type CookieManager struct {
	name   string
	maxAge time.Duration
}

func NewCookieManager() *CookieManager {
	return &CookieManager{
		name:   SessionCookieName,
		maxAge: SessionTTL,
	}
}

func (m *CookieManager) Name() string {
	return m.name
}

// CreateSecureCookie returns a Set-Cookie header value carrying token.
func (m *CookieManager) CreateSecureCookie(token string) string {
	c := &http.Cookie{
		Name:     m.name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.maxAge.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	}

	return c.String()
}

// DeleteCookie returns a Set-Cookie header value that expires the session
// cookie immediately.
func (m *CookieManager) DeleteCookie() string {
	c := &http.Cookie{
		Name:     m.name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1, // rendered as Max-Age=0
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	}

	return c.String()
}

// ExtractToken pulls the session token out of a raw Cookie request header.
func (m *CookieManager) ExtractToken(cookieHeader string) (string, bool) {
	if cookieHeader == "" {
		return "", false
	}

	req := &http.Request{Header: http.Header{"Cookie": []string{cookieHeader}}}

	c, err := req.Cookie(m.name)
	if err != nil || c.Value == "" {
		return "", false
	}

	return c.Value, true
}
