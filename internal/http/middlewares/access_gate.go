package middlewares

import (
	"net/http"
	"strings"

	"github.com/geocoder89/storefront/internal/actorctx"
	"github.com/geocoder89/storefront/internal/auth"
	"github.com/geocoder89/storefront/internal/observability"
	"github.com/gin-gonic/gin"
)

var (
	DefaultProtectedPrefixes = []string{"/account", "/checkout", "/orders"}
	DefaultAuthOnlyPrefixes  = []string{"/login", "/register"}
)

// gate actions, also used as metric labels
const (
	GateAllow         = "allow"
	GateRedirectLogin = "redirect_login"
	GateRedirectHome  = "redirect_home"
)

type AccessGateConfig struct {
	BaseURL           string
	ProtectedPrefixes []string
	AuthOnlyPrefixes  []string
}

// AccessGate resolves the caller through the provider chain and keeps
// anonymous visitors out of protected paths and signed-in users out of the
// login and registration pages.
type AccessGate struct {
	provider  auth.AuthenticationProvider
	baseURL   string
	protected []string
	authOnly  []string
	prom      *observability.Prom
}

func NewAccessGate(provider auth.AuthenticationProvider, cfg AccessGateConfig, prom *observability.Prom) *AccessGate {
	if cfg.ProtectedPrefixes == nil {
		cfg.ProtectedPrefixes = DefaultProtectedPrefixes
	}
	if cfg.AuthOnlyPrefixes == nil {
		cfg.AuthOnlyPrefixes = DefaultAuthOnlyPrefixes
	}

	return &AccessGate{
		provider:  provider,
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		protected: cfg.ProtectedPrefixes,
		authOnly:  cfg.AuthOnlyPrefixes,
		prom:      prom,
	}
}

func (g *AccessGate) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path

		id, ok := g.provider.Authenticate(c.Request.Context(), c.Request)
		if ok {
			c.Set(CtxIdentity, id)
			c.Request = c.Request.WithContext(actorctx.WithIdentity(c.Request.Context(), id))
		}

		switch {
		case !ok && hasPrefix(path, g.protected):
			g.prom.ObserveGate("", GateRedirectLogin)
			c.Redirect(http.StatusTemporaryRedirect, g.baseURL+"/login")
			c.Abort()
		case ok && hasPrefix(path, g.authOnly):
			g.prom.ObserveGate(id.Provider, GateRedirectHome)
			c.Redirect(http.StatusTemporaryRedirect, g.baseURL+"/")
			c.Abort()
		default:
			g.prom.ObserveGate(id.Provider, GateAllow)
			c.Next()
		}
	}
}

// RequireIdentity answers 401 for API routes that need a signed-in caller.
func RequireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := IdentityFromContext(c); !ok {
			abortWithError(c, http.StatusUnauthorized, "not_authenticated", "Not authenticated")
			return
		}
		c.Next()
	}
}

// hasPrefix matches whole path segments, so /account covers /account and
// /account/profile but not /accounting.
func hasPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		p = strings.TrimRight(p, "/")
		if p == "" {
			continue
		}
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}
