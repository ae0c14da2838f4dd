package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/geocoder89/storefront/internal/cache"
	"github.com/geocoder89/storefront/internal/domain/user"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const ManagedAccessCookie = "sb-access-token"

type ManagedAuthConfig struct {
	BaseURL    string
	AnonKey    string
	CookieName string
	Timeout    time.Duration
	CacheTTL   time.Duration
}

// ManagedAuthProvider asks the external managed-auth service whether the
// request carries one of its sessions. Only positive answers are cached.
type ManagedAuthProvider struct {
	cfg    ManagedAuthConfig
	client *http.Client
	cache  *cache.Cache[Identity]
	log    *slog.Logger
}

func NewManagedAuthProvider(cfg ManagedAuthConfig, client *http.Client, log *slog.Logger) *ManagedAuthProvider {
	if cfg.CookieName == "" {
		cfg.CookieName = ManagedAccessCookie
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Second
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 30 * time.Second
	}
	if client == nil {
		client = &http.Client{}
	}
	if log == nil {
		log = slog.Default()
	}

	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &ManagedAuthProvider{
		cfg:    cfg,
		client: client,
		cache:  cache.New[Identity](cfg.CacheTTL),
		log:    log,
	}
}

type managedUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func (p *ManagedAuthProvider) Authenticate(ctx context.Context, r *http.Request) (Identity, bool) {
	c, err := r.Cookie(p.cfg.CookieName)
	if err != nil || c.Value == "" {
		return Identity{}, false
	}

	key := cacheKey(c.Value)
	if id, ok := p.cache.Get(key); ok {
		return id, true
	}

	id, err := p.lookup(ctx, c.Value)
	if err != nil {
		p.log.DebugContext(ctx, "managed auth lookup failed", "err", err)
		return Identity{}, false
	}

	p.cache.Set(key, id)
	return id, true
}

func (p *ManagedAuthProvider) lookup(ctx context.Context, accessToken string) (Identity, error) {
	ctx, span := otel.Tracer("storefront/auth").Start(ctx, "managed_auth.get_user")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.BaseURL+"/auth/v1/user", nil)
	if err != nil {
		return Identity{}, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")
	if p.cfg.AnonKey != "" {
		req.Header.Set("apikey", p.cfg.AnonKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return Identity{}, err
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return Identity{}, fmt.Errorf("managed auth: unexpected status %d", resp.StatusCode)
	}

	var mu managedUser
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&mu); err != nil {
		return Identity{}, fmt.Errorf("managed auth: decode user: %w", err)
	}

	if mu.ID == "" {
		return Identity{}, fmt.Errorf("managed auth: empty user id")
	}

	return Identity{
		UserID:   mu.ID,
		Email:    user.NormalizeEmail(mu.Email),
		Role:     user.RoleUser,
		Provider: ProviderManaged,
	}, nil
}

func cacheKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
