package credentials

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/geocoder89/storefront/internal/auth"
	"github.com/geocoder89/storefront/internal/domain/user"
	"github.com/geocoder89/storefront/internal/notifications"
	"github.com/geocoder89/storefront/internal/observability"
)

// Session is the result of a successful register or login.
type Session struct {
	User   user.Public
	Token  string
	Cookie string // Set-Cookie header value
}

type Service struct {
	dir      UserDirectory
	codec    auth.TokenCodec
	cookies  *auth.CookieManager
	notifier notifications.Notifier
	prom     *observability.Prom
	log      *slog.Logger
	baseURL  string
	now      func() time.Time
}

type Option func(*Service)

func WithNotifier(n notifications.Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func WithMetrics(p *observability.Prom) Option {
	return func(s *Service) { s.prom = p }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithBaseURL sets the origin used for links in outgoing messages.
func WithBaseURL(u string) Option {
	return func(s *Service) { s.baseURL = strings.TrimRight(u, "/") }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(dir UserDirectory, codec auth.TokenCodec, cookies *auth.CookieManager, opts ...Option) *Service {
	s := &Service{
		dir:     dir,
		codec:   codec,
		cookies: cookies,
		log:     slog.Default(),
		now:     func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *Service) Register(ctx context.Context, req RegisterRequest) (Session, error) {
	in, fe := ValidateRegistration(req)
	if fe != nil {
		s.prom.ObserveRegistration(observability.OutcomeValidation)
		return Session{}, fe
	}

	u, err := s.dir.CreateUser(ctx, user.NewUser{
		Email:     in.Email,
		Phone:     in.Phone,
		Password:  in.Password,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Role:      user.RoleUser,
	})
	if err != nil {
		switch {
		case errors.Is(err, user.ErrDuplicateEmail):
			s.prom.ObserveRegistration(observability.OutcomeValidation)
			return Session{}, &FieldError{Field: "email", Message: "is already registered"}
		case errors.Is(err, user.ErrDuplicatePhone):
			s.prom.ObserveRegistration(observability.OutcomeValidation)
			return Session{}, &FieldError{Field: "phone", Message: "is already registered"}
		}

		s.prom.ObserveRegistration(observability.OutcomeError)
		s.log.ErrorContext(ctx, "register: create user failed", "err", err)
		return Session{}, fmt.Errorf("create user: %w", err)
	}

	sess, err := s.startSession(u)
	if err != nil {
		s.prom.ObserveRegistration(observability.OutcomeError)
		s.log.ErrorContext(ctx, "register: issue session failed", "user_id", u.ID, "err", err)
		return Session{}, err
	}

	s.sendWelcome(ctx, u)

	s.prom.ObserveRegistration(observability.OutcomeSuccess)
	s.log.InfoContext(ctx, "user registered", "user_id", u.ID)

	return sess, nil
}

// Login authenticates by email, falling back to phone when identifier looks
// like a phone number. Unknown users and wrong passwords are reported the
// same way; locked accounts are reported explicitly.
func (s *Service) Login(ctx context.Context, identifier, password string) (Session, error) {
	if fe := ValidateLogin(identifier, password); fe != nil {
		s.prom.ObserveLogin(observability.OutcomeValidation)
		return Session{}, fe
	}

	u, err := s.lookup(ctx, identifier)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			s.prom.ObserveLogin(observability.OutcomeInvalidCredentials)
			return Session{}, ErrInvalidCredentials
		}

		s.prom.ObserveLogin(observability.OutcomeError)
		s.log.ErrorContext(ctx, "login: lookup failed", "err", err)
		return Session{}, fmt.Errorf("lookup user: %w", err)
	}

	if s.dir.IsLocked(u) {
		s.prom.ObserveLogin(observability.OutcomeLocked)
		return Session{}, &LockedError{Until: *u.LockUntil}
	}

	if !s.dir.VerifyPassword(u, password) {
		updated, err := s.dir.RecordFailedLogin(ctx, u.ID)
		if err != nil {
			s.prom.ObserveLogin(observability.OutcomeError)
			s.log.ErrorContext(ctx, "login: record failure failed", "user_id", u.ID, "err", err)
			return Session{}, fmt.Errorf("record failed login: %w", err)
		}

		if s.dir.IsLocked(updated) {
			s.prom.ObserveLogin(observability.OutcomeLocked)
			s.prom.ObserveLockout()
			s.log.WarnContext(ctx, "account locked", "user_id", u.ID, "locked_until", *updated.LockUntil)
			return Session{}, &LockedError{Until: *updated.LockUntil}
		}

		s.prom.ObserveLogin(observability.OutcomeInvalidCredentials)
		return Session{}, ErrInvalidCredentials
	}

	updated, err := s.dir.RecordSuccessfulLogin(ctx, u.ID)
	if err != nil {
		s.prom.ObserveLogin(observability.OutcomeError)
		s.log.ErrorContext(ctx, "login: record success failed", "user_id", u.ID, "err", err)
		return Session{}, fmt.Errorf("record successful login: %w", err)
	}
	u = updated

	sess, err := s.startSession(u)
	if err != nil {
		s.prom.ObserveLogin(observability.OutcomeError)
		s.log.ErrorContext(ctx, "login: issue session failed", "user_id", u.ID, "err", err)
		return Session{}, err
	}

	s.prom.ObserveLogin(observability.OutcomeSuccess)
	s.log.InfoContext(ctx, "user logged in", "user_id", u.ID)

	return sess, nil
}

// Now is the service clock, used to render lockout countdowns.
func (s *Service) Now() time.Time {
	return s.now()
}

// Logout returns the Set-Cookie value that clears the session. Tokens are
// stateless, so there is nothing to revoke server side.
func (s *Service) Logout(ctx context.Context) string {
	return s.cookies.DeleteCookie()
}

// CurrentUser resolves the user behind a raw Cookie header. Every failure is
// reported as ErrNotAuthenticated.
func (s *Service) CurrentUser(ctx context.Context, cookieHeader string) (user.Public, error) {
	token, ok := s.cookies.ExtractToken(cookieHeader)
	if !ok {
		return user.Public{}, ErrNotAuthenticated
	}

	claims, err := s.codec.Verify(token)
	if err != nil {
		return user.Public{}, ErrNotAuthenticated
	}

	return s.userByID(ctx, claims.UserID)
}

// UserByID returns the public view of an already authenticated user.
func (s *Service) UserByID(ctx context.Context, id string) (user.Public, error) {
	return s.userByID(ctx, id)
}

func (s *Service) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (user.Public, error) {
	changes, fe := ValidateProfileUpdate(upd)
	if fe != nil {
		return user.Public{}, fe
	}

	if changes.Password != nil {
		u, err := s.dir.FindByID(ctx, userID)
		if err != nil {
			if errors.Is(err, user.ErrNotFound) {
				return user.Public{}, ErrNotAuthenticated
			}
			return user.Public{}, fmt.Errorf("find user: %w", err)
		}
		if !s.dir.VerifyPassword(u, *upd.CurrentPassword) {
			return user.Public{}, &FieldError{Field: "currentPassword", Message: "is incorrect"}
		}
	}

	u, err := s.dir.UpdateUser(ctx, userID, changes)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrNotFound):
			return user.Public{}, ErrNotAuthenticated
		case errors.Is(err, user.ErrDuplicateEmail):
			return user.Public{}, &FieldError{Field: "email", Message: "is already registered"}
		case errors.Is(err, user.ErrDuplicatePhone):
			return user.Public{}, &FieldError{Field: "phone", Message: "is already registered"}
		}

		s.log.ErrorContext(ctx, "update profile failed", "user_id", userID, "err", err)
		return user.Public{}, fmt.Errorf("update user: %w", err)
	}

	s.log.InfoContext(ctx, "profile updated", "user_id", u.ID)
	return u.Public(), nil
}

// VerifyEmail consumes an email verification token. Tokens issued for an
// address the user has since changed are rejected.
func (s *Service) VerifyEmail(ctx context.Context, token string) (user.Public, error) {
	if strings.TrimSpace(token) == "" {
		return user.Public{}, &FieldError{Field: "token", Message: "is required"}
	}

	claims, err := s.codec.VerifyEmailVerification(token)
	if err != nil {
		return user.Public{}, &FieldError{Field: "token", Message: "is invalid or expired"}
	}

	u, err := s.dir.MarkEmailVerified(ctx, claims.UserID, claims.Email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.Public{}, &FieldError{Field: "token", Message: "is invalid or expired"}
		}

		s.log.ErrorContext(ctx, "verify email failed", "user_id", claims.UserID, "err", err)
		return user.Public{}, fmt.Errorf("mark email verified: %w", err)
	}

	s.log.InfoContext(ctx, "email verified", "user_id", u.ID)
	return u.Public(), nil
}

// helpers

func (s *Service) lookup(ctx context.Context, identifier string) (user.User, error) {
	u, err := s.dir.FindByEmail(ctx, identifier)
	if err == nil || !errors.Is(err, user.ErrNotFound) {
		return u, err
	}

	if !isPhone(strings.TrimSpace(identifier)) {
		return user.User{}, user.ErrNotFound
	}

	return s.dir.FindByPhone(ctx, identifier)
}

func (s *Service) userByID(ctx context.Context, id string) (user.Public, error) {
	u, err := s.dir.FindByID(ctx, id)
	if err != nil {
		if !errors.Is(err, user.ErrNotFound) {
			s.log.ErrorContext(ctx, "current user lookup failed", "user_id", id, "err", err)
		}
		return user.Public{}, ErrNotAuthenticated
	}

	return u.Public(), nil
}

func (s *Service) startSession(u user.User) (Session, error) {
	token, err := s.codec.Issue(identityOf(u))
	if err != nil {
		return Session{}, fmt.Errorf("issue token: %w", err)
	}

	return Session{
		User:   u.Public(),
		Token:  token,
		Cookie: s.cookies.CreateSecureCookie(token),
	}, nil
}

// sendWelcome is best effort; delivery problems never fail registration.
func (s *Service) sendWelcome(ctx context.Context, u user.User) {
	if s.notifier == nil {
		return
	}

	token, err := s.codec.IssueEmailVerification(identityOf(u))
	if err != nil {
		s.log.WarnContext(ctx, "issue email verification token failed", "user_id", u.ID, "err", err)
		return
	}

	in := notifications.WelcomeInput{
		UserID:    u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		VerifyURL: s.baseURL + "/verify-email?token=" + url.QueryEscape(token),
	}

	if err := s.notifier.SendWelcome(ctx, in); err != nil {
		s.log.WarnContext(ctx, "welcome notification failed", "user_id", u.ID, "err", err)
	}
}

func identityOf(u user.User) auth.Identity {
	return auth.Identity{
		UserID:   u.ID,
		Email:    u.Email,
		Role:     u.Role,
		Provider: auth.ProviderSession,
	}
}
