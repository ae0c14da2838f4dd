package user

import (
	"errors"
	"strings"
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already registered")
	ErrDuplicatePhone = errors.New("phone already registered")
)

type User struct {
	ID           string
	Email        string
	Phone        string
	PasswordHash string
	FirstName    string
	LastName     string

	EmailVerified bool
	PhoneVerified bool

	FailedLoginAttempts int
	LockUntil           *time.Time

	Role        string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	LastLoginAt *time.Time
}

// Public is the only shape of a user that leaves the service.
type Public struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	Phone         string     `json:"phone,omitempty"`
	FirstName     string     `json:"firstName"`
	LastName      string     `json:"lastName"`
	EmailVerified bool       `json:"emailVerified"`
	PhoneVerified bool       `json:"phoneVerified"`
	Role          string     `json:"role"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
	LastLoginAt   *time.Time `json:"lastLoginAt,omitempty"`
}

func (u User) Public() Public {
	return Public{
		ID:            u.ID,
		Email:         u.Email,
		Phone:         u.Phone,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		EmailVerified: u.EmailVerified,
		PhoneVerified: u.PhoneVerified,
		Role:          u.Role,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
		LastLoginAt:   u.LastLoginAt,
	}
}

// IsLocked reports whether the lockout window is still open at now.
func IsLocked(u User, now time.Time) bool {
	return u.LockUntil != nil && u.LockUntil.After(now)
}

// NewUser carries already-validated input for directory inserts.
// Password is plaintext; the directory hashes it.
type NewUser struct {
	Email     string
	Phone     string
	Password  string
	FirstName string
	LastName  string
	Role      string
}

// Updates is a partial update; nil fields are left untouched.
// An empty Phone pointer value clears the phone number.
type Updates struct {
	Email     *string
	Phone     *string
	Password  *string
	FirstName *string
	LastName  *string
}

func (u Updates) Empty() bool {
	return u.Email == nil && u.Phone == nil && u.Password == nil && u.FirstName == nil && u.LastName == nil
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizePhone keeps only the digits of a phone number.
func NormalizePhone(phone string) string {
	var b strings.Builder
	b.Grow(len(phone))

	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}

	return b.String()
}
