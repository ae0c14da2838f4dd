package user

import "time"

const (
	DefaultLockoutThreshold = 5
	DefaultLockoutDuration  = 15 * time.Minute
)

// LockoutPolicy locks an account for Duration once FailedLoginAttempts
// reaches Threshold.
type LockoutPolicy struct {
	Threshold int
	Duration  time.Duration
}

func DefaultLockoutPolicy() LockoutPolicy {
	return LockoutPolicy{Threshold: DefaultLockoutThreshold, Duration: DefaultLockoutDuration}
}

func (p LockoutPolicy) normalized() LockoutPolicy {
	if p.Threshold <= 0 {
		p.Threshold = DefaultLockoutThreshold
	}
	if p.Duration <= 0 {
		p.Duration = DefaultLockoutDuration
	}
	return p
}

// RegisterFailure applies one failed login to u and reports whether this
// failure locked the account. A lock that has already lapsed starts a fresh
// count.
func (p LockoutPolicy) RegisterFailure(u *User, now time.Time) bool {
	p = p.normalized()

	if u.LockUntil != nil && !u.LockUntil.After(now) {
		u.FailedLoginAttempts = 0
		u.LockUntil = nil
	}

	u.FailedLoginAttempts++
	u.UpdatedAt = now

	if u.FailedLoginAttempts >= p.Threshold && u.LockUntil == nil {
		until := now.Add(p.Duration)
		u.LockUntil = &until
		return true
	}

	return false
}

// RegisterSuccess clears lockout bookkeeping and stamps the login time.
func RegisterSuccess(u *User, now time.Time) {
	u.FailedLoginAttempts = 0
	u.LockUntil = nil
	t := now
	u.LastLoginAt = &t
	u.UpdatedAt = now
}
