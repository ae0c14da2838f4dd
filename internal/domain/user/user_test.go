package user

import (
	"testing"
	"time"
)

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  A@X.Com "); got != "a@x.com" {
		t.Fatalf("got %q", got)
	}
}

func TestNormalizePhone(t *testing.T) {
	if got := NormalizePhone("+1 (555) 010-9999"); got != "15550109999" {
		t.Fatalf("got %q", got)
	}
	if got := NormalizePhone("n/a"); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
}

func TestIsLocked(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	future := now.Add(time.Minute)
	past := now.Add(-time.Minute)

	if IsLocked(User{}, now) {
		t.Fatalf("nil lock must not be locked")
	}
	if !IsLocked(User{LockUntil: &future}, now) {
		t.Fatalf("future lock must be locked")
	}
	if IsLocked(User{LockUntil: &past}, now) {
		t.Fatalf("lapsed lock must not be locked")
	}
}

func TestLockoutPolicy_LocksAtThreshold(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	p := LockoutPolicy{Threshold: 3, Duration: 10 * time.Minute}

	var u User
	for i := 1; i <= 2; i++ {
		if p.RegisterFailure(&u, now) {
			t.Fatalf("locked too early at attempt %d", i)
		}
	}

	if !p.RegisterFailure(&u, now) {
		t.Fatalf("expected lock at threshold")
	}
	if u.LockUntil == nil || !u.LockUntil.Equal(now.Add(10*time.Minute)) {
		t.Fatalf("unexpected lock until %v", u.LockUntil)
	}
	if !IsLocked(u, now) {
		t.Fatalf("expected account to be locked")
	}
}

func TestLockoutPolicy_LapsedLockRestartsCount(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	p := LockoutPolicy{Threshold: 2, Duration: time.Minute}

	var u User
	p.RegisterFailure(&u, now)
	p.RegisterFailure(&u, now)

	later := now.Add(2 * time.Minute)
	if p.RegisterFailure(&u, later) {
		t.Fatalf("a single failure after the lock lapsed must not relock")
	}
	if u.FailedLoginAttempts != 1 || u.LockUntil != nil {
		t.Fatalf("expected fresh count, got attempts=%d lock=%v", u.FailedLoginAttempts, u.LockUntil)
	}
}

func TestRegisterSuccess(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	until := now.Add(time.Hour)
	u := User{FailedLoginAttempts: 4, LockUntil: &until}

	RegisterSuccess(&u, now)

	if u.FailedLoginAttempts != 0 || u.LockUntil != nil || u.LastLoginAt == nil || !u.LastLoginAt.Equal(now) {
		t.Fatalf("unexpected state %+v", u)
	}
}

func TestPublic_OmitsSecrets(t *testing.T) {
	u := User{ID: "1", Email: "a@x.com", PasswordHash: "hash", FailedLoginAttempts: 3}
	p := u.Public()

	if p.ID != "1" || p.Email != "a@x.com" {
		t.Fatalf("unexpected public view %+v", p)
	}
}
