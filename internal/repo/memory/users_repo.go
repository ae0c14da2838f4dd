package memory

import (
	"context"
	"sync"
	"time"

	"github.com/geocoder89/storefront/internal/domain/user"
	"github.com/geocoder89/storefront/internal/security"
	"github.com/google/uuid"
)

// UsersRepo is an in-memory user directory. Records live in an arena of
// slots; the id, email and phone indexes map to slot positions.
//
// Lock order is always slot.mu before r.mu. r.mu only guards the arena and
// the indexes, so counter updates on different users never contend.
type UsersRepo struct {
	mu      sync.RWMutex
	slots   []*slot
	free    []int
	byID    map[string]int
	byEmail map[string]int
	byPhone map[string]int

	hasher security.PasswordHasher
	policy user.LockoutPolicy
	now    func() time.Time
}

type slot struct {
	mu   sync.Mutex
	idx  int
	live bool
	user user.User
}

type Option func(*UsersRepo)

func WithClock(now func() time.Time) Option {
	return func(r *UsersRepo) {
		if now != nil {
			r.now = now
		}
	}
}

func WithLockoutPolicy(p user.LockoutPolicy) Option {
	return func(r *UsersRepo) {
		r.policy = p
	}
}

func NewUsersRepo(hasher security.PasswordHasher, opts ...Option) *UsersRepo {
	r := &UsersRepo{
		byID:    make(map[string]int),
		byEmail: make(map[string]int),
		byPhone: make(map[string]int),
		hasher:  hasher,
		policy:  user.DefaultLockoutPolicy(),
		now:     func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

func (r *UsersRepo) CreateUser(ctx context.Context, in user.NewUser) (user.User, error) {
	if err := ctx.Err(); err != nil {
		return user.User{}, err
	}

	email := user.NormalizeEmail(in.Email)
	phone := user.NormalizePhone(in.Phone)

	// cheap pre-check so a duplicate does not pay for bcrypt
	if err := r.checkFree(email, phone, -1); err != nil {
		return user.User{}, err
	}

	hash, err := r.hasher.Hash(in.Password)
	if err != nil {
		return user.User{}, err
	}

	role := in.Role
	if role == "" {
		role = user.RoleUser
	}

	now := r.now()
	u := user.User{
		ID:           uuid.NewString(),
		Email:        email,
		Phone:        phone,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkFreeLocked(email, phone, -1); err != nil {
		return user.User{}, err
	}

	var idx int
	if n := len(r.free); n > 0 {
		idx = r.free[n-1]
		r.free = r.free[:n-1]
	} else {
		idx = len(r.slots)
		r.slots = append(r.slots, nil)
	}

	r.slots[idx] = &slot{idx: idx, live: true, user: u}
	r.byID[u.ID] = idx
	r.byEmail[email] = idx
	if phone != "" {
		r.byPhone[phone] = idx
	}

	return cloneUser(u), nil
}

func (r *UsersRepo) FindByID(ctx context.Context, id string) (user.User, error) {
	return r.find(ctx, r.byID, id)
}

func (r *UsersRepo) FindByEmail(ctx context.Context, email string) (user.User, error) {
	return r.find(ctx, r.byEmail, user.NormalizeEmail(email))
}

func (r *UsersRepo) FindByPhone(ctx context.Context, phone string) (user.User, error) {
	return r.find(ctx, r.byPhone, user.NormalizePhone(phone))
}

func (r *UsersRepo) IsLocked(u user.User) bool {
	return user.IsLocked(u, r.now())
}

func (r *UsersRepo) VerifyPassword(u user.User, plain string) bool {
	return r.hasher.Verify(u.PasswordHash, plain)
}

func (r *UsersRepo) RecordFailedLogin(ctx context.Context, id string) (user.User, error) {
	return r.mutate(ctx, id, func(u *user.User) error {
		r.policy.RegisterFailure(u, r.now())
		return nil
	})
}

func (r *UsersRepo) RecordSuccessfulLogin(ctx context.Context, id string) (user.User, error) {
	return r.mutate(ctx, id, func(u *user.User) error {
		user.RegisterSuccess(u, r.now())
		return nil
	})
}

func (r *UsersRepo) MarkEmailVerified(ctx context.Context, id, email string) (user.User, error) {
	return r.mutate(ctx, id, func(u *user.User) error {
		if u.Email != user.NormalizeEmail(email) {
			return user.ErrNotFound
		}
		if !u.EmailVerified {
			u.EmailVerified = true
			u.UpdatedAt = r.now()
		}
		return nil
	})
}

func (r *UsersRepo) UpdateUser(ctx context.Context, id string, upd user.Updates) (user.User, error) {
	var hash string
	if upd.Password != nil {
		h, err := r.hasher.Hash(*upd.Password)
		if err != nil {
			return user.User{}, err
		}
		hash = h
	}

	return r.mutate(ctx, id, func(u *user.User) error {
		email, phone := u.Email, u.Phone
		if upd.Email != nil {
			email = user.NormalizeEmail(*upd.Email)
		}
		if upd.Phone != nil {
			phone = user.NormalizePhone(*upd.Phone)
		}

		if email != u.Email || phone != u.Phone {
			if err := r.swapIndexes(u, email, phone); err != nil {
				return err
			}
		}

		if email != u.Email {
			u.Email = email
			u.EmailVerified = false
		}
		if phone != u.Phone {
			u.Phone = phone
			u.PhoneVerified = false
		}
		if upd.FirstName != nil {
			u.FirstName = *upd.FirstName
		}
		if upd.LastName != nil {
			u.LastName = *upd.LastName
		}
		if upd.Password != nil {
			u.PasswordHash = hash
		}

		u.UpdatedAt = r.now()
		return nil
	})
}

func (r *UsersRepo) DeleteUser(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s := r.lookup(r.byID, id)
	if s == nil {
		return user.ErrNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.live {
		return user.ErrNotFound
	}

	r.mu.Lock()
	delete(r.byID, s.user.ID)
	delete(r.byEmail, s.user.Email)
	if s.user.Phone != "" {
		delete(r.byPhone, s.user.Phone)
	}
	r.slots[s.idx] = nil
	r.free = append(r.free, s.idx)
	r.mu.Unlock()

	s.live = false
	return nil
}

// helpers

func (r *UsersRepo) lookup(index map[string]int, key string) *slot {
	if key == "" {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	idx, ok := index[key]
	if !ok {
		return nil
	}
	return r.slots[idx]
}

func (r *UsersRepo) find(ctx context.Context, index map[string]int, key string) (user.User, error) {
	if err := ctx.Err(); err != nil {
		return user.User{}, err
	}

	s := r.lookup(index, key)
	if s == nil {
		return user.User{}, user.ErrNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.live {
		return user.User{}, user.ErrNotFound
	}
	return cloneUser(s.user), nil
}

// mutate runs fn on a copy of the record under the record lock and stores
// the copy only if fn succeeds.
func (r *UsersRepo) mutate(ctx context.Context, id string, fn func(u *user.User) error) (user.User, error) {
	if err := ctx.Err(); err != nil {
		return user.User{}, err
	}

	s := r.lookup(r.byID, id)
	if s == nil {
		return user.User{}, user.ErrNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.live {
		return user.User{}, user.ErrNotFound
	}

	u := cloneUser(s.user)
	if err := fn(&u); err != nil {
		return user.User{}, err
	}

	s.user = u
	return cloneUser(u), nil
}

// swapIndexes moves the email/phone index entries of u to the new values.
// Caller holds the record lock.
func (r *UsersRepo) swapIndexes(u *user.User, email, phone string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.byID[u.ID]

	if err := r.checkFreeLocked(email, phone, idx); err != nil {
		return err
	}

	if email != u.Email {
		delete(r.byEmail, u.Email)
		r.byEmail[email] = idx
	}
	if phone != u.Phone {
		if u.Phone != "" {
			delete(r.byPhone, u.Phone)
		}
		if phone != "" {
			r.byPhone[phone] = idx
		}
	}
	return nil
}

func (r *UsersRepo) checkFree(email, phone string, owner int) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.checkFreeLocked(email, phone, owner)
}

func (r *UsersRepo) checkFreeLocked(email, phone string, owner int) error {
	if idx, ok := r.byEmail[email]; ok && idx != owner {
		return user.ErrDuplicateEmail
	}
	if phone != "" {
		if idx, ok := r.byPhone[phone]; ok && idx != owner {
			return user.ErrDuplicatePhone
		}
	}
	return nil
}

func cloneUser(u user.User) user.User {
	if u.LockUntil != nil {
		t := *u.LockUntil
		u.LockUntil = &t
	}
	if u.LastLoginAt != nil {
		t := *u.LastLoginAt
		u.LastLoginAt = &t
	}
	return u
}
