package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/geocoder89/storefront/internal/domain/user"
	"github.com/geocoder89/storefront/internal/observability"
	"github.com/geocoder89/storefront/internal/security"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	emailConstraint = "users_email_key"
	phoneConstraint = "users_phone_key"

	userColumns = `id, email, phone, password_hash, first_name, last_name,
		email_verified, phone_verified, failed_login_attempts, lock_until,
		role, created_at, updated_at, last_login_at`
)

// UsersRepo is the persistent user directory. Read-modify-write operations
// lock the row with SELECT ... FOR UPDATE inside a transaction.
type UsersRepo struct {
	pool   *pgxpool.Pool
	prom   *observability.Prom
	hasher security.PasswordHasher
	policy user.LockoutPolicy
	now    func() time.Time
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom, hasher security.PasswordHasher, policy user.LockoutPolicy) *UsersRepo {
	return &UsersRepo{
		pool:   pool,
		prom:   prom,
		hasher: hasher,
		policy: policy,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (r *UsersRepo) CreateUser(ctx context.Context, in user.NewUser) (user.User, error) {
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
		Email:        user.NormalizeEmail(in.Email),
		Phone:        user.NormalizePhone(in.Phone),
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = r.prom.ObserveDB("users.create", func() error {
		_, err := r.pool.Exec(ctx, `
			INSERT INTO users (id, email, phone, password_hash, first_name, last_name, role, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			u.ID, u.Email, nullable(u.Phone), u.PasswordHash, u.FirstName, u.LastName, u.Role, u.CreatedAt, u.UpdatedAt,
		)
		return err
	})
	if err != nil {
		return user.User{}, mapWriteErr(err)
	}

	return u, nil
}

func (r *UsersRepo) FindByID(ctx context.Context, id string) (user.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return user.User{}, user.ErrNotFound
	}
	return r.findOne(ctx, "users.get_by_id", `id = $1`, id)
}

func (r *UsersRepo) FindByEmail(ctx context.Context, email string) (user.User, error) {
	return r.findOne(ctx, "users.get_by_email", `email = $1`, user.NormalizeEmail(email))
}

func (r *UsersRepo) FindByPhone(ctx context.Context, phone string) (user.User, error) {
	phone = user.NormalizePhone(phone)
	if phone == "" {
		return user.User{}, user.ErrNotFound
	}
	return r.findOne(ctx, "users.get_by_phone", `phone = $1`, phone)
}

func (r *UsersRepo) IsLocked(u user.User) bool {
	return user.IsLocked(u, r.now())
}

func (r *UsersRepo) VerifyPassword(u user.User, plain string) bool {
	return r.hasher.Verify(u.PasswordHash, plain)
}

func (r *UsersRepo) RecordFailedLogin(ctx context.Context, id string) (user.User, error) {
	return r.mutate(ctx, "users.record_failed_login", id, func(u *user.User) error {
		r.policy.RegisterFailure(u, r.now())
		return nil
	})
}

func (r *UsersRepo) RecordSuccessfulLogin(ctx context.Context, id string) (user.User, error) {
	return r.mutate(ctx, "users.record_successful_login", id, func(u *user.User) error {
		user.RegisterSuccess(u, r.now())
		return nil
	})
}

func (r *UsersRepo) MarkEmailVerified(ctx context.Context, id, email string) (user.User, error) {
	return r.mutate(ctx, "users.mark_email_verified", id, func(u *user.User) error {
		if u.Email != user.NormalizeEmail(email) {
			return user.ErrNotFound
		}
		u.EmailVerified = true
		u.UpdatedAt = r.now()
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

	return r.mutate(ctx, "users.update", id, func(u *user.User) error {
		applyUpdates(u, upd, hash)
		u.UpdatedAt = r.now()
		return nil
	})
}

func (r *UsersRepo) DeleteUser(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return user.ErrNotFound
	}

	var tag pgconn.CommandTag
	err := r.prom.ObserveDB("users.delete", func() error {
		var err error
		tag, err = r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
		return err
	})
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return user.ErrNotFound
	}
	return nil
}

// helpers

func (r *UsersRepo) findOne(ctx context.Context, op, where string, arg any) (user.User, error) {
	var u user.User

	err := r.prom.ObserveDB(op, func() error {
		var err error
		u, err = scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg))
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}

	return u, nil
}

func (r *UsersRepo) mutate(ctx context.Context, op, id string, fn func(u *user.User) error) (u user.User, err error) {
	if _, err := uuid.Parse(id); err != nil {
		return user.User{}, user.ErrNotFound
	}

	err = r.prom.ObserveDB(op, func() error {
		tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(ctx) }()

		u, err = scanUser(tx.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return err
		}

		if err := fn(&u); err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
			UPDATE users SET
				email = $2, phone = $3, password_hash = $4, first_name = $5, last_name = $6,
				email_verified = $7, phone_verified = $8, failed_login_attempts = $9,
				lock_until = $10, updated_at = $11, last_login_at = $12
			WHERE id = $1`,
			u.ID, u.Email, nullable(u.Phone), u.PasswordHash, u.FirstName, u.LastName,
			u.EmailVerified, u.PhoneVerified, u.FailedLoginAttempts,
			u.LockUntil, u.UpdatedAt, u.LastLoginAt,
		)
		if err != nil {
			return err
		}

		return tx.Commit(ctx)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, mapWriteErr(err)
	}

	return u, nil
}

// applyUpdates merges upd into u, resetting verification flags for changed
// contact details. hash is the pre-computed hash of upd.Password.
func applyUpdates(u *user.User, upd user.Updates, hash string) {
	if upd.Email != nil {
		if email := user.NormalizeEmail(*upd.Email); email != u.Email {
			u.Email = email
			u.EmailVerified = false
		}
	}
	if upd.Phone != nil {
		if phone := user.NormalizePhone(*upd.Phone); phone != u.Phone {
			u.Phone = phone
			u.PhoneVerified = false
		}
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
}

func scanUser(row pgx.Row) (user.User, error) {
	var (
		u     user.User
		phone *string
	)

	err := row.Scan(
		&u.ID,
		&u.Email,
		&phone,
		&u.PasswordHash,
		&u.FirstName,
		&u.LastName,
		&u.EmailVerified,
		&u.PhoneVerified,
		&u.FailedLoginAttempts,
		&u.LockUntil,
		&u.Role,
		&u.CreatedAt,
		&u.UpdatedAt,
		&u.LastLoginAt,
	)
	if err != nil {
		return user.User{}, err
	}

	if phone != nil {
		u.Phone = *phone
	}
	return u, nil
}

func mapWriteErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		switch pgErr.ConstraintName {
		case emailConstraint:
			return user.ErrDuplicateEmail
		case phoneConstraint:
			return user.ErrDuplicatePhone
		}
	}

	if errors.Is(err, user.ErrNotFound) {
		return err
	}
	return fmt.Errorf("users: %w", err)
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
