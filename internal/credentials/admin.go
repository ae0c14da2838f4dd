package credentials

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/geocoder89/storefront/internal/domain/user"
)

type AdminAccount struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// EnsureAdmin creates the admin account on startup if it does not exist yet.
// Nothing happens when email or password is empty. This is the only path
// that creates users with the admin role.
func EnsureAdmin(ctx context.Context, dir UserDirectory, acct AdminAccount, log *slog.Logger) error {
	if acct.Email == "" || acct.Password == "" {
		return nil
	}

	_, err := dir.FindByEmail(ctx, acct.Email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, user.ErrNotFound) {
		return fmt.Errorf("find admin: %w", err)
	}

	u, err := dir.CreateUser(ctx, user.NewUser{
		Email:     acct.Email,
		Password:  acct.Password,
		FirstName: acct.FirstName,
		LastName:  acct.LastName,
		Role:      user.RoleAdmin,
	})
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			return nil
		}
		return fmt.Errorf("create admin: %w", err)
	}

	if log != nil {
		log.InfoContext(ctx, "admin user created", "user_id", u.ID)
	}
	return nil
}
