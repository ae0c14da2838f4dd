package credentials

import (
	"context"

	"github.com/geocoder89/storefront/internal/domain/user"
)

// UserDirectory is the record store the service authenticates against.
// memory.UsersRepo and postgres.UsersRepo both satisfy it.
type UserDirectory interface {
	CreateUser(ctx context.Context, in user.NewUser) (user.User, error)
	FindByID(ctx context.Context, id string) (user.User, error)
	FindByEmail(ctx context.Context, email string) (user.User, error)
	FindByPhone(ctx context.Context, phone string) (user.User, error)

	IsLocked(u user.User) bool
	VerifyPassword(u user.User, plain string) bool

	RecordFailedLogin(ctx context.Context, id string) (user.User, error)
	RecordSuccessfulLogin(ctx context.Context, id string) (user.User, error)
	MarkEmailVerified(ctx context.Context, id, email string) (user.User, error)
	UpdateUser(ctx context.Context, id string, upd user.Updates) (user.User, error)
	DeleteUser(ctx context.Context, id string) error
}
