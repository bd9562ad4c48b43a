package identity

import "context"

type UserRepository interface {
	// Create persists a new user; a duplicate username yields a conflict
	// error.
	Create(ctx context.Context, u *User) error
	GetByUsername(ctx context.Context, username string) (*User, error)
}
