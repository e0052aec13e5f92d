package user

import (
	"context"
	"time"
)

// User is an account able to own conversations.
type User struct {
	ID             string
	Email          string
	HashedPassword string
	IsActive       bool
	IsSuperuser    bool
	IsVerified     bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// UpdateUserInput is a partial update; nil fields are left unchanged.
type UpdateUserInput struct {
	Email       *string
	Password    *string
	IsActive    *bool
	IsSuperuser *bool
	IsVerified  *bool
}

// HasPrivilegedChanges reports whether the update touches flags only a superuser may change.
func (in UpdateUserInput) HasPrivilegedChanges() bool {
	return in.IsActive != nil || in.IsSuperuser != nil || in.IsVerified != nil
}

// Repository persists users.
type Repository interface {
	Create(ctx context.Context, u *User) error
	// FindByID and FindByEmail return a NOT_FOUND platform error when no row matches.
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, u *User) error
	// Delete returns a NOT_FOUND platform error when no row matches.
	Delete(ctx context.Context, id string) error
}

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hashed, password string) bool
}
