// Package user owns the durable credential records: email, password hash and
// the per-user token version that drives global session invalidation.
package user

import (
	"context"
	"errors"
	"time"
)

// User is the durable account record. TokenVersion starts at zero on signup
// and only moves through BumpTokenVersion; any access token embedding an
// older value is rejected on its next use.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	TokenVersion int64     `json:"tokenVersion"`
	CreatedAt    time.Time `json:"createdAt"`
}

var (
	// ErrNotFound is returned when no user matches the lookup.
	ErrNotFound = errors.New("user not found")
	// ErrEmailTaken is returned when the unique email constraint fires on create.
	ErrEmailTaken = errors.New("email already registered")
)

// Store is the credential store contract the auth engine depends on.
type Store interface {
	Create(ctx context.Context, email, passwordHash string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)

	// TokenVersion reads the current version for id; ErrNotFound when the
	// user no longer exists.
	TokenVersion(ctx context.Context, id string) (int64, error)

	// BumpTokenVersion increments and returns the new version. Issued access
	// tokens embedding the old value become stale on their next check.
	BumpTokenVersion(ctx context.Context, id string) (int64, error)
}
