// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"

	"fittrack/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// ErrUserNotFound is returned when no user matches the lookup key.
var ErrUserNotFound = errors.New("user not found")

// UserRepository defines the persistence operations over the User entity.
type UserRepository interface {
	// Create persists a new user. A duplicate email surfaces as a domain conflict error.
	Create(ctx context.Context, user *entity.User) error

	// FindByID retrieves a user by their unique ID.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)

	// FindByEmail retrieves a user by their unique email address.
	FindByEmail(ctx context.Context, email string) (*entity.User, error)

	// FindByGoogleID retrieves a user by their linked Google subject identifier.
	FindByGoogleID(ctx context.Context, googleID string) (*entity.User, error)

	// Update persists changes to an existing user record.
	Update(ctx context.Context, user *entity.User) error
}
