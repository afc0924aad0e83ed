package repository

import (
	"context"

	"carrental/internal/domain"
)

// UserRepository defines the persistence operations for users.
type UserRepository interface {
	// Create persists a new user. Returns ErrDuplicate when the email is taken.
	Create(ctx context.Context, user *domain.User) error

	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetAll(ctx context.Context) ([]*domain.User, error)

	// MarkEmailVerified flags the user's email as verified.
	MarkEmailVerified(ctx context.Context, id string) error
}
