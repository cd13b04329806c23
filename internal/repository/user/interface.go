package user

import (
	"context"

	"github.com/iyunix/go-converse/internal/domain"
)

// UserRepository handles user data operations.
type UserRepository interface {
	FindByID(ctx context.Context, id uint) (*domain.User, error)
	FindByExternalID(ctx context.Context, externalID string) (*domain.User, error)
	// FindOrCreate returns the user with the same ExternalID, inserting the given record if none exists.
	FindOrCreate(ctx context.Context, user *domain.User) (*domain.User, error)
}
