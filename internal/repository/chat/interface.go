package chat

import (
	"context"

	"github.com/iyunix/go-converse/internal/domain"
)

// ChatRepository handles chat data operations.
type ChatRepository interface {
	Create(ctx context.Context, chat *domain.Chat) (*domain.Chat, error)
	FindByID(ctx context.Context, id uint) (*domain.Chat, error)
	FindByIDAndUserID(ctx context.Context, id, userID uint) (*domain.Chat, error)
	FindByUserIDWithPagination(ctx context.Context, userID uint, limit, offset int) ([]domain.Chat, int64, error)
	FindByProjectIDWithPagination(ctx context.Context, projectID uint, limit, offset int) ([]domain.Chat, int64, error)
	FindIDsByProjectID(ctx context.Context, projectID uint) ([]uint, error)
	UpdateFields(ctx context.Context, chatID, userID uint, fields map[string]interface{}) (*domain.Chat, error)
	SetTitleIfDefault(ctx context.Context, chatID uint, title string) (bool, error)
	TouchUpdatedAt(ctx context.Context, chatID uint) error
	Delete(ctx context.Context, chatID, userID uint) error
	DeleteByProjectID(ctx context.Context, projectID uint) (int64, error)
	CountByUserID(ctx context.Context, userID uint) (int64, error)
}
