// File: internal/repository/interaction/interface.go
package interaction

import (
	"context"

	"github.com/iyunix/go-converse/internal/domain"
)

// InteractionRepository handles conversation turn storage.
type InteractionRepository interface {
	Create(ctx context.Context, interaction *domain.Interaction) (*domain.Interaction, error)
	FindByID(ctx context.Context, interactionID uint) (*domain.Interaction, error)
	// FindByChatID returns every turn of a chat in creation order, ties broken by ID.
	FindByChatID(ctx context.Context, chatID uint) ([]domain.Interaction, error)
	Update(ctx context.Context, interaction *domain.Interaction) error
	CountByChatID(ctx context.Context, chatID uint) (int64, error)
	CountByStatus(ctx context.Context, status domain.InteractionStatus) (int64, error)
	DeleteByChatID(ctx context.Context, chatID uint) (int64, error)
	DeleteByChatIDs(ctx context.Context, chatIDs []uint) (int64, error)
}
