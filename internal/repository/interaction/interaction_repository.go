// File: internal/repository/interaction/interaction_repository.go
package interaction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/iyunix/go-converse/internal/domain"
	"github.com/iyunix/go-converse/internal/repository"
)

var ErrInteractionNotFound = errors.New("interaction not found")

const maxInputLength = 20000

type gormInteractionRepository struct {
	db *gorm.DB
}

func NewInteractionRepository(db *gorm.DB) InteractionRepository {
	return &gormInteractionRepository{db: db}
}

// Create validates and inserts a turn. Message content is never logged.
func (r *gormInteractionRepository) Create(ctx context.Context, interaction *domain.Interaction) (*domain.Interaction, error) {
	if err := r.validateInteractionInput(interaction); err != nil {
		log.Warn().Err(err).Msg("[InteractionRepository] validation failed")
		return nil, fmt.Errorf("%w: %v", repository.ErrInvalidInput, err)
	}

	if err := repository.Conn(ctx, r.db).Create(interaction).Error; err != nil {
		log.Error().Err(err).Uint("chat_id", interaction.ChatID).Msg("[InteractionRepository] database error during creation")
		return nil, errors.New("database error creating interaction")
	}

	log.Debug().Uint("interaction_id", interaction.ID).Uint("chat_id", interaction.ChatID).Msg("[InteractionRepository] interaction created")
	return interaction, nil
}

func (r *gormInteractionRepository) FindByID(ctx context.Context, interactionID uint) (*domain.Interaction, error) {
	if interactionID == 0 {
		return nil, ErrInteractionNotFound
	}

	var interaction domain.Interaction
	err := repository.Conn(ctx, r.db).First(&interaction, interactionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInteractionNotFound
	}
	if err != nil {
		log.Error().Err(err).Uint("interaction_id", interactionID).Msg("[InteractionRepository] FindByID database error")
		return nil, errors.New("database query failed")
	}
	return &interaction, nil
}

func (r *gormInteractionRepository) FindByChatID(ctx context.Context, chatID uint) ([]domain.Interaction, error) {
	var interactions []domain.Interaction
	err := repository.Conn(ctx, r.db).
		Where("chat_id = ?", chatID).
		Order("created_at ASC, id ASC").
		Find(&interactions).Error
	if err != nil {
		log.Error().Err(err).Uint("chat_id", chatID).Msg("[InteractionRepository] database error fetching chat interactions")
		return nil, errors.New("database error fetching interactions")
	}
	return interactions, nil
}

// Update persists every mutable column of an existing turn. It never
// inserts: a row removed underneath the caller yields ErrInteractionNotFound.
func (r *gormInteractionRepository) Update(ctx context.Context, interaction *domain.Interaction) error {
	if interaction.ID == 0 {
		return errors.New("invalid interaction ID")
	}

	interaction.UpdatedAt = time.Now()
	result := repository.Conn(ctx, r.db).
		Model(&domain.Interaction{}).
		Where("id = ?", interaction.ID).
		Select("*").
		Omit("id", "created_at").
		Updates(interaction)
	if result.Error != nil {
		log.Error().Err(result.Error).Uint("interaction_id", interaction.ID).Msg("[InteractionRepository] database error updating interaction")
		return errors.New("database error updating interaction")
	}
	if result.RowsAffected == 0 {
		log.Warn().Uint("interaction_id", interaction.ID).Msg("[InteractionRepository] update matched no row")
		return ErrInteractionNotFound
	}
	return nil
}

func (r *gormInteractionRepository) CountByChatID(ctx context.Context, chatID uint) (int64, error) {
	var count int64
	err := repository.Conn(ctx, r.db).Model(&domain.Interaction{}).Where("chat_id = ?", chatID).Count(&count).Error
	if err != nil {
		log.Error().Err(err).Uint("chat_id", chatID).Msg("[InteractionRepository] database error counting interactions")
		return 0, errors.New("database error counting interactions")
	}
	return count, nil
}

func (r *gormInteractionRepository) CountByStatus(ctx context.Context, status domain.InteractionStatus) (int64, error) {
	var count int64
	err := repository.Conn(ctx, r.db).Model(&domain.Interaction{}).Where("status = ?", status).Count(&count).Error
	if err != nil {
		log.Error().Err(err).Str("status", string(status)).Msg("[InteractionRepository] database error counting by status")
		return 0, errors.New("database error counting interactions")
	}
	return count, nil
}

func (r *gormInteractionRepository) DeleteByChatID(ctx context.Context, chatID uint) (int64, error) {
	result := repository.Conn(ctx, r.db).
		Where("chat_id = ?", chatID).
		Delete(&domain.Interaction{})
	if result.Error != nil {
		log.Error().Err(result.Error).Uint("chat_id", chatID).Msg("[InteractionRepository] database error deleting chat interactions")
		return 0, errors.New("database error deleting interactions")
	}

	log.Debug().Uint("chat_id", chatID).Int64("deleted", result.RowsAffected).Msg("[InteractionRepository] chat interactions deleted")
	return result.RowsAffected, nil
}

func (r *gormInteractionRepository) DeleteByChatIDs(ctx context.Context, chatIDs []uint) (int64, error) {
	if len(chatIDs) == 0 {
		return 0, nil
	}

	result := repository.Conn(ctx, r.db).
		Where("chat_id IN ?", chatIDs).
		Delete(&domain.Interaction{})
	if result.Error != nil {
		log.Error().Err(result.Error).Int("chats", len(chatIDs)).Msg("[InteractionRepository] database error in bulk delete")
		return 0, errors.New("database error deleting interactions")
	}
	return result.RowsAffected, nil
}

func (r *gormInteractionRepository) validateInteractionInput(interaction *domain.Interaction) error {
	if interaction == nil {
		return errors.New("interaction cannot be nil")
	}
	if interaction.ChatID == 0 {
		return errors.New("chat ID is required")
	}
	if interaction.UserID == 0 {
		return errors.New("user ID is required")
	}
	if len(interaction.Input.Text) > maxInputLength {
		return fmt.Errorf("input text must be %d characters or less", maxInputLength)
	}
	return nil
}
