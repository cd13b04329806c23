// File: internal/repository/chat/chat_repository.go
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/iyunix/go-converse/internal/domain"
	"github.com/iyunix/go-converse/internal/repository"
)

var ErrChatNotFound = errors.New("chat not found")

const maxPageSize = 1000

type gormChatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) ChatRepository {
	return &gormChatRepository{db: db}
}

// Create validates and inserts a chat.
func (r *gormChatRepository) Create(ctx context.Context, chat *domain.Chat) (*domain.Chat, error) {
	if err := r.validateChatInput(chat); err != nil {
		log.Warn().Err(err).Msg("[ChatRepository] validation failed")
		return nil, fmt.Errorf("%w: %v", repository.ErrInvalidInput, err)
	}

	if err := repository.Conn(ctx, r.db).Create(chat).Error; err != nil {
		log.Error().Err(err).Uint("user_id", chat.UserID).Msg("[ChatRepository] database error during chat creation")
		return nil, errors.New("database error creating chat")
	}

	log.Debug().Uint("chat_id", chat.ID).Uint("user_id", chat.UserID).Msg("[ChatRepository] chat created")
	return chat, nil
}

func (r *gormChatRepository) FindByID(ctx context.Context, chatID uint) (*domain.Chat, error) {
	if chatID == 0 {
		return nil, ErrChatNotFound
	}

	var chat domain.Chat
	err := repository.Conn(ctx, r.db).First(&chat, chatID).Error
	return r.handleFindError(err, &chat, "FindByID")
}

// FindByIDAndUserID loads a chat only if it belongs to userID. A chat owned by
// someone else is reported as not found.
func (r *gormChatRepository) FindByIDAndUserID(ctx context.Context, chatID, userID uint) (*domain.Chat, error) {
	if chatID == 0 || userID == 0 {
		return nil, ErrChatNotFound
	}

	var chat domain.Chat
	err := repository.Conn(ctx, r.db).
		Where("id = ? AND user_id = ?", chatID, userID).
		First(&chat).Error
	return r.handleFindError(err, &chat, "FindByIDAndUserID")
}

// FindByUserIDWithPagination returns one page of a user's chats, newest first,
// along with the user's total chat count.
func (r *gormChatRepository) FindByUserIDWithPagination(ctx context.Context, userID uint, limit, offset int) ([]domain.Chat, int64, error) {
	if userID == 0 {
		return nil, 0, errors.New("invalid user ID")
	}
	return r.paginate(ctx, "user_id = ?", userID, limit, offset)
}

// FindByProjectIDWithPagination returns one page of a project's chats, newest first.
func (r *gormChatRepository) FindByProjectIDWithPagination(ctx context.Context, projectID uint, limit, offset int) ([]domain.Chat, int64, error) {
	if projectID == 0 {
		return nil, 0, errors.New("invalid project ID")
	}
	return r.paginate(ctx, "project_id = ?", projectID, limit, offset)
}

func (r *gormChatRepository) paginate(ctx context.Context, where string, arg uint, limit, offset int) ([]domain.Chat, int64, error) {
	if limit <= 0 || limit > maxPageSize {
		return nil, 0, fmt.Errorf("invalid limit: must be between 1 and %d", maxPageSize)
	}
	if offset < 0 {
		return nil, 0, errors.New("invalid offset: must be >= 0")
	}

	var (
		chats []domain.Chat
		total int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return repository.Conn(gctx, r.db).Model(&domain.Chat{}).Where(where, arg).Count(&total).Error
	})
	g.Go(func() error {
		return repository.Conn(gctx, r.db).
			Where(where, arg).
			Order("created_at DESC, id DESC").
			Limit(limit).
			Offset(offset).
			Find(&chats).Error
	})
	if err := g.Wait(); err != nil {
		log.Error().Err(err).Str("filter", where).Uint("value", arg).Msg("[ChatRepository] database error in paginated query")
		return nil, 0, errors.New("database error retrieving paginated chats")
	}

	return chats, total, nil
}

func (r *gormChatRepository) FindIDsByProjectID(ctx context.Context, projectID uint) ([]uint, error) {
	var ids []uint
	err := repository.Conn(ctx, r.db).
		Model(&domain.Chat{}).
		Where("project_id = ?", projectID).
		Pluck("id", &ids).Error
	if err != nil {
		log.Error().Err(err).Uint("project_id", projectID).Msg("[ChatRepository] database error listing project chat IDs")
		return nil, errors.New("database error listing project chats")
	}
	return ids, nil
}

// UpdateFields applies an already-filtered set of column updates to a chat
// owned by userID and returns the reloaded record.
func (r *gormChatRepository) UpdateFields(ctx context.Context, chatID, userID uint, fields map[string]interface{}) (*domain.Chat, error) {
	if title, ok := fields["title"].(string); ok {
		if err := r.validateChatTitle(title); err != nil {
			return nil, fmt.Errorf("%w: title %v", repository.ErrInvalidInput, err)
		}
	}

	chat, err := r.FindByIDAndUserID(ctx, chatID, userID)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return chat, nil
	}

	if err := repository.Conn(ctx, r.db).Model(chat).Updates(fields).Error; err != nil {
		log.Error().Err(err).Uint("chat_id", chatID).Msg("[ChatRepository] database error updating chat")
		return nil, errors.New("database error updating chat")
	}
	return r.FindByID(ctx, chatID)
}

// SetTitleIfDefault replaces the title only while it still holds the
// placeholder. The condition is evaluated by the database, so concurrent
// callers cannot both win. Returns whether this call set the title.
func (r *gormChatRepository) SetTitleIfDefault(ctx context.Context, chatID uint, title string) (bool, error) {
	title = strings.TrimSpace(title)
	if title == "" || title == domain.DefaultChatTitle {
		return false, nil
	}
	if err := r.validateChatTitle(title); err != nil {
		return false, fmt.Errorf("%w: title %v", repository.ErrInvalidInput, err)
	}

	result := repository.Conn(ctx, r.db).
		Model(&domain.Chat{}).
		Where("id = ? AND title = ?", chatID, domain.DefaultChatTitle).
		Update("title", title)
	if result.Error != nil {
		log.Error().Err(result.Error).Uint("chat_id", chatID).Msg("[ChatRepository] database error setting title")
		return false, errors.New("database error setting chat title")
	}
	return result.RowsAffected == 1, nil
}

func (r *gormChatRepository) TouchUpdatedAt(ctx context.Context, chatID uint) error {
	result := repository.Conn(ctx, r.db).
		Model(&domain.Chat{}).
		Where("id = ?", chatID).
		Update("updated_at", time.Now())
	if result.Error != nil {
		log.Error().Err(result.Error).Uint("chat_id", chatID).Msg("[ChatRepository] database error updating timestamp")
		return errors.New("database error updating chat timestamp")
	}
	if result.RowsAffected == 0 {
		return ErrChatNotFound
	}
	return nil
}

// Delete removes a single chat owned by userID. It does not touch the chat's
// interactions; callers cascade explicitly.
func (r *gormChatRepository) Delete(ctx context.Context, chatID, userID uint) error {
	result := repository.Conn(ctx, r.db).
		Where("id = ? AND user_id = ?", chatID, userID).
		Delete(&domain.Chat{})
	if result.Error != nil {
		log.Error().Err(result.Error).Uint("chat_id", chatID).Uint("user_id", userID).Msg("[ChatRepository] database error deleting chat")
		return errors.New("database error deleting chat")
	}
	if result.RowsAffected == 0 {
		return ErrChatNotFound
	}

	log.Info().Uint("chat_id", chatID).Uint("user_id", userID).Msg("[ChatRepository] chat deleted")
	return nil
}

func (r *gormChatRepository) DeleteByProjectID(ctx context.Context, projectID uint) (int64, error) {
	result := repository.Conn(ctx, r.db).
		Where("project_id = ?", projectID).
		Delete(&domain.Chat{})
	if result.Error != nil {
		log.Error().Err(result.Error).Uint("project_id", projectID).Msg("[ChatRepository] database error deleting project chats")
		return 0, errors.New("database error deleting project chats")
	}
	return result.RowsAffected, nil
}

func (r *gormChatRepository) CountByUserID(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := repository.Conn(ctx, r.db).Model(&domain.Chat{}).Where("user_id = ?", userID).Count(&count).Error
	if err != nil {
		log.Error().Err(err).Uint("user_id", userID).Msg("[ChatRepository] database error counting chats")
		return 0, errors.New("database error counting user chats")
	}
	return count, nil
}

// ===== VALIDATION HELPERS =====

func (r *gormChatRepository) validateChatInput(chat *domain.Chat) error {
	if chat == nil {
		return errors.New("chat cannot be nil")
	}
	if chat.UserID == 0 {
		return errors.New("user ID is required")
	}
	if err := r.validateChatTitle(chat.Title); err != nil {
		return fmt.Errorf("title: %w", err)
	}
	return nil
}

func (r *gormChatRepository) validateChatTitle(title string) error {
	if len(title) > 200 {
		return errors.New("title must be 200 characters or less")
	}
	// Basic XSS protection
	if strings.Contains(title, "<script") || strings.Contains(title, "javascript:") {
		return errors.New("invalid characters detected in title")
	}
	return nil
}

// handleFindError maps driver errors to the repository sentinel without leaking details.
func (r *gormChatRepository) handleFindError(err error, chat *domain.Chat, operation string) (*domain.Chat, error) {
	if err == nil {
		return chat, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrChatNotFound
	}

	log.Error().Err(err).Str("operation", operation).Msg("[ChatRepository] database error")
	return nil, errors.New("database query failed")
}
