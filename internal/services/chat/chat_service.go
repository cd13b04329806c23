// File: internal/services/chat/chat_service.go
package chat

import (
	"context"
	"errors"
	"strings"

	"github.com/iyunix/go-converse/internal/domain"
	"github.com/iyunix/go-converse/internal/repository"
	chatrepo "github.com/iyunix/go-converse/internal/repository/chat"
	interactionrepo "github.com/iyunix/go-converse/internal/repository/interaction"
	projectrepo "github.com/iyunix/go-converse/internal/repository/project"
)

// chatUpdatableFields maps the API field names a caller may change to columns.
var chatUpdatableFields = map[string]string{
	"title":      "title",
	"isArchived": "is_archived",
}

// ChatService owns chat-level operations: creation on demand, listing,
// history, allow-listed updates and cascading deletes.
type ChatService struct {
	config          *Config
	chatRepo        chatrepo.ChatRepository
	interactionRepo interactionrepo.InteractionRepository
	projectRepo     projectrepo.ProjectRepository
	tx              repository.Transactor
	logger          Logger

	turnLocks *chatLocks
}

func NewChatService(
	config *Config,
	chatRepo chatrepo.ChatRepository,
	interactionRepo interactionrepo.InteractionRepository,
	projectRepo projectrepo.ProjectRepository,
	tx repository.Transactor,
	logger Logger,
) (*ChatService, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, NewValidationError("config", err.Error())
	}
	if chatRepo == nil {
		return nil, NewValidationError("constructor", "chat repository is required")
	}
	if interactionRepo == nil {
		return nil, NewValidationError("constructor", "interaction repository is required")
	}
	if projectRepo == nil {
		return nil, NewValidationError("constructor", "project repository is required")
	}
	if tx == nil {
		return nil, NewValidationError("constructor", "transactor is required")
	}
	if logger == nil {
		logger = nopLogger{}
	}

	return &ChatService{
		config:          config,
		chatRepo:        chatRepo,
		interactionRepo: interactionRepo,
		projectRepo:     projectRepo,
		tx:              tx,
		logger:          logger,
		turnLocks:       newChatLocks(),
	}, nil
}

// GetOrCreateChat resolves chatID for userID, or creates a chat with the
// placeholder title when chatID is 0. A non-zero projectID must name one of
// the user's projects.
func (s *ChatService) GetOrCreateChat(ctx context.Context, userID, chatID, projectID uint) (*domain.Chat, error) {
	if chatID != 0 {
		chat, err := s.chatRepo.FindByIDAndUserID(ctx, chatID, userID)
		if err != nil {
			return nil, s.mapChatError("get_chat", userID, chatID, err)
		}
		return chat, nil
	}

	newChat := &domain.Chat{UserID: userID, Title: domain.DefaultChatTitle}
	if projectID != 0 {
		if _, err := s.projectRepo.FindByIDAndUserID(ctx, projectID, userID); err != nil {
			if errors.Is(err, projectrepo.ErrProjectNotFound) {
				return nil, NewNotFoundError("create_chat", "project", userID, projectID)
			}
			return nil, NewInternalError("create_chat", err)
		}
		newChat.ProjectID = &projectID
	}

	created, err := s.chatRepo.Create(ctx, newChat)
	if err != nil {
		return nil, NewInternalError("create_chat", err)
	}
	s.logger.Info("chat created", "chat_id", created.ID, "user_id", userID, "project_id", projectID)
	return created, nil
}

// ListChats returns one page of the user's chats, newest first.
func (s *ChatService) ListChats(ctx context.Context, userID uint, page, limit int) ([]domain.Chat, PageMeta, error) {
	page, limit = s.normalizePage(page, limit)

	chats, total, err := s.chatRepo.FindByUserIDWithPagination(ctx, userID, limit, (page-1)*limit)
	if err != nil {
		return nil, PageMeta{}, NewInternalError("list_chats", err)
	}
	if chats == nil {
		chats = []domain.Chat{}
	}
	return chats, NewPageMeta(page, limit, total), nil
}

// GetChatHistory loads a chat and its transcript. A chat without any
// interactions is reported as not found.
func (s *ChatService) GetChatHistory(ctx context.Context, userID, chatID uint) (*ChatHistory, error) {
	chat, err := s.chatRepo.FindByIDAndUserID(ctx, chatID, userID)
	if err != nil {
		return nil, s.mapChatError("get_chat_history", userID, chatID, err)
	}

	interactions, err := s.interactionRepo.FindByChatID(ctx, chatID)
	if err != nil {
		return nil, NewInternalError("get_chat_history", err)
	}
	if len(interactions) == 0 {
		return nil, NewNotFoundError("get_chat_history", "chat history", userID, chatID)
	}

	return &ChatHistory{
		Chat:         chat,
		Interactions: interactions,
		Transcript:   Assemble(interactions),
	}, nil
}

// UpdateChat applies the allow-listed fields and silently drops the rest.
func (s *ChatService) UpdateChat(ctx context.Context, userID, chatID uint, fields map[string]any) (*domain.Chat, error) {
	updates := make(map[string]interface{}, len(fields))
	for key, value := range fields {
		column, ok := chatUpdatableFields[key]
		if !ok {
			continue
		}
		switch column {
		case "title":
			title, ok := value.(string)
			if !ok {
				return nil, NewValidationError("update_chat", "title must be a string")
			}
			title = strings.TrimSpace(title)
			if title == "" {
				return nil, NewValidationError("update_chat", "title cannot be empty")
			}
			updates[column] = title
		case "is_archived":
			archived, ok := value.(bool)
			if !ok {
				return nil, NewValidationError("update_chat", "isArchived must be a boolean")
			}
			updates[column] = archived
		}
	}

	chat, err := s.chatRepo.UpdateFields(ctx, chatID, userID, updates)
	if err != nil {
		return nil, s.mapChatError("update_chat", userID, chatID, err)
	}
	return chat, nil
}

// DeleteChat removes the chat and all of its interactions in one transaction.
// With SerializeChatTurns it waits for a turn in flight on the chat to finish.
func (s *ChatService) DeleteChat(ctx context.Context, userID, chatID uint) error {
	unlock, err := s.lockChat(ctx, chatID)
	if err != nil {
		return NewInternalError("delete_chat", err)
	}
	defer unlock()

	var removed int64
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.chatRepo.FindByIDAndUserID(ctx, chatID, userID); err != nil {
			return err
		}
		n, err := s.interactionRepo.DeleteByChatID(ctx, chatID)
		if err != nil {
			return err
		}
		removed = n
		return s.chatRepo.Delete(ctx, chatID, userID)
	})
	if err != nil {
		return s.mapChatError("delete_chat", userID, chatID, err)
	}

	s.logger.Info("chat deleted", "chat_id", chatID, "user_id", userID, "interactions_removed", removed)
	return nil
}

// lockChat serializes work on one chat when SerializeChatTurns is set;
// otherwise it returns a no-op unlock.
func (s *ChatService) lockChat(ctx context.Context, chatID uint) (func(), error) {
	if !s.config.SerializeChatTurns {
		return func() {}, nil
	}
	return s.turnLocks.Lock(ctx, chatID)
}

// AssignTitle sets title only while the chat still has the placeholder.
// It reports whether this call set it.
func (s *ChatService) AssignTitle(ctx context.Context, chatID uint, title string) (bool, error) {
	applied, err := s.chatRepo.SetTitleIfDefault(ctx, chatID, title)
	if err != nil {
		return false, NewInternalError("assign_title", err)
	}
	return applied, nil
}

func (s *ChatService) normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = s.config.DefaultPageLimit
	}
	if limit > s.config.MaxPageLimit {
		limit = s.config.MaxPageLimit
	}
	return page, limit
}

func (s *ChatService) mapChatError(operation string, userID, chatID uint, err error) error {
	switch {
	case errors.Is(err, chatrepo.ErrChatNotFound):
		return NewNotFoundError(operation, "chat", userID, chatID)
	case errors.Is(err, repository.ErrInvalidInput):
		return NewValidationError(operation, err.Error())
	default:
		return classify(operation, err)
	}
}
