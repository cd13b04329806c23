// File: internal/services/chat/project_service.go
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

var projectUpdatableFields = map[string]bool{
	"name":        true,
	"description": true,
}

// ProjectService manages projects and the chats grouped under them.
type ProjectService struct {
	chats           *ChatService
	chatRepo        chatrepo.ChatRepository
	interactionRepo interactionrepo.InteractionRepository
	projectRepo     projectrepo.ProjectRepository
	tx              repository.Transactor
	logger          Logger
}

// NewProjectService shares repositories and configuration with chats.
func NewProjectService(chats *ChatService) (*ProjectService, error) {
	if chats == nil {
		return nil, NewValidationError("constructor", "chat service is required")
	}
	return &ProjectService{
		chats:           chats,
		chatRepo:        chats.chatRepo,
		interactionRepo: chats.interactionRepo,
		projectRepo:     chats.projectRepo,
		tx:              chats.tx,
		logger:          chats.logger,
	}, nil
}

func (s *ProjectService) CreateProject(ctx context.Context, userID uint, name, description string) (*domain.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, NewValidationError("create_project", "project name is required")
	}

	project, err := s.projectRepo.Create(ctx, &domain.Project{
		UserID:      userID,
		Name:        name,
		Description: strings.TrimSpace(description),
	})
	if err != nil {
		return nil, s.mapProjectError("create_project", userID, 0, err)
	}
	s.logger.Info("project created", "project_id", project.ID, "user_id", userID)
	return project, nil
}

func (s *ProjectService) ListProjects(ctx context.Context, userID uint, page, limit int) ([]domain.Project, PageMeta, error) {
	page, limit = s.chats.normalizePage(page, limit)

	projects, total, err := s.projectRepo.FindByUserIDWithPagination(ctx, userID, limit, (page-1)*limit)
	if err != nil {
		return nil, PageMeta{}, NewInternalError("list_projects", err)
	}
	if projects == nil {
		projects = []domain.Project{}
	}
	return projects, NewPageMeta(page, limit, total), nil
}

// ListProjectChats returns the project together with one page of its chats.
func (s *ProjectService) ListProjectChats(ctx context.Context, userID, projectID uint, page, limit int) (*ProjectChats, PageMeta, error) {
	project, err := s.projectRepo.FindByIDAndUserID(ctx, projectID, userID)
	if err != nil {
		return nil, PageMeta{}, s.mapProjectError("list_project_chats", userID, projectID, err)
	}

	page, limit = s.chats.normalizePage(page, limit)
	chats, total, err := s.chatRepo.FindByProjectIDWithPagination(ctx, projectID, limit, (page-1)*limit)
	if err != nil {
		return nil, PageMeta{}, NewInternalError("list_project_chats", err)
	}
	if chats == nil {
		chats = []domain.Chat{}
	}
	return &ProjectChats{Project: project, Chats: chats}, NewPageMeta(page, limit, total), nil
}

// UpdateProject applies the allow-listed fields and silently drops the rest.
func (s *ProjectService) UpdateProject(ctx context.Context, userID, projectID uint, fields map[string]any) (*domain.Project, error) {
	updates := make(map[string]interface{}, len(fields))
	for key, value := range fields {
		if !projectUpdatableFields[key] {
			continue
		}
		str, ok := value.(string)
		if !ok {
			return nil, NewValidationError("update_project", key+" must be a string")
		}
		updates[key] = strings.TrimSpace(str)
	}

	project, err := s.projectRepo.UpdateFields(ctx, projectID, userID, updates)
	if err != nil {
		return nil, s.mapProjectError("update_project", userID, projectID, err)
	}
	return project, nil
}

// DeleteProject removes the project, its chats and their interactions in
// one transaction.
func (s *ProjectService) DeleteProject(ctx context.Context, userID, projectID uint) error {
	var chatsRemoved, interactionsRemoved int64
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.projectRepo.FindByIDAndUserID(ctx, projectID, userID); err != nil {
			return err
		}

		chatIDs, err := s.chatRepo.FindIDsByProjectID(ctx, projectID)
		if err != nil {
			return err
		}
		if interactionsRemoved, err = s.interactionRepo.DeleteByChatIDs(ctx, chatIDs); err != nil {
			return err
		}
		if chatsRemoved, err = s.chatRepo.DeleteByProjectID(ctx, projectID); err != nil {
			return err
		}
		return s.projectRepo.Delete(ctx, projectID, userID)
	})
	if err != nil {
		return s.mapProjectError("delete_project", userID, projectID, err)
	}

	s.logger.Info("project deleted",
		"project_id", projectID,
		"user_id", userID,
		"chats_removed", chatsRemoved,
		"interactions_removed", interactionsRemoved,
	)
	return nil
}

func (s *ProjectService) mapProjectError(operation string, userID, projectID uint, err error) error {
	switch {
	case errors.Is(err, projectrepo.ErrProjectNotFound):
		return NewNotFoundError(operation, "project", userID, projectID)
	case errors.Is(err, repository.ErrInvalidInput):
		return NewValidationError(operation, err.Error())
	default:
		return classify(operation, err)
	}
}
