// File: internal/services/chat_service.go
package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/iyunix/go-converse/internal/domain"
	"github.com/iyunix/go-converse/internal/metrics"
	"github.com/iyunix/go-converse/internal/repository"
	"github.com/iyunix/go-converse/internal/repository/chat"
	"github.com/iyunix/go-converse/internal/repository/interaction"
	"github.com/iyunix/go-converse/internal/repository/project"
	"github.com/iyunix/go-converse/internal/services/ai"
	chatservice "github.com/iyunix/go-converse/internal/services/chat"
)

// statusReporter is implemented by gateways that can report their health.
type statusReporter interface {
	GetStatus(ctx context.Context) ai.ProviderStatus
}

// ChatService is the entry point the HTTP layer talks to. It wires the
// chat, project and interaction components over one database.
type ChatService struct {
	db           *gorm.DB
	gateway      ai.Gateway
	chats        *chatservice.ChatService
	projects     *chatservice.ProjectService
	interactions *chatservice.InteractionService
	logger       Logger
}

var _ chatservice.Service = (*ChatService)(nil)

func NewChatService(
	db *gorm.DB,
	gateway ai.Gateway,
	config *chatservice.Config,
	m *metrics.Metrics,
	logger Logger,
) (*ChatService, error) {
	if db == nil {
		return nil, chatservice.NewValidationError("constructor", "database is required")
	}
	if logger == nil {
		logger = &NoOpLogger{}
	}

	chats, err := chatservice.NewChatService(
		config,
		chat.NewChatRepository(db),
		interaction.NewInteractionRepository(db),
		project.NewProjectRepository(db),
		repository.NewTransactor(db),
		logger,
	)
	if err != nil {
		return nil, err
	}

	projects, err := chatservice.NewProjectService(chats)
	if err != nil {
		return nil, err
	}

	interactions, err := chatservice.NewInteractionService(chats, gateway, m)
	if err != nil {
		return nil, err
	}

	return &ChatService{
		db:           db,
		gateway:      gateway,
		chats:        chats,
		projects:     projects,
		interactions: interactions,
		logger:       logger,
	}, nil
}

// Interactions
func (s *ChatService) AddInteraction(ctx context.Context, req chatservice.AddInteractionRequest) (*chatservice.AssistantTurn, error) {
	return s.interactions.AddInteraction(ctx, req)
}

// Chats
func (s *ChatService) ListChats(ctx context.Context, userID uint, page, limit int) ([]domain.Chat, chatservice.PageMeta, error) {
	return s.chats.ListChats(ctx, userID, page, limit)
}

func (s *ChatService) GetChatHistory(ctx context.Context, userID, chatID uint) (*chatservice.ChatHistory, error) {
	return s.chats.GetChatHistory(ctx, userID, chatID)
}

func (s *ChatService) UpdateChat(ctx context.Context, userID, chatID uint, fields map[string]any) (*domain.Chat, error) {
	return s.chats.UpdateChat(ctx, userID, chatID, fields)
}

func (s *ChatService) DeleteChat(ctx context.Context, userID, chatID uint) error {
	return s.chats.DeleteChat(ctx, userID, chatID)
}

// Projects
func (s *ChatService) CreateProject(ctx context.Context, userID uint, name, description string) (*domain.Project, error) {
	return s.projects.CreateProject(ctx, userID, name, description)
}

func (s *ChatService) ListProjects(ctx context.Context, userID uint, page, limit int) ([]domain.Project, chatservice.PageMeta, error) {
	return s.projects.ListProjects(ctx, userID, page, limit)
}

func (s *ChatService) ListProjectChats(ctx context.Context, userID, projectID uint, page, limit int) (*chatservice.ProjectChats, chatservice.PageMeta, error) {
	return s.projects.ListProjectChats(ctx, userID, projectID, page, limit)
}

func (s *ChatService) UpdateProject(ctx context.Context, userID, projectID uint, fields map[string]any) (*domain.Project, error) {
	return s.projects.UpdateProject(ctx, userID, projectID, fields)
}

func (s *ChatService) DeleteProject(ctx context.Context, userID, projectID uint) error {
	return s.projects.DeleteProject(ctx, userID, projectID)
}

// HealthCheck pings the database and asks the gateway for its status.
func (s *ChatService) HealthCheck(ctx context.Context) chatservice.ServiceStatus {
	status := chatservice.ServiceStatus{GatewayHealthy: true}

	if sqlDB, err := s.db.DB(); err == nil && sqlDB.PingContext(ctx) == nil {
		status.DatabaseHealthy = true
	}
	if reporter, ok := s.gateway.(statusReporter); ok {
		providerStatus := reporter.GetStatus(ctx)
		status.GatewayHealthy = providerStatus.IsHealthy
		status.Message = providerStatus.Message
	}

	status.IsHealthy = status.DatabaseHealthy && status.GatewayHealthy
	if !status.DatabaseHealthy {
		status.Message = "database unreachable"
		s.logger.Warn("health check failed", "database", false)
	}
	if status.Message == "" {
		status.Message = "ok"
	}
	return status
}
