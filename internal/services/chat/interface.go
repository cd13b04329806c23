// File: internal/services/chat/interface.go
package chat

import (
	"context"

	"github.com/iyunix/go-converse/internal/domain"
)

// InteractionProvider runs conversational turns
type InteractionProvider interface {
	AddInteraction(ctx context.Context, req AddInteractionRequest) (*AssistantTurn, error)
}

// ChatProvider handles chat-level operations
type ChatProvider interface {
	ListChats(ctx context.Context, userID uint, page, limit int) ([]domain.Chat, PageMeta, error)
	GetChatHistory(ctx context.Context, userID, chatID uint) (*ChatHistory, error)
	UpdateChat(ctx context.Context, userID, chatID uint, fields map[string]any) (*domain.Chat, error)
	DeleteChat(ctx context.Context, userID, chatID uint) error
}

// ProjectProvider handles projects and their chats
type ProjectProvider interface {
	CreateProject(ctx context.Context, userID uint, name, description string) (*domain.Project, error)
	ListProjects(ctx context.Context, userID uint, page, limit int) ([]domain.Project, PageMeta, error)
	ListProjectChats(ctx context.Context, userID, projectID uint, page, limit int) (*ProjectChats, PageMeta, error)
	UpdateProject(ctx context.Context, userID, projectID uint, fields map[string]any) (*domain.Project, error)
	DeleteProject(ctx context.Context, userID, projectID uint) error
}

// Service combines all chat capabilities
type Service interface {
	InteractionProvider
	ChatProvider
	ProjectProvider
	HealthCheck(ctx context.Context) ServiceStatus
}

// ServiceStatus represents chat service health
type ServiceStatus struct {
	IsHealthy       bool   `json:"healthy"`
	DatabaseHealthy bool   `json:"database"`
	GatewayHealthy  bool   `json:"gateway"`
	Message         string `json:"message"`
}
