// File: internal/services/chat/types.go
package chat

import (
	"time"

	"github.com/iyunix/go-converse/internal/domain"
)

// Logger defines the logging interface used across chat services
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Warn(string, ...interface{})  {}

// Role tags a transcript turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// AddInteractionRequest is one user message. ChatID 0 starts a new chat,
// optionally inside ProjectID.
type AddInteractionRequest struct {
	UserID      uint
	ChatID      uint
	ProjectID   uint
	Text        string
	Attachments []domain.Attachment
	Language    string
	Model       string
}

// TurnContent is the renderable part of an assistant turn.
type TurnContent struct {
	Type         string   `json:"type"`
	Data         string   `json:"data"`
	ResponseData any      `json:"responseData,omitempty"`
	Actions      []Action `json:"actions"`
	ShouldEnd    bool     `json:"shouldEnd"`
	Language     *string  `json:"language"`
}

// AssistantTurn is the result of AddInteraction.
type AssistantTurn struct {
	ChatID        uint                     `json:"chatId"`
	InteractionID uint                     `json:"interactionId"`
	Role          Role                     `json:"role"`
	Content       TurnContent              `json:"content"`
	Title         string                   `json:"title"`
	Model         string                   `json:"model"`
	Status        domain.InteractionStatus `json:"status"`
	Error         *domain.ResponseError    `json:"error,omitempty"`
	Timestamp     time.Time                `json:"timestamp"`
}

// PageMeta describes one page of an offset-paginated listing.
type PageMeta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
	HasNext    bool  `json:"hasNext"`
	HasPrev    bool  `json:"hasPrev"`
}

// NewPageMeta computes page metadata for total items.
func NewPageMeta(page, limit int, total int64) PageMeta {
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	return PageMeta{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}

// ChatHistory is a chat together with its transcript.
type ChatHistory struct {
	Chat         *domain.Chat         `json:"chat"`
	Interactions []domain.Interaction `json:"interactions"`
	Transcript   []TranscriptTurn     `json:"transcript"`
}

// ProjectChats is one page of a project's chats.
type ProjectChats struct {
	Project *domain.Project `json:"project"`
	Chats   []domain.Chat   `json:"chats"`
}
