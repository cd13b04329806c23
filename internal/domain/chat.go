// File: internal/domain/chat.go
package domain

import (
	"time"

	"gorm.io/datatypes"
)

// DefaultChatTitle is the placeholder a chat carries until the first
// normalized response suggests a real title.
const DefaultChatTitle = "New Chat"

// Chat represents a single conversation thread.
type Chat struct {
	ID         uint           `gorm:"primarykey" json:"id"`
	UserID     uint           `gorm:"not null;index:idx_chats_user_created,priority:1" json:"user_id"`
	ProjectID  *uint          `gorm:"index" json:"project_id"`
	Title      string         `gorm:"size:200" json:"title"`
	IsArchived bool           `gorm:"not null;default:false" json:"is_archived"`
	Metadata   datatypes.JSON `json:"metadata,omitempty"`
	CreatedAt  time.Time      `gorm:"index:idx_chats_user_created,priority:2" json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// HasDefaultTitle reports whether the title is still the placeholder.
func (c *Chat) HasDefaultTitle() bool {
	return c.Title == DefaultChatTitle
}
