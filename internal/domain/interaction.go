// File: internal/domain/interaction.go
package domain

import (
	"time"

	"gorm.io/datatypes"
)

// InputType describes what a turn carried.
type InputType string

const (
	InputTypeText     InputType = "text"
	InputTypeFile     InputType = "file"
	InputTypeTextFile InputType = "text+file"
)

// InputTypeFor derives the input type from the presence of text and files.
func InputTypeFor(text string, attachments []Attachment) InputType {
	switch {
	case len(attachments) > 0 && text != "":
		return InputTypeTextFile
	case len(attachments) > 0:
		return InputTypeFile
	default:
		return InputTypeText
	}
}

// InteractionStatus is the lifecycle state of a turn.
type InteractionStatus string

const (
	InteractionQueued     InteractionStatus = "queued"
	InteractionProcessing InteractionStatus = "processing"
	InteractionCompleted  InteractionStatus = "completed"
	InteractionFailed     InteractionStatus = "failed"
)

// StreamStatus tracks chunked delivery of a response.
type StreamStatus string

const (
	StreamNotStreamed StreamStatus = "not_streamed"
	StreamStreaming   StreamStatus = "streaming"
	StreamCompleted   StreamStatus = "completed"
	StreamFailed      StreamStatus = "failed"
)

// Interaction is one conversational turn: a user input and the assistant's response.
type Interaction struct {
	ID     uint `gorm:"primarykey" json:"id"`
	ChatID uint `gorm:"not null;index:idx_interactions_chat_created,priority:1" json:"chat_id"`
	UserID uint `gorm:"not null;index" json:"user_id"`

	Input    InteractionInput    `gorm:"embedded;embeddedPrefix:input_" json:"input"`
	Response InteractionResponse `gorm:"embedded;embeddedPrefix:response_" json:"response"`

	Status InteractionStatus `gorm:"size:20;not null;default:queued;index" json:"status"`

	Moderation  datatypes.JSON                `json:"moderation,omitempty"`
	IsEdited    bool                          `gorm:"not null;default:false" json:"is_edited"`
	Pinned      bool                          `gorm:"not null;default:false" json:"pinned"`
	EditHistory datatypes.JSONSlice[EditItem] `json:"edit_history,omitempty"`
	Tags        datatypes.JSONSlice[string]   `json:"tags,omitempty"`
	Metadata    datatypes.JSON                `json:"metadata,omitempty"`

	CreatedAt time.Time `gorm:"index:idx_interactions_chat_created,priority:2" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// InteractionInput is what the user submitted.
type InteractionInput struct {
	Text        string                          `gorm:"type:text" json:"text"`
	InputType   InputType                       `gorm:"size:20;not null;default:text" json:"input_type"`
	Attachments datatypes.JSONSlice[Attachment] `json:"attachments"`
	Language    string                          `gorm:"size:32" json:"language,omitempty"`
}

// InteractionResponse is what the assistant produced for the turn.
type InteractionResponse struct {
	Text              string                          `gorm:"type:text" json:"text"`
	InputType         InputType                       `gorm:"size:20;not null;default:text" json:"input_type"`
	Attachments       datatypes.JSONSlice[Attachment] `json:"attachments"`
	Model             string                          `gorm:"size:100" json:"model,omitempty"`
	Provider          string                          `gorm:"size:100" json:"provider,omitempty"`
	GenerationOptions datatypes.JSON                  `json:"generation_options,omitempty"`
	Tokens            TokenUsage                      `gorm:"embedded;embeddedPrefix:tokens_" json:"tokens"`
	Stream            StreamState                     `gorm:"embedded;embeddedPrefix:stream_" json:"stream"`
	Error             *ResponseError                  `gorm:"serializer:json" json:"error,omitempty"`
}

// TokenUsage is the provider's token accounting for a response.
type TokenUsage struct {
	PromptTokens     int `gorm:"not null;default:0" json:"prompt_tokens"`
	CompletionTokens int `gorm:"not null;default:0" json:"completion_tokens"`
	TotalTokens      int `gorm:"not null;default:0" json:"total_tokens"`
}

// StreamState records chunked delivery. The core never streams, so Status
// stays not_streamed unless a streaming transport fills it in.
type StreamState struct {
	Status StreamStatus                     `gorm:"size:20;not null;default:not_streamed" json:"status"`
	Chunks datatypes.JSONSlice[StreamChunk] `json:"chunks,omitempty"`
}

// StreamChunk is one ordered piece of a streamed response.
type StreamChunk struct {
	Index     int       `json:"index"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// ResponseError is the failure payload attached to a failed turn.
type ResponseError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// EditItem records one manual edit of a turn.
type EditItem struct {
	Field         string    `json:"field"`
	PreviousValue any       `json:"previous_value"`
	NewValue      any       `json:"new_value"`
	EditedBy      uint      `json:"edited_by"`
	EditedAt      time.Time `json:"edited_at"`
}

// Fail moves the interaction to the failed state with the given error.
func (i *Interaction) Fail(code, message string, details map[string]any) {
	i.Status = InteractionFailed
	i.Response.Error = &ResponseError{Code: code, Message: message, Details: details}
}
