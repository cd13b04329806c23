// File: internal/services/chat/history.go
package chat

import (
	"sort"
	"time"

	"github.com/iyunix/go-converse/internal/domain"
)

// TranscriptTurn is one role-tagged entry of a conversation transcript.
type TranscriptTurn struct {
	Role          Role                `json:"role"`
	Content       string              `json:"content"`
	Attachments   []domain.Attachment `json:"attachments,omitempty"`
	InteractionID uint                `json:"interactionId"`
	CreatedAt     time.Time           `json:"createdAt"`
}

// Assemble turns stored interactions into a transcript ordered by
// (CreatedAt, ID). Each interaction yields a user turn when it has input
// text or attachments, followed by an assistant turn when it has response
// text or attachments. The input slice is not modified.
func Assemble(interactions []domain.Interaction) []TranscriptTurn {
	ordered := make([]*domain.Interaction, len(interactions))
	for i := range interactions {
		ordered[i] = &interactions[i]
	}
	sort.SliceStable(ordered, func(a, b int) bool {
		if !ordered[a].CreatedAt.Equal(ordered[b].CreatedAt) {
			return ordered[a].CreatedAt.Before(ordered[b].CreatedAt)
		}
		return ordered[a].ID < ordered[b].ID
	})

	turns := make([]TranscriptTurn, 0, 2*len(ordered))
	for _, it := range ordered {
		if it.Input.Text != "" || len(it.Input.Attachments) > 0 {
			turns = append(turns, TranscriptTurn{
				Role:          RoleUser,
				Content:       it.Input.Text,
				Attachments:   copyAttachments(it.Input.Attachments),
				InteractionID: it.ID,
				CreatedAt:     it.CreatedAt,
			})
		}
		if it.Response.Text != "" || len(it.Response.Attachments) > 0 {
			turns = append(turns, TranscriptTurn{
				Role:          RoleAssistant,
				Content:       it.Response.Text,
				Attachments:   copyAttachments(it.Response.Attachments),
				InteractionID: it.ID,
				CreatedAt:     it.CreatedAt,
			})
		}
	}
	return turns
}

func copyAttachments(in []domain.Attachment) []domain.Attachment {
	if len(in) == 0 {
		return nil
	}
	out := make([]domain.Attachment, len(in))
	copy(out, in)
	return out
}
