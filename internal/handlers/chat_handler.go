// File: internal/handlers/chat_handler.go
package handlers

import (
	"net/http"

	"github.com/iyunix/go-converse/internal/domain"
	chatservice "github.com/iyunix/go-converse/internal/services/chat"
)

type ChatHandler struct {
	interactions chatservice.InteractionProvider
	chats        chatservice.ChatProvider
}

func NewChatHandler(interactions chatservice.InteractionProvider, chats chatservice.ChatProvider) *ChatHandler {
	return &ChatHandler{interactions: interactions, chats: chats}
}

type addInteractionRequest struct {
	Text        string              `json:"text"`
	Attachments []domain.Attachment `json:"attachments"`
	ChatID      uint                `json:"chatId"`
	ProjectID   uint                `json:"projectId"`
	Language    string              `json:"language"`
	Model       string              `json:"model"`
}

// AddInteraction handles POST /chats. A turn whose reply could not be used
// is still a 201: the message was stored and the turn carries the error.
func (h *ChatHandler) AddInteraction(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req addInteractionRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, string(chatservice.ErrTypeValidation), "Malformed request body.")
		return
	}

	turn, err := h.interactions.AddInteraction(r.Context(), chatservice.AddInteractionRequest{
		UserID:      userID,
		ChatID:      req.ChatID,
		ProjectID:   req.ProjectID,
		Text:        req.Text,
		Attachments: req.Attachments,
		Language:    req.Language,
		Model:       req.Model,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	message := "Interaction recorded"
	if turn.Status == domain.InteractionFailed {
		message = "Interaction recorded; the assistant reply failed"
	}
	writeSuccess(w, http.StatusCreated, message, turn, nil)
}

// ListChats handles GET /chats?page=&limit=.
func (h *ChatHandler) ListChats(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	page, limit := pageParams(r)
	chats, meta, err := h.chats.ListChats(r.Context(), userID, page, limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Chats retrieved", chats, meta)
}

// GetChat handles GET /chats/{id}; ?format=html adds rendered turns.
func (h *ChatHandler) GetChat(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	chatID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	history, err := h.chats.GetChatHistory(r.Context(), userID, chatID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if r.URL.Query().Get("format") == "html" {
		rendered, err := renderHistory(history)
		if err != nil {
			writeServiceError(w, r, chatservice.NewInternalError("render_history", err))
			return
		}
		writeSuccess(w, http.StatusOK, "Chat retrieved", rendered, nil)
		return
	}
	writeSuccess(w, http.StatusOK, "Chat retrieved", history, nil)
}

// UpdateChat handles PATCH /chats/{id}. Fields outside the allow-list are dropped.
func (h *ChatHandler) UpdateChat(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	chatID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var fields map[string]any
	if err := decodeBody(w, r, &fields); err != nil {
		writeError(w, http.StatusBadRequest, string(chatservice.ErrTypeValidation), "Malformed request body.")
		return
	}

	chat, err := h.chats.UpdateChat(r.Context(), userID, chatID, fields)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Chat updated", chat, nil)
}

// DeleteChat handles DELETE /chats/{id}.
func (h *ChatHandler) DeleteChat(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	chatID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.chats.DeleteChat(r.Context(), userID, chatID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Chat deleted", nil, nil)
}
