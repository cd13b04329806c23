// File: internal/services/chat/interaction_service.go
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"gorm.io/datatypes"

	"github.com/iyunix/go-converse/internal/domain"
	"github.com/iyunix/go-converse/internal/metrics"
	interactionrepo "github.com/iyunix/go-converse/internal/repository/interaction"
	"github.com/iyunix/go-converse/internal/services/ai"
)

const maxInputLength = 20000

// InteractionService runs a single conversational turn from the user's
// message to the persisted assistant response.
type InteractionService struct {
	config          *Config
	chats           *ChatService
	interactionRepo interactionrepo.InteractionRepository
	gateway         ai.Gateway
	metrics         *metrics.Metrics
	logger          Logger
}

func NewInteractionService(
	chats *ChatService,
	gateway ai.Gateway,
	m *metrics.Metrics,
) (*InteractionService, error) {
	if chats == nil {
		return nil, NewValidationError("constructor", "chat service is required")
	}
	if gateway == nil {
		return nil, NewValidationError("constructor", "AI gateway is required")
	}

	return &InteractionService{
		config:          chats.config,
		chats:           chats,
		interactionRepo: chats.interactionRepo,
		gateway:         gateway,
		metrics:         m,
		logger:          chats.logger,
	}, nil
}

// AddInteraction records the user's message, asks the model for a reply and
// stores the normalized result. The interaction is first written as
// processing and always ends completed or failed.
//
// A model reply that cannot be parsed, or that reports an error, is not an
// error of this call: the returned turn has status failed and carries the
// error payload. Gateway failures return UPSTREAM_GATEWAY_FAILURE after the
// interaction has been marked failed.
func (s *InteractionService) AddInteraction(ctx context.Context, req AddInteractionRequest) (*AssistantTurn, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	chat, err := s.chats.GetOrCreateChat(ctx, req.UserID, req.ChatID, req.ProjectID)
	if err != nil {
		return nil, err
	}

	unlock, err := s.chats.lockChat(ctx, chat.ID)
	if err != nil {
		return nil, NewInternalError("add_interaction", err)
	}
	defer unlock()

	interaction, err := s.interactionRepo.Create(ctx, &domain.Interaction{
		ChatID: chat.ID,
		UserID: req.UserID,
		Input: domain.InteractionInput{
			Text:        req.Text,
			InputType:   domain.InputTypeFor(req.Text, req.Attachments),
			Attachments: req.Attachments,
			Language:    req.Language,
		},
		Response: domain.InteractionResponse{
			InputType: domain.InputTypeText,
			Stream:    domain.StreamState{Status: domain.StreamNotStreamed},
		},
		Status: domain.InteractionProcessing,
	})
	if err != nil {
		return nil, NewInternalError("add_interaction", err)
	}

	turn, err := s.completeTurn(ctx, chat, interaction, req)
	if err != nil {
		s.recordFailure(ctx, interaction, err)
		return nil, err
	}
	return turn, nil
}

func (s *InteractionService) completeTurn(
	ctx context.Context,
	chat *domain.Chat,
	interaction *domain.Interaction,
	req AddInteractionRequest,
) (*AssistantTurn, error) {
	stored, err := s.interactionRepo.FindByChatID(ctx, chat.ID)
	if err != nil {
		return nil, NewInternalError("load_history", err)
	}

	opts := PromptOptions{
		Model:        s.config.Model,
		Temperature:  s.config.Temperature,
		MaxTokens:    s.config.MaxTokens,
		HistoryLimit: s.config.HistoryLimit,
	}
	if req.Model != "" {
		opts.Model = req.Model
	}
	prompt := BuildPrompt(req.Text, Assemble(stored), opts)

	gen, err := s.generate(ctx, chat.ID, prompt, opts)
	if err != nil {
		return nil, err
	}

	normalized := Normalize(gen.Text)
	s.metrics.RecordNormalizerOutcome(string(normalized.Outcome))
	if normalized.Outcome == OutcomeFailed {
		s.logger.Warn("model output could not be parsed",
			"chat_id", chat.ID,
			"interaction_id", interaction.ID,
			"output_length", len(gen.Text),
		)
	}

	title := chat.Title
	if normalized.Error == nil && normalized.Title != "" && chat.HasDefaultTitle() {
		if title, err = s.applyTitle(ctx, chat, normalized.Title); err != nil {
			s.logger.Warn("title not assigned", "chat_id", chat.ID, "error", err)
			title = chat.Title
		}
	}

	applyResponse(interaction, gen, opts, normalized)
	if err := s.interactionRepo.Update(ctx, interaction); err != nil {
		if errors.Is(err, interactionrepo.ErrInteractionNotFound) {
			return nil, NewNotFoundError("save_response", "chat", req.UserID, chat.ID)
		}
		return nil, NewInternalError("save_response", err)
	}
	if err := s.chats.chatRepo.TouchUpdatedAt(ctx, chat.ID); err != nil {
		s.logger.Warn("failed to touch chat", "chat_id", chat.ID, "error", err)
	}

	s.metrics.RecordInteraction(string(interaction.Status))
	s.logger.Info("interaction completed",
		"chat_id", chat.ID,
		"interaction_id", interaction.ID,
		"status", interaction.Status,
		"outcome", normalized.Outcome,
	)

	return &AssistantTurn{
		ChatID:        chat.ID,
		InteractionID: interaction.ID,
		Role:          RoleAssistant,
		Content: TurnContent{
			Type:         normalized.ResponseType,
			Data:         interaction.Response.Text,
			ResponseData: normalized.ResponseData,
			Actions:      normalized.Actions,
			ShouldEnd:    normalized.ShouldEnd,
			Language:     normalized.Language,
		},
		Title:     title,
		Model:     gen.Model,
		Status:    interaction.Status,
		Error:     interaction.Response.Error,
		Timestamp: interaction.UpdatedAt,
	}, nil
}

// generate calls the gateway bounded by GatewayTimeout.
func (s *InteractionService) generate(ctx context.Context, chatID uint, prompt string, opts PromptOptions) (*ai.Generation, error) {
	gatewayCtx, cancel := context.WithTimeout(ctx, s.config.GatewayTimeout)
	defer cancel()

	start := time.Now()
	gen, err := s.gateway.Generate(gatewayCtx, prompt, opts.GenerateOptions())
	if err != nil {
		outcome := "error"
		if aiErr, ok := ai.AsAIError(err); ok {
			outcome = string(aiErr.Type)
		} else if gatewayCtx.Err() != nil {
			outcome = string(ai.ErrTypeTimeout)
		}
		s.metrics.RecordGatewayCall(opts.Model, outcome, time.Since(start))
		s.logger.Error("gateway call failed", "chat_id", chatID, "outcome", outcome, "error", err)
		return nil, NewGatewayError("generate", chatID, err)
	}

	s.metrics.RecordGatewayCall(opts.Model, "success", time.Since(start))
	s.metrics.RecordTokens(gen.Usage.PromptTokens, gen.Usage.CompletionTokens)
	if gen.Model == "" {
		gen.Model = opts.Model
	}
	return gen, nil
}

// applyTitle sets the suggested title once and returns the chat's current title.
func (s *InteractionService) applyTitle(ctx context.Context, chat *domain.Chat, suggested string) (string, error) {
	applied, err := s.chats.AssignTitle(ctx, chat.ID, suggested)
	if err != nil {
		return "", err
	}
	if applied {
		s.metrics.RecordTitleAssigned()
		chat.Title = strings.TrimSpace(suggested)
		return chat.Title, nil
	}

	// Another turn won the race; report what is stored.
	current, err := s.chats.chatRepo.FindByID(ctx, chat.ID)
	if err != nil {
		return "", NewInternalError("assign_title", err)
	}
	chat.Title = current.Title
	return current.Title, nil
}

// applyResponse moves the interaction to its terminal state.
func applyResponse(interaction *domain.Interaction, gen *ai.Generation, opts PromptOptions, normalized NormalizedResponse) {
	resp := &interaction.Response
	resp.InputType = domain.InputTypeText
	resp.Model = gen.Model
	resp.Provider = gen.Provider
	resp.GenerationOptions = marshalJSON(map[string]any{
		"model":       opts.Model,
		"temperature": opts.Temperature,
		"max_tokens":  opts.MaxTokens,
	})
	resp.Tokens = domain.TokenUsage{
		PromptTokens:     gen.Usage.PromptTokens,
		CompletionTokens: gen.Usage.CompletionTokens,
		TotalTokens:      gen.Usage.TotalTokens,
	}
	resp.Stream.Status = domain.StreamNotStreamed

	interaction.Metadata = marshalJSON(map[string]any{
		"response_type":      normalized.ResponseType,
		"response_data":      normalized.ResponseData,
		"actions":            normalized.Actions,
		"should_end":         normalized.ShouldEnd,
		"language":           normalized.Language,
		"metadata":           normalized.Metadata,
		"normalizer_outcome": normalized.Outcome,
		"schema_version":     ResponseSchemaVersion,
	})

	if normalized.Error != nil {
		details := map[string]any{"normalizer_outcome": string(normalized.Outcome)}
		if normalized.Outcome == OutcomeFailed {
			details["error_type"] = string(ErrTypeParseFailure)
		}
		if raw, ok := normalized.Metadata[RawOutputKey]; ok {
			details[RawOutputKey] = raw
		}
		if normalized.ResponseText != "" {
			details["response_text"] = normalized.ResponseText
		}
		resp.Text = ""
		interaction.Fail(normalized.Error.Code, normalized.Error.Message, details)
		return
	}

	resp.Text = normalized.ResponseText
	resp.Error = nil
	interaction.Status = domain.InteractionCompleted
}

// recordFailure marks an interaction whose turn did not complete as failed.
// It writes with a context detached from the request so a cancelled or
// timed-out request still leaves a terminal record.
func (s *InteractionService) recordFailure(ctx context.Context, interaction *domain.Interaction, cause error) {
	code := string(ErrTypeInternal)
	message := internalMessage
	details := map[string]any{}
	if chatErr, ok := AsChatError(cause); ok {
		code = string(chatErr.Type)
		message = chatErr.UserMessage()
	}
	if aiErr, ok := ai.AsAIError(cause); ok {
		details["error_type"] = string(aiErr.Type)
		details["retryable"] = aiErr.Retryable()
		if aiErr.Code != 0 {
			details["status_code"] = aiErr.Code
		}
	}
	interaction.Response.Text = ""
	interaction.Response.Stream.Status = domain.StreamNotStreamed
	interaction.Fail(code, message, details)

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.FailureWriteTimeout)
	defer cancel()
	if err := s.interactionRepo.Update(writeCtx, interaction); err != nil {
		if errors.Is(err, interactionrepo.ErrInteractionNotFound) {
			s.logger.Warn("interaction removed before its failure was recorded",
				"interaction_id", interaction.ID,
				"chat_id", interaction.ChatID,
			)
			return
		}
		s.logger.Error("failed to record interaction failure",
			"interaction_id", interaction.ID,
			"chat_id", interaction.ChatID,
			"error", err,
		)
		return
	}
	s.metrics.RecordInteraction(string(domain.InteractionFailed))
}

func validateRequest(req AddInteractionRequest) error {
	if req.UserID == 0 {
		return NewValidationError("add_interaction", "user is required")
	}
	if strings.TrimSpace(req.Text) == "" && len(req.Attachments) == 0 {
		return NewValidationError("add_interaction", "message text or attachments are required")
	}
	if len(req.Text) > maxInputLength {
		return NewValidationError("add_interaction", "message text is too long")
	}
	for _, a := range req.Attachments {
		if strings.TrimSpace(a.URL) == "" {
			return NewValidationError("add_interaction", "attachment url is required")
		}
	}
	return nil
}

func marshalJSON(v any) datatypes.JSON {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return datatypes.JSON(b)
}
