// File: internal/services/chat/errors.go
package chat

import (
	"errors"
	"fmt"
)

type ErrorType string

const (
	ErrTypeNotFound       ErrorType = "NOT_FOUND"
	ErrTypeValidation     ErrorType = "VALIDATION"
	ErrTypeUpstreamFailed ErrorType = "UPSTREAM_GATEWAY_FAILURE"
	ErrTypeInternal       ErrorType = "INTERNAL"

	// ErrTypeParseFailure tags a failed turn's error details when the model
	// output could not be parsed. It is stored, never returned.
	ErrTypeParseFailure ErrorType = "RESPONSE_PARSE_FAILURE"
)

// internalMessage is the only text an INTERNAL error shows to callers.
const internalMessage = "something went wrong while processing the request"

type ChatError struct {
	Type      ErrorType
	Operation string
	Message   string
	ChatID    uint
	UserID    uint
	Cause     error
}

func (e *ChatError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("Chat %s error in %s: %s (caused by: %v)",
			e.Type, e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("Chat %s error in %s: %s", e.Type, e.Operation, e.Message)
}

func (e *ChatError) Unwrap() error {
	return e.Cause
}

// UserMessage is the message safe to return to an API client. Causes are
// never included.
func (e *ChatError) UserMessage() string {
	if e.Type == ErrTypeInternal {
		return internalMessage
	}
	return e.Message
}

func NewValidationError(operation, msg string) *ChatError {
	return &ChatError{Type: ErrTypeValidation, Operation: operation, Message: msg}
}

func NewNotFoundError(operation, resource string, userID, id uint) *ChatError {
	return &ChatError{
		Type:      ErrTypeNotFound,
		Operation: operation,
		Message:   resource + " not found",
		UserID:    userID,
		ChatID:    id,
	}
}

func NewGatewayError(operation string, chatID uint, cause error) *ChatError {
	return &ChatError{
		Type:      ErrTypeUpstreamFailed,
		Operation: operation,
		Message:   "the AI provider could not produce a response",
		ChatID:    chatID,
		Cause:     cause,
	}
}

func NewInternalError(operation string, cause error) *ChatError {
	return &ChatError{Type: ErrTypeInternal, Operation: operation, Message: internalMessage, Cause: cause}
}

// AsChatError extracts a *ChatError from err's chain.
func AsChatError(err error) (*ChatError, bool) {
	var chatErr *ChatError
	if errors.As(err, &chatErr) {
		return chatErr, true
	}
	return nil, false
}

// IsType reports whether err is a ChatError of the given type.
func IsType(err error, t ErrorType) bool {
	chatErr, ok := AsChatError(err)
	return ok && chatErr.Type == t
}

// classify passes classified errors through and wraps everything else as INTERNAL.
func classify(operation string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := AsChatError(err); ok {
		return err
	}
	return NewInternalError(operation, err)
}
