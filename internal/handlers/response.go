// File: internal/handlers/response.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/iyunix/go-converse/internal/middleware"
	chatservice "github.com/iyunix/go-converse/internal/services/chat"
)

// Envelope wraps every API response. Data and Error are always present so
// clients can read them without checking for the key.
type Envelope struct {
	Success bool       `json:"success"`
	Message string     `json:"message"`
	Data    any        `json:"data"`
	Meta    any        `json:"meta,omitempty"`
	Error   *ErrorInfo `json:"error"`
}

type ErrorInfo struct {
	Code        string `json:"code"`
	Explanation string `json:"explanation"`
}

// writeJSON is a helper for sending JSON responses.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("[Handlers] failed to encode response")
	}
}

func writeSuccess(w http.ResponseWriter, status int, message string, data, meta any) {
	writeJSON(w, status, Envelope{Success: true, Message: message, Data: data, Meta: meta})
}

func writeError(w http.ResponseWriter, status int, code, explanation string) {
	writeJSON(w, status, Envelope{
		Message: explanation,
		Error:   &ErrorInfo{Code: code, Explanation: explanation},
	})
}

// statusFor maps a service error class to its HTTP status.
func statusFor(errType chatservice.ErrorType) int {
	switch errType {
	case chatservice.ErrTypeNotFound:
		return http.StatusNotFound
	case chatservice.ErrTypeValidation:
		return http.StatusBadRequest
	case chatservice.ErrTypeUpstreamFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError renders a service error. Causes are logged, never sent.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	chatErr, ok := chatservice.AsChatError(err)
	if !ok {
		chatErr = chatservice.NewInternalError("handler", err)
	}

	status := statusFor(chatErr.Type)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).
			Str("request_id", middleware.RequestIDFromContext(r.Context())).
			Str("operation", chatErr.Operation).
			Msg("[Handlers] request failed")
	}
	writeError(w, status, string(chatErr.Type), chatErr.UserMessage())
}

func requireUser(w http.ResponseWriter, r *http.Request) (uint, bool) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "Authentication required.")
	}
	return userID, ok
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (uint, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)[name], 10, 32)
	if err != nil || id == 0 {
		writeError(w, http.StatusBadRequest, string(chatservice.ErrTypeValidation), "Invalid "+name+".")
		return 0, false
	}
	return uint(id), true
}

// pageParams reads ?page and ?limit; malformed values fall back to the
// service defaults.
func pageParams(r *http.Request) (page, limit int) {
	q := r.URL.Query()
	page, _ = strconv.Atoi(q.Get("page"))
	limit, _ = strconv.Atoi(q.Get("limit"))
	return page, limit
}

var errEmptyBody = errors.New("request body is required")

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return errEmptyBody
	}
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst)
}

const maxBodyBytes = 1 << 20
