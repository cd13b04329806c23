// File: internal/handlers/health_handler.go
package handlers

import (
	"context"
	"net/http"
	"time"

	chatservice "github.com/iyunix/go-converse/internal/services/chat"
)

type HealthChecker interface {
	HealthCheck(ctx context.Context) chatservice.ServiceStatus
}

type HealthHandler struct {
	checker HealthChecker
	timeout time.Duration
}

func NewHealthHandler(checker HealthChecker) *HealthHandler {
	return &HealthHandler{checker: checker, timeout: 5 * time.Second}
}

// Health reports database and gateway status; 503 when either is down.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	status := h.checker.HealthCheck(ctx)
	if !status.IsHealthy {
		writeJSON(w, http.StatusServiceUnavailable, Envelope{
			Message: status.Message,
			Data:    status,
			Error:   &ErrorInfo{Code: "UNHEALTHY", Explanation: status.Message},
		})
		return
	}
	writeSuccess(w, http.StatusOK, status.Message, status, nil)
}
