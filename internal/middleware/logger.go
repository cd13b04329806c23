// File: internal/middleware/logger.go
package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/iyunix/go-converse/internal/metrics"
)

// LoggingMiddleware assigns a request id, logs one line per request and
// records HTTP metrics. Register it with router.Use so the matched route
// template is available; unmatched requests are labelled "unmatched".
func LoggingMiddleware(logger zerolog.Logger, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			done := m.TrackInFlight()
			defer done()

			requestID := r.Header.Get(RequestIDHeader)
			if requestID == "" {
				requestID = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, requestID)
			ctx := context.WithValue(r.Context(), RequestIDKey, requestID)

			rw := newResponseWriter(w)
			next.ServeHTTP(rw, r.WithContext(ctx))

			duration := time.Since(start)
			route := routeTemplate(r)
			m.RecordHTTPRequest(r.Method, route, rw.statusCode, duration)

			event := logger.Info()
			if rw.statusCode >= http.StatusInternalServerError {
				event = logger.Error()
			}
			event.
				Str("request_id", requestID).
				Str("method", r.Method).
				Str("route", route).
				Int("status", rw.statusCode).
				Dur("duration", duration).
				Msg("request")
		})
	}
}

func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}
