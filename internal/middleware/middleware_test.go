package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	dto "github.com/prometheus/client_model/go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iyunix/go-converse/internal/auth"
	"github.com/iyunix/go-converse/internal/domain"
	"github.com/iyunix/go-converse/internal/metrics"
	"github.com/iyunix/go-converse/internal/ratelimit"
	"github.com/iyunix/go-converse/internal/services/user_services"
)

var secret = []byte("middleware-secret")

type fakeProvisioner struct {
	seen []user_services.Identity
	err  error
}

func (f *fakeProvisioner) Provision(_ context.Context, identity user_services.Identity) (*domain.User, error) {
	f.seen = append(f.seen, identity)
	if f.err != nil {
		return nil, f.err
	}
	return &domain.User{ID: 42, ExternalID: identity.Subject, Email: identity.Email}, nil
}

func echoUser(w http.ResponseWriter, r *http.Request) {
	id, ok := UserIDFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusTeapot)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]uint{"user_id": id})
}

func decodeError(t *testing.T, body *bytes.Buffer) errorBody {
	t.Helper()
	var out errorBody
	require.NoError(t, json.Unmarshal(body.Bytes(), &out))
	return out
}

func counterValue(t *testing.T, c interface{ Write(*dto.Metric) error }) float64 {
	t.Helper()
	var out dto.Metric
	require.NoError(t, c.Write(&out))
	return out.GetCounter().GetValue()
}

func TestAuthMiddleware(t *testing.T) {
	verifier, err := auth.NewVerifier(secret, "issuer")
	require.NoError(t, err)
	token, err := auth.GenerateJWT("user_abc", "a@example.com", "issuer", time.Hour, secret)
	require.NoError(t, err)

	tests := []struct {
		name       string
		prepare    func(r *http.Request)
		provision  error
		wantStatus int
	}{
		{
			name:       "bearer header",
			prepare:    func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) },
			wantStatus: http.StatusOK,
		},
		{
			name:       "session cookie",
			prepare:    func(r *http.Request) { r.AddCookie(&http.Cookie{Name: SessionCookie, Value: token}) },
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing",
			prepare:    func(r *http.Request) {},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong scheme",
			prepare:    func(r *http.Request) { r.Header.Set("Authorization", "Basic "+token) },
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "tampered",
			prepare:    func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token+"x") },
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "provisioning fails",
			prepare:    func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) },
			provision:  errors.New("db down"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := &fakeProvisioner{err: tt.provision}
			handler := NewAuthMiddleware(verifier, users)(http.HandlerFunc(echoUser))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/chats", nil)
			tt.prepare(req)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				assert.JSONEq(t, `{"user_id":42}`, rec.Body.String())
				require.Len(t, users.seen, 1)
				assert.Equal(t, "user_abc", users.seen[0].Subject)
				assert.Equal(t, "a@example.com", users.seen[0].Email)
				return
			}
			body := decodeError(t, rec.Body)
			assert.False(t, body.Success)
			assert.NotEmpty(t, body.Error.Code)
		})
	}
}

func TestLoggingMiddleware(t *testing.T) {
	m := metrics.NewMetrics()
	var logs bytes.Buffer
	logger := zerolog.New(&logs)

	router := mux.NewRouter()
	router.Use(LoggingMiddleware(logger, m))
	router.HandleFunc("/chats/{id}", func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, RequestIDFromContext(r.Context()))
		w.WriteHeader(http.StatusNotFound)
	}).Methods(http.MethodGet)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/chats/7", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/chats/8", nil)
	req.Header.Set(RequestIDHeader, "req-fixed")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, "req-fixed", rec.Header().Get(RequestIDHeader))

	assert.Equal(t, 2.0, counterValue(t, m.HTTPRequestsTotal.WithLabelValues("GET", "/chats/{id}", "404")))
	assert.Contains(t, logs.String(), `"route":"/chats/{id}"`)
	assert.Contains(t, logs.String(), `"request_id":"req-fixed"`)
	assert.NotContains(t, logs.String(), "/chats/7")
}

func TestRecoverPanic(t *testing.T) {
	handler := RecoverPanic(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	require.NotPanics(t, func() {
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "INTERNAL", decodeError(t, rec.Body).Error.Code)
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := ratelimit.NewMemoryRateLimiter(ratelimit.ChatConfig(2, time.Minute))
	t.Cleanup(limiter.Close)
	m := metrics.NewMetrics()

	handler := RateLimitMiddleware(limiter, "chat", m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	send := func(userID uint) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/chats", nil)
		req = req.WithContext(context.WithValue(req.Context(), UserIDKey, userID))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusCreated, send(1).Code)
	rec := send(1)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	rec = send(1)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, "RATE_LIMITED", decodeError(t, rec.Body).Error.Code)
	assert.Equal(t, 1.0, counterValue(t, m.RateLimitedTotal))

	assert.Equal(t, http.StatusCreated, send(2).Code, "other users keep their own budget")
}
