package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iyunix/go-converse/internal/middleware"
	"github.com/iyunix/go-converse/internal/services"
	"github.com/iyunix/go-converse/internal/services/ai"
	chatservice "github.com/iyunix/go-converse/internal/services/chat"
	"github.com/iyunix/go-converse/internal/testutil"
)

const testUserHeader = "X-Test-User"

type stubGateway struct {
	reply   string
	err     error
	healthy bool
}

func (g *stubGateway) Generate(_ context.Context, _ string, opts ai.GenerateOptions) (*ai.Generation, error) {
	if g.err != nil {
		return nil, g.err
	}
	return &ai.Generation{Text: g.reply, Model: opts.Model, Provider: "stub"}, nil
}

func (g *stubGateway) GetStatus(context.Context) ai.ProviderStatus {
	if !g.healthy {
		return ai.ProviderStatus{Message: "provider unreachable"}
	}
	return ai.ProviderStatus{IsHealthy: true, Message: "ok"}
}

// fakeAuth trusts the test header in place of a verified identity token.
func fakeAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if raw := r.Header.Get(testUserHeader); raw != "" {
			id, _ := strconv.ParseUint(raw, 10, 32)
			r = r.WithContext(context.WithValue(r.Context(), middleware.UserIDKey, uint(id)))
		}
		next.ServeHTTP(w, r)
	})
}

func newTestRouter(t *testing.T, gw *stubGateway) *mux.Router {
	t.Helper()

	svc, err := services.NewChatService(testutil.NewDB(t), gw, nil, nil, nil)
	require.NoError(t, err)

	router := mux.NewRouter()
	router.Handle("/health", http.HandlerFunc(NewHealthHandler(svc).Health)).Methods(http.MethodGet)
	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(fakeAuth)
	RegisterChatRoutes(api, NewChatHandler(svc, svc), NewProjectHandler(svc), nil)
	return router
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Meta    json.RawMessage `json:"meta"`
	Error   *ErrorInfo      `json:"error"`
}

func do(t *testing.T, router http.Handler, method, path string, userID uint, body any) (int, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != 0 {
		req.Header.Set(testUserHeader, strconv.Itoa(int(userID)))
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

const greeting = `{"response_text": "Hello **there**", "response_type": "text", "title": "Greeting"}`

func TestAddInteraction_Created(t *testing.T) {
	router := newTestRouter(t, &stubGateway{reply: greeting})

	status, env := do(t, router, http.MethodPost, "/api/v1/chats", 1, map[string]any{"text": "hi"})
	require.Equal(t, http.StatusCreated, status)
	assert.True(t, env.Success)
	assert.Nil(t, env.Error)

	turn := decodeData[chatservice.AssistantTurn](t, env)
	assert.NotZero(t, turn.ChatID)
	assert.Equal(t, "Hello **there**", turn.Content.Data)
	assert.Equal(t, "Greeting", turn.Title)
	assert.Equal(t, "completed", string(turn.Status))
}

func TestAddInteraction_Errors(t *testing.T) {
	tests := []struct {
		name       string
		gateway    *stubGateway
		body       any
		user       uint
		wantStatus int
		wantCode   string
	}{
		{"unauthenticated", &stubGateway{reply: greeting}, map[string]any{"text": "hi"}, 0, http.StatusUnauthorized, "UNAUTHENTICATED"},
		{"empty body", &stubGateway{reply: greeting}, nil, 1, http.StatusBadRequest, "VALIDATION"},
		{"no text or attachments", &stubGateway{reply: greeting}, map[string]any{"text": ""}, 1, http.StatusBadRequest, "VALIDATION"},
		{"unknown chat", &stubGateway{reply: greeting}, map[string]any{"text": "hi", "chatId": 999}, 1, http.StatusNotFound, "NOT_FOUND"},
		{
			name:       "gateway down",
			gateway:    &stubGateway{err: &ai.AIError{Type: ai.ErrTypeNetwork, Message: "connection refused"}},
			body:       map[string]any{"text": "hi"},
			user:       1,
			wantStatus: http.StatusBadGateway,
			wantCode:   "UPSTREAM_GATEWAY_FAILURE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(t, tt.gateway)
			status, env := do(t, router, http.MethodPost, "/api/v1/chats", tt.user, tt.body)
			assert.Equal(t, tt.wantStatus, status)
			assert.False(t, env.Success)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.wantCode, env.Error.Code)
		})
	}
}

func TestAddInteraction_ParseFailureIsStillCreated(t *testing.T) {
	router := newTestRouter(t, &stubGateway{reply: "I cannot answer in JSON today."})

	status, env := do(t, router, http.MethodPost, "/api/v1/chats", 1, map[string]any{"text": "hi"})
	require.Equal(t, http.StatusCreated, status)
	assert.True(t, env.Success)

	turn := decodeData[chatservice.AssistantTurn](t, env)
	assert.Equal(t, "failed", string(turn.Status))
	require.NotNil(t, turn.Error)
	assert.Equal(t, chatservice.ErrCodeParseFailure, turn.Error.Code)
	assert.Empty(t, turn.Content.Data)
}

func TestListChats_Meta(t *testing.T) {
	router := newTestRouter(t, &stubGateway{reply: greeting})
	for i := 0; i < 3; i++ {
		status, _ := do(t, router, http.MethodPost, "/api/v1/chats", 1, map[string]any{"text": fmt.Sprintf("q%d", i)})
		require.Equal(t, http.StatusCreated, status)
	}

	status, env := do(t, router, http.MethodGet, "/api/v1/chats?page=2&limit=2", 1, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decodeData[[]map[string]any](t, env), 1)

	var meta chatservice.PageMeta
	require.NoError(t, json.Unmarshal(env.Meta, &meta))
	assert.Equal(t, chatservice.PageMeta{Page: 2, Limit: 2, Total: 3, TotalPages: 2, HasPrev: true}, meta)

	_, env = do(t, router, http.MethodGet, "/api/v1/chats", 2, nil)
	assert.Empty(t, decodeData[[]map[string]any](t, env))
}

func TestGetChat(t *testing.T) {
	router := newTestRouter(t, &stubGateway{reply: greeting})
	_, env := do(t, router, http.MethodPost, "/api/v1/chats", 1, map[string]any{"text": "say <b>hi</b>"})
	chatID := decodeData[chatservice.AssistantTurn](t, env).ChatID
	path := fmt.Sprintf("/api/v1/chats/%d", chatID)

	status, env := do(t, router, http.MethodGet, path, 1, nil)
	require.Equal(t, http.StatusOK, status)
	history := decodeData[chatservice.ChatHistory](t, env)
	require.Len(t, history.Transcript, 2)
	assert.Equal(t, "Hello **there**", history.Transcript[1].Content)

	status, env = do(t, router, http.MethodGet, path+"?format=html", 1, nil)
	require.Equal(t, http.StatusOK, status)
	rendered := decodeData[struct {
		Transcript []struct {
			Content string `json:"content"`
			HTML    string `json:"html"`
		} `json:"transcript"`
	}](t, env)
	require.Len(t, rendered.Transcript, 2)
	assert.NotContains(t, rendered.Transcript[0].HTML, "<b>")
	assert.Contains(t, rendered.Transcript[1].HTML, "<strong>there</strong>")

	status, env = do(t, router, http.MethodGet, path, 2, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestUpdateAndDeleteChat(t *testing.T) {
	router := newTestRouter(t, &stubGateway{reply: greeting})
	_, env := do(t, router, http.MethodPost, "/api/v1/chats", 1, map[string]any{"text": "hi"})
	path := fmt.Sprintf("/api/v1/chats/%d", decodeData[chatservice.AssistantTurn](t, env).ChatID)

	status, env := do(t, router, http.MethodPatch, path, 1, map[string]any{"title": "Renamed", "user_id": 7})
	require.Equal(t, http.StatusOK, status)
	chat := decodeData[map[string]any](t, env)
	assert.Equal(t, "Renamed", chat["title"])
	assert.EqualValues(t, 1, chat["user_id"])

	status, _ = do(t, router, http.MethodDelete, path, 2, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, env = do(t, router, http.MethodDelete, path, 1, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, env.Success)

	status, _ = do(t, router, http.MethodGet, path, 1, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestProjects(t *testing.T) {
	router := newTestRouter(t, &stubGateway{reply: greeting})

	status, env := do(t, router, http.MethodPost, "/api/v1/projects", 1, map[string]any{"name": "Research"})
	require.Equal(t, http.StatusCreated, status)
	projectID := uint(decodeData[map[string]any](t, env)["id"].(float64))

	status, env = do(t, router, http.MethodPost, "/api/v1/projects", 1, map[string]any{"name": " "})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION", env.Error.Code)

	status, _ = do(t, router, http.MethodPost, "/api/v1/chats", 1, map[string]any{"text": "hi", "projectId": projectID})
	require.Equal(t, http.StatusCreated, status)

	status, env = do(t, router, http.MethodGet, fmt.Sprintf("/api/v1/projects/%d/chats", projectID), 1, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decodeData[chatservice.ProjectChats](t, env).Chats, 1)

	status, env = do(t, router, http.MethodPatch, fmt.Sprintf("/api/v1/projects/%d", projectID), 1, map[string]any{"name": "Renamed"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Renamed", decodeData[map[string]any](t, env)["name"])

	status, env = do(t, router, http.MethodGet, "/api/v1/projects", 1, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decodeData[[]map[string]any](t, env), 1)

	status, _ = do(t, router, http.MethodDelete, fmt.Sprintf("/api/v1/projects/%d", projectID), 1, nil)
	require.Equal(t, http.StatusOK, status)

	_, env = do(t, router, http.MethodGet, "/api/v1/chats", 1, nil)
	assert.Empty(t, decodeData[[]map[string]any](t, env))
}

func TestHealth(t *testing.T) {
	status, env := do(t, newTestRouter(t, &stubGateway{healthy: true}), http.MethodGet, "/health", 0, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, env.Success)

	status, env = do(t, newTestRouter(t, &stubGateway{}), http.MethodGet, "/health", 0, nil)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "UNHEALTHY", env.Error.Code)
}

func TestWriteServiceError_HidesCause(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	writeServiceError(rec, req, errors.New("pq: password authentication failed"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")
	assert.Contains(t, rec.Body.String(), `"code":"INTERNAL"`)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, statusFor(chatservice.ErrTypeNotFound))
	assert.Equal(t, http.StatusBadRequest, statusFor(chatservice.ErrTypeValidation))
	assert.Equal(t, http.StatusBadGateway, statusFor(chatservice.ErrTypeUpstreamFailed))
	assert.Equal(t, http.StatusInternalServerError, statusFor(chatservice.ErrTypeInternal))
}
