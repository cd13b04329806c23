package ai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *OpenAIProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := DefaultConfig()
	cfg.APIKey = "test-key"
	cfg.BaseURL = srv.URL + "/v1"
	cfg.Timeout = 2 * time.Second
	return NewOpenAIProvider(cfg)
}

func TestGenerate_ReturnsRawText(t *testing.T) {
	var got map[string]any
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "cmpl-1",
			"object": "chat.completion",
			"model": "gpt-test-0601",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "{\"response_text\":\"hi\"}"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 11, "completion_tokens": 4, "total_tokens": 15}
		}`))
	})

	temp := float32(0.7)
	gen, err := provider.Generate(context.Background(), "PROMPT", GenerateOptions{Model: "gpt-test", Temperature: &temp, MaxTokens: 64})
	require.NoError(t, err)

	assert.Equal(t, `{"response_text":"hi"}`, gen.Text)
	assert.Equal(t, "gpt-test-0601", gen.Model)
	assert.Equal(t, "openai", gen.Provider)
	assert.Equal(t, Usage{PromptTokens: 11, CompletionTokens: 4, TotalTokens: 15}, gen.Usage)

	assert.Equal(t, "gpt-test", got["model"])
	assert.InDelta(t, 0.7, got["temperature"], 0.001)
	assert.EqualValues(t, 64, got["max_tokens"])
	messages := got["messages"].([]any)
	require.Len(t, messages, 1)
	assert.Equal(t, "PROMPT", messages[0].(map[string]any)["content"])
}

func TestGenerate_UsesConfigDefaults(t *testing.T) {
	var got map[string]any
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`))
	})

	gen, err := provider.Generate(context.Background(), "p", GenerateOptions{})
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", gen.Model)
	assert.Equal(t, "gpt-4o-mini", got["model"])
	assert.EqualValues(t, 1200, got["max_tokens"])
}

func TestGenerate_ClassifiesErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantType  ErrorType
		retryable bool
	}{
		{"rate limited", http.StatusTooManyRequests, ErrTypeRateLimit, true},
		{"bad key", http.StatusUnauthorized, ErrTypeConfig, false},
		{"server error", http.StatusInternalServerError, ErrTypeProvider, true},
		{"bad request", http.StatusBadRequest, ErrTypeProvider, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"error":{"message":"nope","type":"test_error"}}`))
			})

			_, err := provider.Generate(context.Background(), "p", GenerateOptions{})
			require.Error(t, err)

			aiErr, ok := AsAIError(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantType, aiErr.Type)
			assert.Equal(t, tt.status, aiErr.Code)
			assert.Equal(t, tt.retryable, aiErr.Retryable())
		})
	}
}

func TestGenerate_EmptyChoices(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[]}`))
	})

	_, err := provider.Generate(context.Background(), "p", GenerateOptions{})
	aiErr, ok := AsAIError(err)
	require.True(t, ok)
	assert.Equal(t, ErrTypeProvider, aiErr.Type)
}

func TestGenerate_Timeout(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	provider.config.Timeout = 50 * time.Millisecond

	_, err := provider.Generate(context.Background(), "p", GenerateOptions{})
	aiErr, ok := AsAIError(err)
	require.True(t, ok)
	assert.Equal(t, ErrTypeTimeout, aiErr.Type)
	assert.True(t, aiErr.Retryable())
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	assert.Error(t, cfg.Validate(), "missing api key")

	cfg.APIKey = "k"
	assert.NoError(t, cfg.Validate())

	cfg.Temperature = 3
	assert.Error(t, cfg.Validate())
}
