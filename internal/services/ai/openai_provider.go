// File: internal/services/ai/openai_provider.go
package ai

import (
	"context"
	"errors"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

type OpenAIProvider struct {
	config *Config
	client *openai.Client
}

func NewOpenAIProvider(config *Config) *OpenAIProvider {
	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	return &OpenAIProvider{
		config: config,
		client: openai.NewClientWithConfig(clientConfig),
	}
}

// Generate sends prompt as a single user message and returns the reply text.
// It makes exactly one attempt; retry policy belongs to the caller.
func (p *OpenAIProvider) Generate(ctx context.Context, prompt string, opts GenerateOptions) (*Generation, error) {
	model := opts.Model
	if model == "" {
		model = p.config.Model
	}
	temperature := p.config.Temperature
	if opts.Temperature != nil {
		temperature = *opts.Temperature
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = p.config.MaxTokens
	}

	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return nil, classifyError(ctx, model, err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, &AIError{
			Type:      ErrTypeProvider,
			Operation: "completion",
			Model:     model,
			Message:   "empty completion response",
		}
	}

	if resp.Model != "" {
		model = resp.Model
	}
	return &Generation{
		Text:     resp.Choices[0].Message.Content,
		Model:    model,
		Provider: p.config.Provider,
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

func (p *OpenAIProvider) GetStatus(ctx context.Context) ProviderStatus {
	if err := p.config.Validate(); err != nil {
		return ProviderStatus{IsHealthy: false, Message: err.Error()}
	}
	return ProviderStatus{IsHealthy: true, Message: "OpenAI provider configured"}
}

func classifyError(ctx context.Context, model string, err error) *AIError {
	aiErr := &AIError{Operation: "completion", Model: model, Cause: err}

	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		aiErr.Type = ErrTypeTimeout
		aiErr.Message = "completion timed out"
	case errors.Is(err, context.Canceled):
		aiErr.Type = ErrTypeCanceled
		aiErr.Message = "completion canceled"
	case errors.As(err, &apiErr):
		aiErr.Code = apiErr.HTTPStatusCode
		aiErr.Message = apiErr.Message
		switch apiErr.HTTPStatusCode {
		case http.StatusTooManyRequests:
			aiErr.Type = ErrTypeRateLimit
		case http.StatusUnauthorized, http.StatusForbidden:
			aiErr.Type = ErrTypeConfig
		default:
			aiErr.Type = ErrTypeProvider
		}
	case errors.As(err, &reqErr):
		aiErr.Type = ErrTypeProvider
		aiErr.Code = reqErr.HTTPStatusCode
		aiErr.Message = "provider request failed"
	default:
		aiErr.Type = ErrTypeNetwork
		aiErr.Message = "failed to reach provider"
	}
	return aiErr
}
