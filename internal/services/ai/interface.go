// File: internal/services/ai/interface.go
package ai

import "context"

// GenerateOptions overrides provider defaults for one request. Zero values
// fall back to the provider Config.
type GenerateOptions struct {
	Model       string
	Temperature *float32
	MaxTokens   int
}

// Usage is the provider's token accounting.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Generation is the raw result of one completion.
type Generation struct {
	Text     string
	Model    string
	Provider string
	Usage    Usage
}

// Gateway is the boundary to the external model provider. Implementations
// return the model's text untouched; interpreting it is the caller's job.
type Gateway interface {
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (*Generation, error)
}

// ProviderStatus represents AI provider health
type ProviderStatus struct {
	IsHealthy bool
	Message   string
}
