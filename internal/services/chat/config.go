// File: internal/services/chat/config.go
package chat

import (
	"fmt"
	"time"
)

type Config struct {
	// Model Configuration
	Model       string  // Default model for completions
	Temperature float32 // Sampling temperature
	MaxTokens   int     // Maximum response tokens

	// Prompt Configuration
	HistoryLimit int // Transcript turns kept in the prompt window

	// Timeouts
	GatewayTimeout      time.Duration // Bound for one model round trip
	FailureWriteTimeout time.Duration // Bound for recording a failed turn after the request context ended

	// SerializeChatTurns runs concurrent turns on one chat one at a time.
	SerializeChatTurns bool

	// Pagination
	DefaultPageLimit int
	MaxPageLimit     int
}

func (c *Config) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("model is required")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2")
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("max_tokens must be positive")
	}
	if c.HistoryLimit <= 0 {
		return fmt.Errorf("history_limit must be positive")
	}
	if c.GatewayTimeout <= 0 {
		return fmt.Errorf("gateway_timeout must be positive")
	}
	if c.FailureWriteTimeout <= 0 {
		return fmt.Errorf("failure_write_timeout must be positive")
	}
	if c.DefaultPageLimit <= 0 || c.MaxPageLimit < c.DefaultPageLimit {
		return fmt.Errorf("page limits must satisfy 0 < default <= max")
	}
	return nil
}

func DefaultConfig() *Config {
	return &Config{
		Model:               "gpt-4o-mini",
		Temperature:         0.2,
		MaxTokens:           1200,
		HistoryLimit:        DefaultHistoryLimit,
		GatewayTimeout:      60 * time.Second,
		FailureWriteTimeout: 5 * time.Second,
		SerializeChatTurns:  true,
		DefaultPageLimit:    10,
		MaxPageLimit:        100,
	}
}
