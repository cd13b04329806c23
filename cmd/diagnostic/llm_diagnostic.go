// File: cmd/diagnostic/llm_diagnostic.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"

	"github.com/iyunix/go-converse/internal/config"
	"github.com/iyunix/go-converse/internal/services/ai"
	chatservice "github.com/iyunix/go-converse/internal/services/chat"
)

// Sends one prompt through the configured gateway and shows how the reply
// normalizes, to check a model/provider pairing before pointing the server at it.
func main() {
	question := flag.String("q", "What is the answer to life, the universe and everything?", "question to send")
	flag.Parse()

	ok := color.New(color.FgGreen, color.Bold).SprintFunc()
	bad := color.New(color.FgRed, color.Bold).SprintFunc()
	label := color.New(color.FgCyan, color.Bold).SprintFunc()

	cfg, err := config.Load()
	if err != nil {
		fmt.Println(bad("config:"), err)
		os.Exit(1)
	}

	aiConfig := ai.DefaultConfig()
	aiConfig.APIKey = cfg.OpenAIAPIKey
	aiConfig.BaseURL = cfg.OpenAIBaseURL
	aiConfig.Model = cfg.ChatModel
	aiConfig.Timeout = cfg.AITimeout
	if err := aiConfig.Validate(); err != nil {
		fmt.Println(bad("gateway config:"), err)
		os.Exit(1)
	}
	provider := ai.NewOpenAIProvider(aiConfig)

	opts := chatservice.PromptOptions{Model: cfg.ChatModel, Temperature: cfg.ChatTemperature, MaxTokens: cfg.ChatMaxTokens}
	prompt := chatservice.BuildPrompt(*question, nil, opts)

	fmt.Printf("%s %s via %s\n", label("model:"), cfg.ChatModel, orDefault(cfg.OpenAIBaseURL, "api.openai.com"))

	start := time.Now()
	gen, err := provider.Generate(context.Background(), prompt, opts.GenerateOptions())
	if err != nil {
		if aiErr, isAI := ai.AsAIError(err); isAI {
			fmt.Printf("%s %s (retryable=%v)\n", bad(string(aiErr.Type)), aiErr.Message, aiErr.Retryable())
		} else {
			fmt.Println(bad("generate:"), err)
		}
		os.Exit(1)
	}
	fmt.Printf("%s %s, %d prompt + %d completion tokens\n",
		label("latency:"), time.Since(start).Round(time.Millisecond), gen.Usage.PromptTokens, gen.Usage.CompletionTokens)
	fmt.Printf("%s\n%s\n", label("raw reply:"), gen.Text)

	normalized := chatservice.Normalize(gen.Text)
	fmt.Printf("%s %s\n", label("parse:"), normalized.Outcome)
	if normalized.Error != nil {
		fmt.Printf("%s %s: %s\n", bad("model reply unusable"), normalized.Error.Code, normalized.Error.Message)
		os.Exit(2)
	}
	fmt.Printf("%s [%s] %s\n", ok("response:"), normalized.ResponseType, normalized.ResponseText)
	if normalized.Title != "" {
		fmt.Printf("%s %s\n", label("title:"), normalized.Title)
	}
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
