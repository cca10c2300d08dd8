// Package llm connects the chat aggregator and the draft generator to a
// text-generation service.
package llm

import (
	"context"
	"fmt"
	"strings"

	"facility-intake-backend/internal/chat"
)

// GenerateOptions tune a single non-streaming request.
type GenerateOptions struct {
	System      string
	Temperature float32
	MaxTokens   int
}

// Provider opens streaming chat sessions and answers one-shot prompts.
type Provider interface {
	chat.Opener
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
	Name() string
}

type Config struct {
	Provider      string
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string
	GeminiAPIKey  string
	GeminiBaseURL string
	GeminiModel   string
}

// New returns the provider selected by cfg.Provider ("openai" or "gemini").
func New(ctx context.Context, cfg Config) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "openai":
		return NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel), nil
	case "gemini":
		return NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiBaseURL, cfg.GeminiModel)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
