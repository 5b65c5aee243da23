package llm

import (
	"context"
	"fmt"

	"comps-scraper/config"
)

// Request is one chat-style completion request.
type Request struct {
	Model       string
	System      string
	Prompt      string
	Temperature float64
	// JSON asks the provider to constrain the reply to a JSON object.
	JSON bool
}

// Provider defines the interface for a hosted language model.
type Provider interface {
	Complete(ctx context.Context, req Request) (string, error)
	Close() error
}

// New returns the provider selected by cfg.LLMProvider.
func New(ctx context.Context, cfg *config.Config) (Provider, error) {
	switch cfg.LLMProvider {
	case config.ProviderOpenAI:
		return NewOpenAI(cfg.OpenAIKey, cfg.OpenAIBaseURL, cfg.LLMTimeout), nil
	case config.ProviderGemini:
		return NewGemini(ctx, cfg.GeminiKey)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.LLMProvider)
	}
}
