package perception

import (
	"context"
	"fmt"

	"tablechat/internal/config"
)

// Provider represents an LLM provider.
type Provider string

const (
	ProviderGemini     Provider = "gemini"
	ProviderOpenAI     Provider = "openai"
	ProviderOpenRouter Provider = "openrouter"
)

// NewClientFromConfig creates the client for the configured provider. The
// caller decides beforehand whether the credential is usable.
func NewClientFromConfig(ctx context.Context, cfg *config.Config) (LLMClient, error) {
	cc := ClientConfig{
		APIKey:          cfg.LLM.APIKey,
		BaseURL:         cfg.LLM.BaseURL,
		Model:           cfg.LLM.ResolvedModel(),
		Timeout:         cfg.GetLLMTimeout(),
		Temperature:     cfg.LLM.Temperature,
		MaxOutputTokens: cfg.LLM.MaxOutputTokens,
	}

	switch Provider(cfg.LLM.Provider) {
	case ProviderGemini:
		return NewGeminiClient(ctx, cc)
	case ProviderOpenAI:
		return NewOpenAIClient(cc), nil
	case ProviderOpenRouter:
		return NewOpenRouterClient(cc), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.LLM.Provider)
	}
}
