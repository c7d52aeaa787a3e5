package config

import "strings"

// Default models per provider.
const (
	DefaultGeminiModel     = "gemini-2.5-flash"
	DefaultOpenAIModel     = "gpt-4o-mini"
	DefaultOpenRouterModel = "openai/gpt-4o-mini"
)

// LLMConfig configures the model-backed interpreter.
type LLMConfig struct {
	Provider        string  `yaml:"provider"` // gemini, openai, openrouter
	APIKey          string  `yaml:"api_key"`
	Model           string  `yaml:"model"`
	BaseURL         string  `yaml:"base_url"`
	Timeout         string  `yaml:"timeout"`
	Temperature     float64 `yaml:"temperature"`
	MaxOutputTokens int     `yaml:"max_output_tokens"`
}

// DefaultModel returns the default model for provider.
func DefaultModel(provider string) string {
	switch provider {
	case "openai":
		return DefaultOpenAIModel
	case "openrouter":
		return DefaultOpenRouterModel
	default:
		return DefaultGeminiModel
	}
}

func isDefaultModel(model string) bool {
	switch model {
	case "", DefaultGeminiModel, DefaultOpenAIModel, DefaultOpenRouterModel:
		return true
	}
	return false
}

// ResolvedModel returns Model, or the provider default when unset.
func (c LLMConfig) ResolvedModel() string {
	if c.Model != "" {
		return c.Model
	}
	return DefaultModel(c.Provider)
}

// placeholderKeys are values copied from sample configs that never work.
var placeholderKeys = []string{
	"your-api-key-here",
	"your_api_key",
	"sk-xxx",
	"changeme",
	"replace-me",
	"todo",
	"none",
	"null",
}

// HasCredential reports whether APIKey looks like a real credential.
func (c LLMConfig) HasCredential() bool {
	key := strings.TrimSpace(c.APIKey)
	if key == "" {
		return false
	}
	lower := strings.ToLower(key)
	for _, p := range placeholderKeys {
		if lower == p {
			return false
		}
	}
	if strings.HasPrefix(lower, "sk-xxx") || strings.Trim(lower, "x-") == "" {
		return false
	}
	if strings.HasPrefix(key, "<") && strings.HasSuffix(key, ">") {
		return false
	}
	if strings.Contains(lower, "your") && strings.Contains(lower, "key") {
		return false
	}
	return true
}
