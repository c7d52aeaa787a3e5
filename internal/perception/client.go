// Package perception turns free-form chat text into table intents, either
// through an LLM provider or through a deterministic rule set.
package perception

import (
	"context"
	"time"
)

// LLMClient defines the interface for LLM providers.
type LLMClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
	CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Generation defaults shared by every provider client.
const (
	DefaultTemperature     = 0.1
	DefaultMaxOutputTokens = 1024
	DefaultTimeout         = 30 * time.Second
)

// ClientConfig holds the settings common to every provider client.
type ClientConfig struct {
	APIKey          string
	BaseURL         string
	Model           string
	Timeout         time.Duration
	Temperature     float64
	MaxOutputTokens int
}

func (c ClientConfig) withDefaults() ClientConfig {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Temperature <= 0 {
		c.Temperature = DefaultTemperature
	}
	if c.MaxOutputTokens <= 0 {
		c.MaxOutputTokens = DefaultMaxOutputTokens
	}
	return c
}

// withDeadline applies timeout when ctx has none.
func withDeadline(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}
