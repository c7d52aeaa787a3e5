package perception

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"tablechat/internal/logging"
)

// GeminiClient implements LLMClient using the Google GenAI SDK.
type GeminiClient struct {
	client      *genai.Client
	model       string
	temperature float32
	maxTokens   int32
	timeout     time.Duration
}

// NewGeminiClient creates a Gemini client for the Gemini Developer API.
func NewGeminiClient(ctx context.Context, cfg ClientConfig) (*GeminiClient, error) {
	cfg = cfg.withDefaults()
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key not configured")
	}

	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &GeminiClient{
		client:      client,
		model:       cfg.Model,
		temperature: float32(cfg.Temperature),
		maxTokens:   int32(cfg.MaxOutputTokens),
		timeout:     cfg.Timeout,
	}, nil
}

// Model returns the configured model name.
func (c *GeminiClient) Model() string {
	return c.model
}

// Complete sends a prompt and returns the completion.
func (c *GeminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	return c.CompleteWithSystem(ctx, "", prompt)
}

// CompleteWithSystem sends a prompt with a system instruction and asks for a
// JSON reply.
func (c *GeminiClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	ctx, cancel := withDeadline(ctx, c.timeout)
	defer cancel()

	log := logging.API().With(zap.String("provider", "gemini"), zap.String("model", c.model))
	startTime := time.Now()
	log.Debug("CompleteWithSystem", zap.Int("system_len", len(systemPrompt)), zap.Int("user_len", len(userPrompt)))

	config := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(c.temperature),
		MaxOutputTokens:  c.maxTokens,
		ResponseMIMEType: "application/json",
	}
	if strings.TrimSpace(systemPrompt) != "" {
		config.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(userPrompt), config)
	if err != nil {
		log.Warn("GenerateContent failed", zap.Error(err), zap.Duration("elapsed", time.Since(startTime)))
		return "", fmt.Errorf("gemini generate content: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrNoCompletion
	}

	log.Debug("CompleteWithSystem completed", zap.Duration("elapsed", time.Since(startTime)), zap.Int("response_len", len(text)))
	return text, nil
}
