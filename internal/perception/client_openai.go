package perception

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"tablechat/internal/logging"
)

// Base URLs for OpenAI-compatible providers.
const (
	OpenAIBaseURL     = "https://api.openai.com/v1"
	OpenRouterBaseURL = "https://openrouter.ai/api/v1"
)

// OpenAIClient implements LLMClient for the OpenAI chat completions API and
// compatible gateways such as OpenRouter.
type OpenAIClient struct {
	apiKey      string
	baseURL     string
	model       string
	temperature float64
	maxTokens   int
	headers     map[string]string
	httpClient  *http.Client
	mu          sync.Mutex
	lastRequest time.Time
	minInterval time.Duration
}

// OpenAIRequest represents the API request structure.
type OpenAIRequest struct {
	Model          string          `json:"model"`
	Messages       []OpenAIMessage `json:"messages"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
}

// OpenAIMessage represents a message in the conversation.
type OpenAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ResponseFormat asks the provider for a JSON object reply.
type ResponseFormat struct {
	Type string `json:"type"`
}

// OpenAIResponse represents the API response structure.
type OpenAIResponse struct {
	Choices []struct {
		Message OpenAIMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    any    `json:"code"`
	} `json:"error,omitempty"`
}

// NewOpenAIClient creates an OpenAI client.
func NewOpenAIClient(cfg ClientConfig) *OpenAIClient {
	cfg = cfg.withDefaults()
	if cfg.BaseURL == "" {
		cfg.BaseURL = OpenAIBaseURL
	}
	return &OpenAIClient{
		apiKey:      cfg.APIKey,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxOutputTokens,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		minInterval: 100 * time.Millisecond,
	}
}

// NewOpenRouterClient creates a client for OpenRouter's OpenAI-compatible API.
func NewOpenRouterClient(cfg ClientConfig) *OpenAIClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = OpenRouterBaseURL
	}
	c := NewOpenAIClient(cfg)
	c.headers = map[string]string{
		"HTTP-Referer": "https://github.com/tablechat/tablechat",
		"X-Title":      "tablechat",
	}
	return c
}

// Model returns the configured model name.
func (c *OpenAIClient) Model() string {
	return c.model
}

// Complete sends a prompt and returns the completion.
func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	return c.CompleteWithSystem(ctx, "", prompt)
}

// CompleteWithSystem sends a prompt with a system message. Non-2xx answers
// are returned as *APIError so callers can classify them.
func (c *OpenAIClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	ctx, cancel := withDeadline(ctx, c.httpClient.Timeout)
	defer cancel()

	log := logging.API().With(zap.String("provider", "openai"), zap.String("model", c.model))
	startTime := time.Now()
	log.Debug("CompleteWithSystem", zap.Int("system_len", len(systemPrompt)), zap.Int("user_len", len(userPrompt)))

	if c.apiKey == "" {
		return "", fmt.Errorf("API key not configured")
	}

	// Rate limiting
	if err := c.waitTurn(ctx); err != nil {
		return "", err
	}

	messages := make([]OpenAIMessage, 0, 2)
	if strings.TrimSpace(systemPrompt) != "" {
		messages = append(messages, OpenAIMessage{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, OpenAIMessage{Role: "user", Content: userPrompt})

	reqBody := OpenAIRequest{
		Model:          c.model,
		Messages:       messages,
		MaxTokens:      c.maxTokens,
		Temperature:    c.temperature,
		ResponseFormat: &ResponseFormat{Type: "json_object"},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Warn("request failed", zap.Error(err), zap.Duration("elapsed", time.Since(startTime)))
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		log.Warn("non-OK status", zap.Int("status", resp.StatusCode), zap.Duration("elapsed", time.Since(startTime)))
		return "", &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var openaiResp OpenAIResponse
	if err := json.Unmarshal(body, &openaiResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if openaiResp.Error != nil {
		return "", fmt.Errorf("API error: %s", openaiResp.Error.Message)
	}

	if len(openaiResp.Choices) == 0 {
		return "", ErrNoCompletion
	}

	response := strings.TrimSpace(openaiResp.Choices[0].Message.Content)
	log.Debug("CompleteWithSystem completed", zap.Duration("elapsed", time.Since(startTime)), zap.Int("response_len", len(response)))
	return response, nil
}

// waitTurn reserves the next request slot under the lock and waits for it
// outside the lock, giving up when ctx is done.
func (c *OpenAIClient) waitTurn(ctx context.Context) error {
	c.mu.Lock()
	next := c.lastRequest.Add(c.minInterval)
	now := time.Now()
	if next.Before(now) {
		next = now
	}
	c.lastRequest = next
	c.mu.Unlock()

	wait := time.Until(next)
	if wait <= 0 {
		return nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
