package llmclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// chatClient talks to any OpenAI-compatible chat completions endpoint.
// Groq and the Hugging Face router both use it.
type chatClient struct {
	cli         *openai.Client
	label       string
	model       string
	temperature float32
	jsonMode    bool

	rlMu      sync.RWMutex
	rlLast    RateLimitHeaders
	rlHasLast bool
	rlHandler RateLimitHeaderHandler
}

func newChatClient(label, apiKey, baseURL, model string, timeout time.Duration, jsonMode bool) *chatClient {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	cfg.HTTPClient = &http.Client{Timeout: timeout}
	return &chatClient{
		cli:         openai.NewClientWithConfig(cfg),
		label:       label,
		model:       model,
		temperature: DefaultTemperature,
		jsonMode:    jsonMode,
	}
}

func (c *chatClient) Name() string { return c.label + ":" + c.model }
func (c *chatClient) Close() error { return nil }

func (c *chatClient) SetRateLimitHeaderHandler(handler RateLimitHeaderHandler) {
	c.rlMu.Lock()
	defer c.rlMu.Unlock()
	c.rlHandler = handler
}

func (c *chatClient) LastRateLimitHeaders() (RateLimitHeaders, bool) {
	c.rlMu.RLock()
	defer c.rlMu.RUnlock()
	return c.rlLast, c.rlHasLast
}

func (c *chatClient) Complete(ctx context.Context, p Prompt) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: p.System},
			{Role: openai.ChatMessageRoleUser, Content: p.User},
		},
	}
	if c.jsonMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}

	resp, err := c.cli.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", c.classify(err)
	}
	c.observe(resp.Header())

	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	text := resp.Choices[0].Message.Content
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func (c *chatClient) observe(h http.Header) {
	headers, ok := parseRateLimitHeaders(h)
	if !ok {
		return
	}
	c.rlMu.Lock()
	c.rlLast, c.rlHasLast = headers, true
	handler := c.rlHandler
	c.rlMu.Unlock()
	if handler != nil {
		handler(headers)
	}
}

// classify marks auth failures and oversized prompts as permanent.
func (c *chatClient) classify(err error) error {
	wrapped := fmt.Errorf("%s: %w", c.label, err)
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return NewPermanentError(wrapped)
		case http.StatusBadRequest:
			if strings.Contains(apiErr.Message, "context_length") || fmt.Sprint(apiErr.Code) == "context_length_exceeded" {
				return NewPermanentError(wrapped)
			}
		}
	}
	return wrapped
}
