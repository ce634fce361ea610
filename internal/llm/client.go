// Package llm wraps the hosted chat completion API.
package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/brizzai/chatbot/internal/config"
	"github.com/brizzai/chatbot/internal/logger"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

var (
	// ErrNotConfigured is returned when no usable API key is set
	ErrNotConfigured = errors.New("completion API key not configured")
	// ErrEmptyResponse is returned when the API answers without choices
	ErrEmptyResponse = errors.New("completion returned no choices")
)

// Request is a single completion call
type Request struct {
	Messages []openai.ChatCompletionMessage
	// WithFile raises the token budget for replies about an attachment
	WithFile bool
}

// Completer produces an assistant reply for a list of messages
type Completer interface {
	Configured() bool
	Complete(ctx context.Context, req Request) (string, error)
}

// OpenAIClient is a Completer backed by the OpenAI chat completions API
type OpenAIClient struct {
	client *openai.Client
	cfg    config.OpenAIConfig
}

// NewOpenAIClient creates a client from the openai settings
func NewOpenAIClient(cfg *config.Config) *OpenAIClient {
	clientCfg := openai.DefaultConfig(cfg.OpenAI.APIKey)
	if cfg.OpenAI.BaseURL != "" {
		clientCfg.BaseURL = cfg.OpenAI.BaseURL
	}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(clientCfg),
		cfg:    cfg.OpenAI,
	}
}

// Configured reports whether a usable API key is set
func (c *OpenAIClient) Configured() bool {
	return c.cfg.Configured()
}

// Complete sends the messages and returns the first choice's content
func (c *OpenAIClient) Complete(ctx context.Context, req Request) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}

	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	maxTokens := c.cfg.MaxTokens
	if req.WithFile {
		maxTokens = c.cfg.MaxTokensWithFile
	}

	logger.Debug("Requesting completion",
		zap.String("model", c.cfg.Model),
		zap.Int("messages", len(req.Messages)),
		zap.Int("max_tokens", maxTokens),
	)

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.cfg.Model,
		Messages:    req.Messages,
		Temperature: c.cfg.Temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	logger.Debug("Completion received",
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
	)
	return resp.Choices[0].Message.Content, nil
}
