// Package openai adapts an OpenAI-compatible chat API to the sales
// assistant.
package openai

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
)

// Config carries the chat backend settings.
type Config struct {
	APIKey  string
	BaseURL string // empty uses the provider default
	Model   string
	Timeout time.Duration
}

// Client calls an OpenAI-compatible chat-completion API.
type Client struct {
	client openai.Client
	model  string
	log    *slog.Logger
}

// NewClient creates a chat client for the configured backend.
func NewClient(cfg Config, log *slog.Logger) *Client {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Client{
		client: openai.NewClient(opts...),
		model:  cfg.Model,
		log:    log,
	}
}

// ChatText sends a system/user prompt pair and returns the first completion.
func (c *Client) ChatText(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	messages := []openai.ChatCompletionMessageParamUnion{}
	if systemPrompt != "" {
		messages = append(messages, openai.SystemMessage(systemPrompt))
	}
	messages = append(messages, openai.UserMessage(userPrompt))

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   param.NewOpt[int64](1024),
		Temperature: param.NewOpt[float64](0.7),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	c.log.Debug("chat completion", "model", c.model, "choices", len(resp.Choices))
	return resp.Choices[0].Message.Content, nil
}
