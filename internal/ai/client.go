// Package ai talks to an OpenAI-compatible chat endpoint to author
// story text at runtime, and brokers those calls so the frame loop
// never blocks on the network.
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
)

// Config configures the story agent client.
type Config struct {
	APIKey       string
	BaseURL      string
	Model        string
	SystemPrompt string
	Timeout      time.Duration
	MaxRetries   int
}

// Client generates narration through a chat-completion API. Every call
// carries the storyteller system prompt and a per-call timeout.
type Client struct {
	api        *openai.Client
	model      string
	system     string
	timeout    time.Duration
	maxRetries int
	log        zerolog.Logger
}

// NewClient validates the config and builds a client. The API key is
// required; main decides up front whether the agent is enabled at all.
func NewClient(cfg Config, log zerolog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("ai: missing API key")
	}
	if cfg.Model == "" {
		return nil, errors.New("ai: missing model name")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 2
	}

	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}

	return &Client{
		api:        openai.NewClientWithConfig(apiCfg),
		model:      cfg.Model,
		system:     cfg.SystemPrompt,
		timeout:    cfg.Timeout,
		maxRetries: cfg.MaxRetries,
		log:        log.With().Str("component", "ai").Logger(),
	}, nil
}

// Narrate sends one prompt and returns the generated text. Failed calls
// are retried up to the configured limit unless the context is done.
func (c *Client) Narrate(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		text, err := c.complete(ctx, prompt)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		c.log.Warn().Err(err).Int("attempt", attempt).Msg("narration call failed")
	}
	return "", fmt.Errorf("narrate after %d attempts: %w", c.maxRetries, lastErr)
}

func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: c.system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", errors.New("empty completion")
	}
	return resp.Choices[0].Message.Content, nil
}
