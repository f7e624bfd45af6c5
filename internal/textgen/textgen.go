// Package textgen produces narrative documents through an external language model.
package textgen

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"projecthub/pkg/config"
)

// ErrDisabled is returned by the generator used when no model is configured.
var ErrDisabled = errors.New("text generation disabled")

type Prompt struct {
	System string
	User   string
	// Fallback is stored verbatim when generation fails.
	Fallback string
}

type Generator interface {
	Generate(ctx context.Context, p Prompt) (string, error)
}

// Disabled always fails, so callers fall back to the prompt's placeholder.
type Disabled struct{}

func (Disabled) Generate(context.Context, Prompt) (string, error) {
	return "", ErrDisabled
}

// OpenAIGenerator calls the chat completion API.
type OpenAIGenerator struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

func NewOpenAIGenerator(cfg config.TextGenConfig, logger *zap.Logger) (*OpenAIGenerator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("text generation enabled but no api key configured")
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
		logger.Warn("textgen model not set, using default", zap.String("model", model))
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	logger.Info("Initializing OpenAI client", zap.String("model", model))
	return &OpenAIGenerator{
		client: openai.NewClientWithConfig(oc),
		model:  model,
		logger: logger,
	}, nil
}

func (g *OpenAIGenerator) Generate(ctx context.Context, p Prompt) (string, error) {
	g.logger.Debug("Generating text via OpenAI", zap.String("model", g.model))

	system := p.System
	if system == "" {
		system = "You are a helpful project management assistant."
	}
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: p.User},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("openai returned no content")
	}
	g.logger.Debug("Received response from OpenAI", zap.String("finish_reason", string(resp.Choices[0].FinishReason)))
	return resp.Choices[0].Message.Content, nil
}

// New builds the configured generator wrapped in a Degrading client.
func New(cfg config.TextGenConfig, logger *zap.Logger) (*Degrading, error) {
	var gen Generator = Disabled{}
	if cfg.Enabled {
		og, err := NewOpenAIGenerator(cfg, logger)
		if err != nil {
			return nil, err
		}
		gen = og
	}
	return NewDegrading(gen, cfg, logger), nil
}
