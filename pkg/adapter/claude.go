package adapter

import (
	"context"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/kioku-ai/kioku/pkg/model"
	"github.com/m-mizutani/goerr/v2"
)

const defaultClaudeMaxTokens = 1024

// ClaudeClient implements LLM using the Anthropic API.
type ClaudeClient struct {
	client *anthropic.Client
	model  anthropic.Model
}

type ClaudeOption func(*ClaudeClient)

func WithClaudeModel(model string) ClaudeOption {
	return func(c *ClaudeClient) {
		c.model = anthropic.Model(model)
	}
}

// NewClaude creates a new Claude API client.
func NewClaude(apiKey string, opts ...ClaudeOption) *ClaudeClient {
	client := anthropic.NewClient(
		option.WithAPIKey(apiKey),
	)
	c := &ClaudeClient{
		client: &client,
		model:  anthropic.ModelClaudeSonnet4_0,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Generate sends role-tagged turns to the Anthropic messages API. System
// turns become the system prompt.
func (c *ClaudeClient) Generate(ctx context.Context, turns []model.Turn, cfg *GenerateConfig) (*Completion, error) {
	var messages []anthropic.MessageParam
	var system []anthropic.TextBlockParam

	for _, turn := range turns {
		switch turn.Role {
		case model.RoleSystem:
			system = append(system, anthropic.TextBlockParam{Text: turn.Content})
		case model.RoleAssistant:
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(turn.Content)))
		default:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(turn.Content)))
		}
	}
	if len(messages) == 0 {
		return nil, goerr.New("no conversation turns to send")
	}

	params := anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: defaultClaudeMaxTokens,
		Messages:  messages,
		System:    system,
	}
	if cfg != nil {
		if cfg.MaxOutputTokens > 0 {
			params.MaxTokens = int64(cfg.MaxOutputTokens)
		}
		params.Temperature = anthropic.Float(cfg.Temperature)
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to call messages API")
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return nil, goerr.New("empty response from model")
	}

	return &Completion{
		Text:       text.String(),
		TokensUsed: int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
	}, nil
}
