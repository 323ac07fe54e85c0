package adapter

import (
	"context"

	"github.com/kioku-ai/kioku/pkg/model"
)

// GenerateConfig carries per-call generation parameters.
type GenerateConfig struct {
	MaxOutputTokens int
	Temperature     float64
	CandidateCount  int
}

// Completion is the result of a text completion call.
type Completion struct {
	Text       string
	TokensUsed int
}

// LLM is the opaque text-completion service. Implementations: GeminiClient,
// ClaudeClient.
type LLM interface {
	Generate(ctx context.Context, turns []model.Turn, cfg *GenerateConfig) (*Completion, error)
}
