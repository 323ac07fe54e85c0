package adapter_test

import (
	"context"
	"os"
	"testing"

	"github.com/kioku-ai/kioku/pkg/adapter"
	"github.com/kioku-ai/kioku/pkg/model"
	"github.com/m-mizutani/gt"
)

func TestClaudeGenerate(t *testing.T) {
	apiKey := os.Getenv("TEST_ANTHROPIC_API_KEY")
	if apiKey == "" {
		t.Skip("TEST_ANTHROPIC_API_KEY is not set")
	}

	ctx := context.Background()
	client := adapter.NewClaude(apiKey)

	completion, err := client.Generate(ctx, []model.Turn{
		{Role: model.RoleSystem, Content: "Answer with a single word."},
		{Role: model.RoleUser, Content: "What is the capital of France?"},
	}, &adapter.GenerateConfig{
		MaxOutputTokens: 100,
		Temperature:     0,
	})
	gt.NoError(t, err)
	gt.S(t, completion.Text).Contains("Paris")
	gt.Number(t, completion.TokensUsed).Greater(0)
}
