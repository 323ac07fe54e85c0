package adapter_test

import (
	"context"
	"os"
	"testing"

	"github.com/kioku-ai/kioku/pkg/adapter"
	"github.com/kioku-ai/kioku/pkg/model"
	"github.com/m-mizutani/gt"
)

func TestGeminiGenerate(t *testing.T) {
	projectID := os.Getenv("TEST_GEMINI_PROJECT")
	if projectID == "" {
		t.Skip("TEST_GEMINI_PROJECT is not set")
	}

	ctx := context.Background()
	client, err := adapter.NewGemini(ctx, projectID, "us-central1")
	gt.NoError(t, err)

	completion, err := client.Generate(ctx, []model.Turn{
		{Role: model.RoleSystem, Content: "Answer with a single word."},
		{Role: model.RoleUser, Content: "What is the capital of France?"},
	}, &adapter.GenerateConfig{
		MaxOutputTokens: 100,
		CandidateCount:  1,
	})
	gt.NoError(t, err)
	gt.S(t, completion.Text).Contains("Paris")

	t.Log("response:", completion.Text)
}

func TestGeminiEmbedding(t *testing.T) {
	projectID := os.Getenv("TEST_GEMINI_PROJECT")
	if projectID == "" {
		t.Skip("TEST_GEMINI_PROJECT is not set")
	}

	ctx := context.Background()
	client, err := adapter.NewGemini(ctx, projectID, "us-central1")
	gt.NoError(t, err)

	vec, err := client.Embedding(ctx, "I love hiking in the mountains")
	gt.NoError(t, err)
	gt.A(t, vec).Longer(0)
}
