package chat

import (
	"context"
	_ "embed"
	"strings"

	"github.com/kioku-ai/kioku/pkg/adapter"
	"github.com/kioku-ai/kioku/pkg/model"
	"github.com/m-mizutani/goerr/v2"
)

const (
	// Output budgets for the two summary kinds, enforced by the model call.
	recencySummaryTokens = 150
	snippetSummaryTokens = 250

	summaryTemperature = 0.6
)

//go:embed prompt/recency.md
var recencyPromptRaw string

//go:embed prompt/snippets.md
var snippetsPromptRaw string

// Summarizer condenses conversation history through the language model. It
// never mutates store state; upstream failures are propagated to the caller.
type Summarizer struct {
	llm     adapter.LLM
	persona string
}

// NewSummarizer creates a Summarizer. persona is the agent's system prompt,
// included so recency summaries are written in the agent's own voice.
func NewSummarizer(llm adapter.LLM, persona string) *Summarizer {
	return &Summarizer{
		llm:     llm,
		persona: persona,
	}
}

// SummarizeRecent condenses the given messages (oldest first) into a short
// paragraph. An empty transcript yields an empty summary without a model
// call.
func (s *Summarizer) SummarizeRecent(ctx context.Context, messages []*model.Message) (string, error) {
	if len(messages) == 0 {
		return "", nil
	}

	turns := make([]model.Turn, 0, len(messages)+2)
	turns = append(turns, model.Turn{Role: model.RoleSystem, Content: s.persona})
	for _, msg := range messages {
		turns = append(turns, model.Turn{Role: msg.Sender.Role(), Content: msg.Text})
	}
	turns = append(turns, model.Turn{Role: model.RoleUser, Content: strings.TrimSpace(recencyPromptRaw)})

	completion, err := s.llm.Generate(ctx, turns, &adapter.GenerateConfig{
		MaxOutputTokens: recencySummaryTokens,
		Temperature:     summaryTemperature,
		CandidateCount:  1,
	})
	if err != nil {
		return "", goerr.Wrap(err, "failed to summarize recent conversation")
	}

	return completion.Text, nil
}

// SummarizeSnippets condenses retrieved snippets into a paragraph of
// information relevant to query.
func (s *Summarizer) SummarizeSnippets(ctx context.Context, snippets []*model.Snippet, query string) (string, error) {
	if len(snippets) == 0 {
		return "", nil
	}

	turns := []model.Turn{
		{Role: model.RoleSystem, Content: strings.TrimSpace(snippetsPromptRaw)},
		{Role: model.RoleUser, Content: query},
		{Role: model.RoleAssistant, Content: "The following conversation history might contain information relevant to your query:\n" + formatSnippets(snippets)},
	}

	completion, err := s.llm.Generate(ctx, turns, &adapter.GenerateConfig{
		MaxOutputTokens: snippetSummaryTokens,
		Temperature:     summaryTemperature,
		CandidateCount:  1,
	})
	if err != nil {
		return "", goerr.Wrap(err, "failed to summarize retrieved snippets")
	}

	return completion.Text, nil
}

func formatSnippets(snippets []*model.Snippet) string {
	var b strings.Builder
	for _, snippet := range snippets {
		b.WriteString(string(snippet.Role))
		b.WriteString(": ")
		b.WriteString(snippet.Text)
		b.WriteString("\n")
	}
	return b.String()
}
