package chat

import (
	"context"

	"github.com/kioku-ai/kioku/pkg/model"
	"github.com/m-mizutani/goerr/v2"
)

const (
	recencySummaryPreamble   = "What follows is a summary of the most recent conversation you have had with the user. Use it as context for your answer, if relevant: "
	relevanceSummaryPreamble = "Here is some information from past conversations that may be relevant to the query: "
)

// buildContext assembles the ordered prompt for one conversation cycle:
// persona, recency summary over the last turns, a relevance summary when
// similarity search surfaced anything, and finally the new user message.
// The assembled turns are handed to the model by the caller; buildContext
// itself never requests the final answer.
func (s *Session) buildContext(ctx context.Context, userMessage string) ([]model.Turn, error) {
	turns := []model.Turn{{Role: model.RoleSystem, Content: s.persona}}

	recent, err := s.memory.Recent(ctx, recentTurnCount)
	if err != nil {
		return nil, err
	}
	recencySummary, err := s.summarizer.SummarizeRecent(ctx, recent)
	if err != nil {
		return nil, err
	}
	if recencySummary != "" {
		turns = append(turns, model.Turn{
			Role:    model.RoleAssistant,
			Content: recencySummaryPreamble + recencySummary,
		})
	}

	snippets, err := s.memory.Search(ctx, userMessage)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to search related context")
	}
	if len(snippets) > 0 {
		relevanceSummary, err := s.summarizer.SummarizeSnippets(ctx, snippets, userMessage)
		if err != nil {
			return nil, err
		}
		turns = append(turns, model.Turn{
			Role:    model.RoleAssistant,
			Content: relevanceSummaryPreamble + relevanceSummary,
		})
	}

	turns = append(turns, model.Turn{Role: model.RoleUser, Content: userMessage})
	return turns, nil
}
