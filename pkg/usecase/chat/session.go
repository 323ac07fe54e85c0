// Package chat runs conversation turns against the language model, backed by
// the persistent memory engine: each turn is answered with a prompt built
// from the agent persona, a rolling summary of recent turns, and a summary of
// similar past exchanges.
package chat

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/kioku-ai/kioku/pkg/adapter"
	"github.com/kioku-ai/kioku/pkg/model"
	"github.com/kioku-ai/kioku/pkg/usecase/memory"
	"github.com/kioku-ai/kioku/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

const (
	// recentTurnCount is how many recent messages feed the rolling summary.
	recentTurnCount = 10

	replyMaxTokens   = 500
	replyTemperature = 0.6

	timestampLayout = "2006-01-02 15:04:05"
)

// Session runs one conversation. A turn is fully processed — context built,
// model called, both messages persisted — before the next one is accepted.
type Session struct {
	memory     *memory.UseCase
	llm        adapter.LLM
	summarizer *Summarizer
	persona    string

	id    string
	turns int
}

// NewInput contains dependencies for creating a Session.
type NewInput struct {
	Memory  *memory.UseCase
	LLM     adapter.LLM
	Persona string
}

func New(input NewInput) *Session {
	return &Session{
		memory:     input.Memory,
		llm:        input.LLM,
		summarizer: NewSummarizer(input.LLM, input.Persona),
		persona:    input.Persona,
		id:         uuid.New().String(),
	}
}

// Summarizer returns the session's summarizer, for callers that need a
// summary outside the normal turn flow.
func (s *Session) Summarizer() *Summarizer {
	return s.summarizer
}

// Reply is the agent's answer to one user message.
type Reply struct {
	Text       string
	TokensUsed int
}

// Send processes one full conversation turn. The user and agent messages are
// persisted only after the model call succeeds; any failure aborts the turn
// with no partial conversation state, so the caller may retry the same input.
func (s *Session) Send(ctx context.Context, message string) (*Reply, error) {
	timestamp := time.Now().Format(timestampLayout)

	turns, err := s.buildContext(ctx, message)
	if err != nil {
		return nil, err
	}

	completion, err := s.llm.Generate(ctx, turns, &adapter.GenerateConfig{
		MaxOutputTokens: replyMaxTokens,
		Temperature:     replyTemperature,
		CandidateCount:  1,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate reply", goerr.V("session", s.id))
	}

	if _, err := s.memory.Record(ctx, model.SenderUser, timestamp, message); err != nil {
		return nil, goerr.Wrap(err, "failed to store user message", goerr.V("session", s.id))
	}
	if _, err := s.memory.Record(ctx, model.SenderAgent, timestamp, completion.Text); err != nil {
		return nil, goerr.Wrap(err, "failed to store agent message", goerr.V("session", s.id))
	}

	s.turns++
	logging.From(ctx).Info("model interaction",
		"session", s.id,
		"turn", s.turns,
		"tokens_used", completion.TokensUsed,
	)

	return &Reply{
		Text:       completion.Text,
		TokensUsed: completion.TokensUsed,
	}, nil
}
