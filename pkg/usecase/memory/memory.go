// Package memory implements the conversational memory engine: recording
// turns into the persistent log, recency queries, similarity retrieval, and
// maintenance of stored embeddings.
package memory

import (
	"context"

	"github.com/kioku-ai/kioku/pkg/embedding"
	"github.com/kioku-ai/kioku/pkg/model"
	"github.com/kioku-ai/kioku/pkg/repository"
	"github.com/m-mizutani/goerr/v2"
)

// forgetCount is the number of messages removed by Forget: one user message
// and the agent reply that followed it.
const forgetCount = 2

// UseCase provides memory operations over a repository and an embedding
// provider.
type UseCase struct {
	repo      repository.Repository
	provider  embedding.Provider
	threshold float64 // 0 means use the provider default
	limit     int
}

// Option is a functional option for UseCase.
type Option func(*UseCase)

// WithThreshold overrides the provider's default similarity cutoff.
func WithThreshold(v float64) Option {
	return func(u *UseCase) {
		u.threshold = v
	}
}

// WithSearchLimit caps the number of retrieval score-groups.
func WithSearchLimit(n int) Option {
	return func(u *UseCase) {
		u.limit = n
	}
}

// New creates a memory UseCase instance.
func New(repo repository.Repository, provider embedding.Provider, opts ...Option) *UseCase {
	u := &UseCase{
		repo:     repo,
		provider: provider,
		limit:    maxSnippetGroups,
	}

	for _, opt := range opts {
		opt(u)
	}

	return u
}

// RecordResult reports the outcome of Record. Skipped is true when the text
// was a command and nothing was persisted.
type RecordResult struct {
	ID      int64
	Skipped bool
}

// Record embeds and persists one conversation turn. Command messages are
// skipped without side effects. When embedding fails, nothing is persisted.
func (u *UseCase) Record(ctx context.Context, sender model.Sender, timestamp, text string) (*RecordResult, error) {
	if model.IsCommand(text) {
		return &RecordResult{Skipped: true}, nil
	}

	vec, err := u.provider.Embed(ctx, text)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to embed message", goerr.V("provider", u.provider.Name()))
	}

	id, err := u.repo.Put(ctx, &model.Message{
		Timestamp: timestamp,
		Sender:    sender,
		Text:      text,
		Embedding: vec,
	})
	if err != nil {
		return nil, err
	}

	return &RecordResult{ID: id}, nil
}

// Recent returns up to n most recent messages, oldest first.
func (u *UseCase) Recent(ctx context.Context, n int) ([]*model.Message, error) {
	return u.repo.LastN(ctx, n)
}

// Forget removes the most recent exchange (user message and agent reply).
func (u *UseCase) Forget(ctx context.Context) error {
	return u.repo.DeleteRecent(ctx, forgetCount)
}

// Amnesia clears the entire conversation log.
func (u *UseCase) Amnesia(ctx context.Context) error {
	return u.repo.DeleteAll(ctx)
}
