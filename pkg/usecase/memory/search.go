package memory

import (
	"context"
	"math"
	"sort"

	"github.com/kioku-ai/kioku/pkg/model"
	"github.com/m-mizutani/goerr/v2"
)

// maxSnippetGroups caps how many retrieval hits (user message plus its
// reply) a search returns.
const maxSnippetGroups = 5

// Search retrieves past user messages semantically similar to query,
// together with the agent reply that immediately followed each of them.
// Results are ordered most relevant first. An empty store or a query with no
// match above the threshold yields an empty result, not an error.
func (u *UseCase) Search(ctx context.Context, query string) ([]*model.Snippet, error) {
	queryVec, err := u.provider.Embed(ctx, query)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to embed query", goerr.V("provider", u.provider.Name()))
	}

	messages, err := u.repo.ScanAll(ctx)
	if err != nil {
		return nil, err
	}

	threshold := u.threshold
	if threshold == 0 {
		threshold = u.provider.Threshold()
	}

	type group struct {
		score    float64
		snippets []*model.Snippet
	}
	var groups []group

	for i, msg := range messages {
		if msg.Sender != model.SenderUser {
			continue
		}

		score, err := cosineSimilarity(queryVec, msg.Embedding)
		if err != nil {
			return nil, goerr.Wrap(err, "cannot compare query with stored message",
				goerr.V("id", msg.ID), goerr.V("provider", u.provider.Name()))
		}
		if score < threshold {
			continue
		}

		g := group{
			score:    score,
			snippets: []*model.Snippet{{Role: model.RoleUser, Text: msg.Text}},
		}
		// The row stored right after the hit is the reply half of the
		// exchange; it is included regardless of its own similarity.
		if i+1 < len(messages) {
			g.snippets = append(g.snippets, &model.Snippet{
				Role: model.RoleAssistant,
				Text: messages[i+1].Text,
			})
		}
		groups = append(groups, g)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].score > groups[j].score
	})
	if len(groups) > u.limit {
		groups = groups[:u.limit]
	}

	var snippets []*model.Snippet
	for _, g := range groups {
		snippets = append(snippets, g.snippets...)
	}
	return snippets, nil
}

// cosineSimilarity computes dot(a,b) / (|a| * |b|). Vectors of different
// dimensionality are rejected rather than scored.
func cosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, goerr.Wrap(model.ErrDimensionMismatch, "embedding dimensions differ",
			goerr.V("query_dims", len(a)), goerr.V("stored_dims", len(b)))
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}
