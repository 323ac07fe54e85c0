package memory

import (
	"context"

	"github.com/kioku-ai/kioku/pkg/embedding"
	"github.com/kioku-ai/kioku/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// Reembed recomputes the embedding of every stored message with provider and
// overwrites it in place. Each row is updated in its own statement, so a
// failure mid-run leaves earlier rows re-embedded and later rows untouched;
// the store then holds mixed dimensionality until Reembed is run again.
// Returns the number of rows rewritten.
func (u *UseCase) Reembed(ctx context.Context, provider embedding.Provider) (int, error) {
	messages, err := u.repo.ScanAll(ctx)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, msg := range messages {
		vec, err := provider.Embed(ctx, msg.Text)
		if err != nil {
			return count, goerr.Wrap(err, "failed to re-embed message",
				goerr.V("id", msg.ID), goerr.V("provider", provider.Name()))
		}
		if err := u.repo.UpdateEmbedding(ctx, msg.ID, vec); err != nil {
			return count, err
		}
		count++
	}

	logging.From(ctx).Info("re-embedded stored messages",
		"count", count, "provider", provider.Name())
	return count, nil
}
