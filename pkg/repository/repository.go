package repository

import (
	"context"

	"github.com/kioku-ai/kioku/pkg/model"
)

// Repository defines persistence for the append-only conversation log.
type Repository interface {
	// Put appends a message and returns its assigned id. Ids are strictly
	// increasing in insertion order and never reused, even after deletion.
	Put(ctx context.Context, msg *model.Message) (int64, error)

	// LastN returns up to n most recent messages in chronological order,
	// oldest first.
	LastN(ctx context.Context, n int) ([]*model.Message, error)

	// ScanAll returns every stored message ordered by id.
	ScanAll(ctx context.Context) ([]*model.Message, error)

	// DeleteRecent removes the k most recent messages.
	DeleteRecent(ctx context.Context, k int) error

	// DeleteAll clears the entire log.
	DeleteAll(ctx context.Context) error

	// UpdateEmbedding overwrites the embedding of a single stored message.
	UpdateEmbedding(ctx context.Context, id int64, embedding []float32) error

	// Close releases the underlying storage.
	Close() error
}
