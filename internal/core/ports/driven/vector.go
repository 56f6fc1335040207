package driven

import (
	"context"

	"github.com/arden-labs/ragline/internal/core/domain"
)

// VectorStore persists (id, text, metadata, vector) entries and answers
// k-nearest-neighbour queries by cosine distance.
//
// Entries become visible to Search only after Add returns successfully.
// Add is atomic per batch where the backend allows it: the sqlite adapter
// wraps the batch in one transaction, the memory adapter validates before
// appending, and the qdrant adapter sends a single upsert request.
// Re-adding an existing id replaces the stored entry (upsert); callers
// generate fresh ids per ingest regardless.
type VectorStore interface {
	// Add inserts the given entries. Entry vectors must all have the
	// store's configured dimensionality.
	Add(ctx context.Context, entries []domain.Entry) error

	// Search returns the min(k, stored) entries nearest to the query
	// vector, ordered ascending by cosine distance. An empty store yields
	// an empty result, not an error.
	Search(ctx context.Context, vector []float32, k int) ([]domain.RetrievalHit, error)

	// Count returns the number of stored entries.
	Count(ctx context.Context) (int, error)

	// Ping validates the store is reachable and ready.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
