package driving

import (
	"context"

	"github.com/arden-labs/ragline/internal/core/domain"
)

// PipelineService exposes the retrieval-augmented generation pipeline.
type PipelineService interface {
	// Ingest chunks, embeds and stores the given text under docID.
	// When docID is empty a fresh identifier is generated. Blank text is
	// rejected with domain.ErrEmptyInput before any network call.
	Ingest(ctx context.Context, docID, text string) (domain.IngestReceipt, error)

	// Query answers a natural-language question from the stored corpus.
	// k caps the number of retrieved chunks; k <= 0 selects the default.
	// Blank questions are rejected with domain.ErrEmptyInput before any
	// network call.
	Query(ctx context.Context, question string, k int) (domain.Answer, error)
}
