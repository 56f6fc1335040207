// Package services implements the driving ports over the driven ports.
package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/arden-labs/ragline/internal/chunker"
	"github.com/arden-labs/ragline/internal/core/domain"
	"github.com/arden-labs/ragline/internal/core/ports/driven"
	"github.com/arden-labs/ragline/internal/core/ports/driving"
	"github.com/arden-labs/ragline/internal/logger"
)

// Ensure Pipeline implements the interface.
var _ driving.PipelineService = (*Pipeline)(nil)

// DefaultTopK is the number of chunks retrieved when the caller does not ask
// for a specific k.
const DefaultTopK = 4

// contextDelimiter separates retrieved chunks inside the prompt's CONTEXT
// block.
const contextDelimiter = "\n\n---\n\n"

// promptTemplate grounds the model in the retrieved context. The instruction
// to answer only from CONTEXT makes an empty context produce an
// "I don't know"-style answer instead of a hallucination.
const promptTemplate = `You are a helpful assistant. Answer based only on the CONTEXT.
If the answer cannot be found in the context, say you don't know.

CONTEXT:
%s

QUESTION: %s

ANSWER:`

// Pipeline orchestrates ingest (chunk, embed, store) and query (embed,
// search, prompt, generate). It holds no mutable state of its own: every
// request is an independent task sharing only the injected ports.
type Pipeline struct {
	chunker  *chunker.Chunker
	embedder driven.EmbeddingService
	store    driven.VectorStore
	llm      driven.LLMService
	generate driven.GenerateOptions
}

// NewPipeline creates the retrieval pipeline over the given ports.
func NewPipeline(
	ck *chunker.Chunker,
	embedder driven.EmbeddingService,
	store driven.VectorStore,
	llm driven.LLMService,
) *Pipeline {
	return &Pipeline{
		chunker:  ck,
		embedder: embedder,
		store:    store,
		llm:      llm,
	}
}

// Ingest chunks text, embeds every chunk in one batch and stores the
// resulting entries. Blank text is rejected before any network call. A
// gateway failure mid-ingest leaves nothing embedded or stored; re-ingesting
// after fixing the cause is safe.
func (p *Pipeline) Ingest(ctx context.Context, docID, text string) (domain.IngestReceipt, error) {
	logger.Section("Ingest")

	if strings.TrimSpace(text) == "" {
		logger.Debug("Rejecting empty text")
		return domain.IngestReceipt{}, fmt.Errorf("text: %w", domain.ErrEmptyInput)
	}

	if docID == "" {
		docID = uuid.New().String()
		logger.Debug("Generated doc id %s", docID)
	}

	chunks := p.chunker.Split(text)
	logger.Debug("Split into %d chunks (window %d, overlap %d)",
		len(chunks), p.chunker.MaxWords(), p.chunker.Overlap())

	vectors, err := p.embedder.EmbedBatch(ctx, chunks)
	if err != nil {
		return domain.IngestReceipt{}, fmt.Errorf("embedding chunks: %w", err)
	}

	entries := make([]domain.Entry, len(chunks))
	for i := range chunks {
		entries[i] = domain.Entry{
			ID:       domain.EntryID(docID, i),
			Text:     chunks[i],
			Metadata: domain.ChunkMeta{DocID: docID, ChunkIndex: i},
			Vector:   vectors[i],
		}
	}

	if err := p.store.Add(ctx, entries); err != nil {
		return domain.IngestReceipt{}, fmt.Errorf("storing entries: %w", err)
	}

	logger.Info("Ingested %s: %d chunks", docID, len(entries))
	return domain.IngestReceipt{DocID: docID, Chunks: len(entries)}, nil
}

// Query embeds the question, retrieves the k closest chunks, assembles the
// grounding prompt and returns the generated answer together with the ranked
// hits so callers can display provenance. Zero retrieved hits still produce
// an answer (the model is told the context is empty).
func (p *Pipeline) Query(ctx context.Context, question string, k int) (domain.Answer, error) {
	logger.Section("Query")

	question = strings.TrimSpace(question)
	if question == "" {
		logger.Debug("Rejecting empty question")
		return domain.Answer{}, fmt.Errorf("question: %w", domain.ErrEmptyInput)
	}
	if k <= 0 {
		k = DefaultTopK
	}
	logger.Debug("Question: %q, k=%d", question, k)

	vectors, err := p.embedder.EmbedBatch(ctx, []string{question})
	if err != nil {
		return domain.Answer{}, fmt.Errorf("embedding question: %w", err)
	}

	hits, err := p.store.Search(ctx, vectors[0], k)
	if err != nil {
		return domain.Answer{}, fmt.Errorf("searching store: %w", err)
	}
	logger.Debug("Retrieved %d hits", len(hits))

	prompt := BuildPrompt(question, hits)

	answer, err := p.llm.Generate(ctx, prompt, p.generate)
	if err != nil {
		return domain.Answer{}, fmt.Errorf("generating answer: %w", err)
	}

	return domain.Answer{Text: answer, Sources: hits}, nil
}

// BuildPrompt assembles the fixed grounding prompt from the question and the
// retrieved chunks in rank order.
func BuildPrompt(question string, hits []domain.RetrievalHit) string {
	docs := make([]string, len(hits))
	for i, h := range hits {
		docs[i] = h.Document
	}
	return fmt.Sprintf(promptTemplate, strings.Join(docs, contextDelimiter), question)
}
