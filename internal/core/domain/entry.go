package domain

// ChunkMeta is the provenance metadata attached to every stored entry.
// It links a chunk back to the document and position it was cut from.
type ChunkMeta struct {
	// DocID is the identifier of the ingested document, as supplied by
	// the caller or generated at ingest time.
	DocID string

	// ChunkIndex is the ordinal position of the chunk within the document.
	ChunkIndex int
}

// Entry is the persisted tuple owned by the vector store.
// Entries are created once at ingest time and never mutated.
type Entry struct {
	// ID is the store-safe identifier, built via EntryID.
	ID string

	// Text is the chunk text exactly as produced by the chunker.
	Text string

	// Metadata records which document and position the text came from.
	Metadata ChunkMeta

	// Vector is the embedding of Text. All entries of one document share
	// the store's configured dimensionality.
	Vector []float32
}

// RetrievalHit is a single ranked result of a similarity search.
// Hits are produced fresh per query and never persisted.
type RetrievalHit struct {
	// Document is the stored chunk text.
	Document string

	// Metadata is the provenance of the matched chunk.
	Metadata ChunkMeta

	// Distance is the cosine distance (1 - cosine similarity) between the
	// query vector and the stored vector. Lower is closer.
	Distance float64
}

// Answer is the result of a query: the generated text plus the hits that
// grounded it, in rank order. Ephemeral, never stored.
type Answer struct {
	Text    string
	Sources []RetrievalHit
}

// IngestReceipt reports the outcome of a successful ingestion.
type IngestReceipt struct {
	// DocID is the resolved document identifier (caller-supplied or generated).
	DocID string

	// Chunks is the number of entries written to the store.
	Chunks int
}
