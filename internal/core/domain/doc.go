// Package domain defines the core business entities for Ragline.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Entry: A persisted (id, text, metadata, vector) tuple
//   - ChunkMeta: Provenance metadata attached to every entry
//   - RetrievalHit: A ranked similarity-search result
//   - Answer: A generated answer with its cited sources
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
