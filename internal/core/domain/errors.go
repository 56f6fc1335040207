package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrEmptyInput indicates blank text or a blank question.
	// Requests are rejected with this before any network call is made.
	ErrEmptyInput = errors.New("empty input")

	// ErrInvalidChunking indicates invalid chunker parameters,
	// e.g. overlap >= window size.
	ErrInvalidChunking = errors.New("invalid chunking parameters")

	// ErrGateway indicates the embedding or generation capability was
	// unreachable, timed out, or returned a non-success status.
	// Unparseable gateway responses are classified the same way.
	ErrGateway = errors.New("gateway failure")

	// ErrStore indicates a vector store add or search failure.
	ErrStore = errors.New("vector store failure")
)
