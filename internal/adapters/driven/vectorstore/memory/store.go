// Package memory provides an in-memory vector store for tests and
// ephemeral runs. Nothing survives process exit.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/arden-labs/ragline/internal/core/domain"
	"github.com/arden-labs/ragline/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Store is an in-memory implementation of driven.VectorStore.
// Entries live in insertion order; re-adding an id overwrites in place.
type Store struct {
	mu      sync.RWMutex
	order   []string
	entries map[string]domain.Entry
}

// NewStore creates a new in-memory vector store.
func NewStore() *Store {
	return &Store{
		entries: make(map[string]domain.Entry),
	}
}

// Add inserts the given entries. The batch is validated before anything is
// appended, so a rejected batch leaves the store untouched.
func (s *Store) Add(_ context.Context, entries []domain.Entry) error {
	for i, e := range entries {
		if e.ID == "" {
			return fmt.Errorf("entry %d has no id: %w", i, domain.ErrStore)
		}
		if len(e.Vector) == 0 {
			return fmt.Errorf("entry %q has no vector: %w", e.ID, domain.ErrStore)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		if _, exists := s.entries[e.ID]; !exists {
			s.order = append(s.order, e.ID)
		}
		s.entries[e.ID] = e
	}
	return nil
}

// Search returns the min(k, stored) nearest entries by ascending cosine
// distance. An empty store yields an empty result.
func (s *Store) Search(_ context.Context, vector []float32, k int) ([]domain.RetrievalHit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	hits := make([]domain.RetrievalHit, 0, len(s.entries))
	for _, id := range s.order {
		e := s.entries[id]
		hits = append(hits, domain.RetrievalHit{
			Document: e.Text,
			Metadata: e.Metadata,
			Distance: CosineDistance(vector, e.Vector),
		})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Distance < hits[j].Distance
	})

	if k < 0 {
		k = 0
	}
	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

// Count returns the number of stored entries.
func (s *Store) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries), nil
}

// Ping always succeeds.
func (s *Store) Ping(_ context.Context) error {
	return nil
}

// Close releases resources.
func (s *Store) Close() error {
	return nil
}

// CosineDistance returns 1 - cosine_similarity(a, b). Mismatched or
// zero-magnitude vectors score as maximally distant rather than erroring,
// keeping search total over whatever the store holds.
func CosineDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 1
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}
