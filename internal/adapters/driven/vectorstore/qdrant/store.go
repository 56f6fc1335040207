// Package qdrant provides a vector store adapter speaking the Qdrant REST
// API. It assumes cosine distance and creates the collection if missing.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/arden-labs/ragline/internal/core/domain"
	"github.com/arden-labs/ragline/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Default configuration values.
const (
	DefaultURL        = "http://localhost:6333"
	DefaultCollection = "docs"
	DefaultTimeout    = 15 * time.Second
)

// Config holds configuration for the Qdrant store.
type Config struct {
	// URL is the Qdrant REST endpoint (default: http://localhost:6333).
	URL string

	// APIKey authenticates requests when set.
	APIKey string

	// Collection is the collection name (default: docs).
	Collection string

	// Dimensions is the vector size the collection is created with.
	// Must match the embedding model.
	Dimensions int

	// Timeout is the per-request timeout (default: 15s).
	Timeout time.Duration
}

// Store is a minimal REST client to Qdrant.
type Store struct {
	client     *http.Client
	url        string
	apiKey     string
	collection string
	dimensions int
}

// NewStore creates a Qdrant-backed vector store.
func NewStore(cfg Config) *Store {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Store{
		client:     &http.Client{Timeout: cfg.Timeout},
		url:        strings.TrimSuffix(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		dimensions: cfg.Dimensions,
	}
}

// pointID maps an entry id onto a deterministic UUID, which is what Qdrant
// accepts as a point id. The original id is kept in the payload. Determinism
// preserves upsert semantics for re-added ids.
func pointID(id string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(id)).String()
}

// EnsureCollection creates the collection with cosine distance if it does
// not exist yet. Qdrant answers 200 for an existing collection with the
// same schema.
func (s *Store) EnsureCollection(ctx context.Context) error {
	resp, err := s.do(ctx, http.MethodGet, "/collections/"+s.collection, nil)
	if err == nil && resp.StatusCode == http.StatusOK {
		drain(resp)
		return nil
	}
	if resp != nil {
		drain(resp)
	}

	body := map[string]any{
		"vectors": map[string]any{
			"size":     s.dimensions,
			"distance": "Cosine",
		},
	}
	resp, err = s.do(ctx, http.MethodPut, "/collections/"+s.collection, body)
	if err != nil {
		return fmt.Errorf("creating collection: %v: %w", err, domain.ErrStore)
	}
	defer drain(resp)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("creating collection %s: %s: %w", s.collection, resp.Status, domain.ErrStore)
	}
	return nil
}

// Add upserts the entries as one request; the batch is as atomic as the
// backend makes a single upsert.
func (s *Store) Add(ctx context.Context, entries []domain.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	if err := s.EnsureCollection(ctx); err != nil {
		return err
	}

	points := make([]map[string]any, len(entries))
	for i, e := range entries {
		points[i] = map[string]any{
			"id":     pointID(e.ID),
			"vector": e.Vector,
			"payload": map[string]any{
				"entry_id":    e.ID,
				"doc_id":      e.Metadata.DocID,
				"chunk_index": e.Metadata.ChunkIndex,
				"text":        e.Text,
			},
		}
	}

	resp, err := s.do(ctx, http.MethodPut, "/collections/"+s.collection+"/points?wait=true",
		map[string]any{"points": points})
	if err != nil {
		return fmt.Errorf("upserting points: %v: %w", err, domain.ErrStore)
	}
	defer drain(resp)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("upserting points: %s: %w", resp.Status, domain.ErrStore)
	}
	return nil
}

// Search queries the collection for the k nearest points. Qdrant reports
// cosine similarity as the score; hits carry 1 - score as distance, ordered
// ascending.
func (s *Store) Search(ctx context.Context, vector []float32, k int) ([]domain.RetrievalHit, error) {
	req := map[string]any{
		"vector":       vector,
		"limit":        k,
		"with_payload": true,
	}

	resp, err := s.do(ctx, http.MethodPost, "/collections/"+s.collection+"/points/search", req)
	if err != nil {
		return nil, fmt.Errorf("searching points: %v: %w", err, domain.ErrStore)
	}
	defer drain(resp)

	// A missing collection means nothing was ever added.
	if resp.StatusCode == http.StatusNotFound {
		return []domain.RetrievalHit{}, nil
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("searching points: %s: %w", resp.Status, domain.ErrStore)
	}

	var out struct {
		Result []struct {
			Score   float64 `json:"score"`
			Payload struct {
				DocID      string `json:"doc_id"`
				ChunkIndex int    `json:"chunk_index"`
				Text       string `json:"text"`
			} `json:"payload"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding search response: %v: %w", err, domain.ErrStore)
	}

	hits := make([]domain.RetrievalHit, 0, len(out.Result))
	for _, r := range out.Result {
		hits = append(hits, domain.RetrievalHit{
			Document: r.Payload.Text,
			Metadata: domain.ChunkMeta{
				DocID:      r.Payload.DocID,
				ChunkIndex: r.Payload.ChunkIndex,
			},
			Distance: 1 - r.Score,
		})
	}
	return hits, nil
}

// Count returns the exact number of stored points.
func (s *Store) Count(ctx context.Context) (int, error) {
	resp, err := s.do(ctx, http.MethodPost, "/collections/"+s.collection+"/points/count",
		map[string]any{"exact": true})
	if err != nil {
		return 0, fmt.Errorf("counting points: %v: %w", err, domain.ErrStore)
	}
	defer drain(resp)

	if resp.StatusCode == http.StatusNotFound {
		return 0, nil
	}
	if resp.StatusCode >= 300 {
		return 0, fmt.Errorf("counting points: %s: %w", resp.Status, domain.ErrStore)
	}

	var out struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("decoding count response: %v: %w", err, domain.ErrStore)
	}
	return out.Result.Count, nil
}

// Ping verifies the endpoint is reachable and the collection exists,
// creating it when missing.
func (s *Store) Ping(ctx context.Context) error {
	return s.EnsureCollection(ctx)
}

// Close releases resources.
func (s *Store) Close() error {
	return nil
}

func (s *Store) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.url+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}

	return s.client.Do(req)
}

func drain(resp *http.Response) {
	io.Copy(io.Discard, resp.Body) //nolint:errcheck
	resp.Body.Close()
}
