package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arden-labs/ragline/internal/core/domain"
)

// fakeQdrant records requests and serves canned collection/point responses.
type fakeQdrant struct {
	mux         *http.ServeMux
	upserts     []map[string]any
	searchScore []float64
	hasColl     bool
}

func newFakeQdrant(t *testing.T) (*fakeQdrant, *httptest.Server) {
	t.Helper()
	f := &fakeQdrant{mux: http.NewServeMux()}

	f.mux.HandleFunc("GET /collections/test", func(w http.ResponseWriter, _ *http.Request) {
		if !f.hasColl {
			http.NotFound(w, nil)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	f.mux.HandleFunc("PUT /collections/test", func(w http.ResponseWriter, _ *http.Request) {
		f.hasColl = true
		w.WriteHeader(http.StatusOK)
	})
	f.mux.HandleFunc("PUT /collections/test/points", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Points []map[string]any `json:"points"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		f.upserts = append(f.upserts, body.Points...)
		w.WriteHeader(http.StatusOK)
	})
	f.mux.HandleFunc("POST /collections/test/points/search", func(w http.ResponseWriter, _ *http.Request) {
		type result struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		}
		results := make([]result, 0, len(f.searchScore))
		for i, score := range f.searchScore {
			results = append(results, result{
				Score: score,
				Payload: map[string]any{
					"doc_id":      "d1",
					"chunk_index": i,
					"text":        "chunk text",
				},
			})
		}
		json.NewEncoder(w).Encode(map[string]any{"result": results})
	})
	f.mux.HandleFunc("POST /collections/test/points/count", func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"result": map[string]any{"count": len(f.upserts)}})
	})

	srv := httptest.NewServer(f.mux)
	t.Cleanup(srv.Close)
	return f, srv
}

func newTestStore(srv *httptest.Server) *Store {
	return NewStore(Config{URL: srv.URL, Collection: "test", Dimensions: 3})
}

func TestAdd_CreatesCollectionAndUpserts(t *testing.T) {
	f, srv := newFakeQdrant(t)
	s := newTestStore(srv)

	err := s.Add(context.Background(), []domain.Entry{{
		ID:       "d1_0",
		Text:     "hello",
		Metadata: domain.ChunkMeta{DocID: "d1", ChunkIndex: 0},
		Vector:   []float32{1, 0, 0},
	}})
	require.NoError(t, err)

	assert.True(t, f.hasColl, "collection created on first add")
	require.Len(t, f.upserts, 1)

	payload, ok := f.upserts[0]["payload"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "d1_0", payload["entry_id"])
	assert.Equal(t, "d1", payload["doc_id"])
	assert.Equal(t, "hello", payload["text"])

	// Point ids must be UUIDs, deterministically derived from the entry id.
	assert.Equal(t, pointID("d1_0"), f.upserts[0]["id"])
}

func TestPointID_IsDeterministic(t *testing.T) {
	assert.Equal(t, pointID("a_1"), pointID("a_1"))
	assert.NotEqual(t, pointID("a_1"), pointID("a_2"))
}

func TestSearch_ConvertsScoreToDistance(t *testing.T) {
	f, srv := newFakeQdrant(t)
	f.searchScore = []float64{0.9, 0.4}
	s := newTestStore(srv)

	hits, err := s.Search(context.Background(), []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)

	assert.InDelta(t, 0.1, hits[0].Distance, 1e-9)
	assert.InDelta(t, 0.6, hits[1].Distance, 1e-9)
	assert.Equal(t, "d1", hits[0].Metadata.DocID)
	assert.Equal(t, 1, hits[1].Metadata.ChunkIndex)
}

func TestSearch_MissingCollectionMeansEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.NotFound(w, nil)
	}))
	defer srv.Close()

	s := newTestStore(srv)
	hits, err := s.Search(context.Background(), []float32{1}, 4)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestAdd_ServerErrorIsStoreError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.WriteHeader(http.StatusOK) // collection "exists"
			return
		}
		http.Error(w, "out of disk", http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := newTestStore(srv)
	err := s.Add(context.Background(), []domain.Entry{{ID: "x", Vector: []float32{1}}})
	assert.ErrorIs(t, err, domain.ErrStore)
}

func TestCount(t *testing.T) {
	f, srv := newFakeQdrant(t)
	s := newTestStore(srv)

	require.NoError(t, s.Add(context.Background(), []domain.Entry{
		{ID: "a", Vector: []float32{1, 0, 0}},
		{ID: "b", Vector: []float32{0, 1, 0}},
	}))

	n, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	_ = f
}
