package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arden-labs/ragline/internal/core/domain"
	"github.com/arden-labs/ragline/internal/core/ports/driven"
)

func TestNewLLMService_Defaults(t *testing.T) {
	s := NewLLMService(Config{})

	assert.Equal(t, DefaultBaseURL, s.baseURL)
	assert.Equal(t, DefaultModel, s.ModelName())
}

func TestGenerate_SendsNonStreamingRequest(t *testing.T) {
	var got generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/generate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(generateResponse{Response: "the sky is blue", Done: true})
	}))
	defer srv.Close()

	s := NewLLMService(Config{BaseURL: srv.URL, Model: "test-llm"})

	answer, err := s.Generate(context.Background(), "why is the sky blue?", driven.GenerateOptions{})
	require.NoError(t, err)

	assert.Equal(t, "the sky is blue", answer)
	assert.Equal(t, "test-llm", got.Model)
	assert.Equal(t, "why is the sky blue?", got.Prompt)
	assert.False(t, got.Stream)
	assert.Nil(t, got.Options, "no options block when none set")
}

func TestGenerate_ForwardsOptions(t *testing.T) {
	var got generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(generateResponse{Response: "ok"})
	}))
	defer srv.Close()

	s := NewLLMService(Config{BaseURL: srv.URL})

	_, err := s.Generate(context.Background(), "p", driven.GenerateOptions{
		MaxTokens:   64,
		Temperature: 0.2,
		StopWords:   []string{"END"},
	})
	require.NoError(t, err)

	require.NotNil(t, got.Options)
	assert.Equal(t, 64, got.Options.NumPredict)
	assert.InDelta(t, 0.2, got.Options.Temperature, 1e-9)
	assert.Equal(t, []string{"END"}, got.Options.Stop)
}

func TestGenerate_NonOKStatusIsGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "overloaded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	s := NewLLMService(Config{BaseURL: srv.URL})

	_, err := s.Generate(context.Background(), "p", driven.GenerateOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrGateway)
	assert.Contains(t, err.Error(), "429")
}

func TestGenerate_UnparseableResponseIsGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("<html>gateway error</html>"))
	}))
	defer srv.Close()

	s := NewLLMService(Config{BaseURL: srv.URL})

	_, err := s.Generate(context.Background(), "p", driven.GenerateOptions{})
	assert.ErrorIs(t, err, domain.ErrGateway)
}

func TestLLMPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/tags", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewLLMService(Config{BaseURL: srv.URL})
	assert.NoError(t, s.Ping(context.Background()))
}
