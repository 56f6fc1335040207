// Package api provides the HTTP JSON API adapter for Ragline.
// It exposes the retrieval pipeline as /ingest, /ingest_file and /query,
// plus a /healthz readiness probe.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/arden-labs/ragline/internal/core/domain"
	"github.com/arden-labs/ragline/internal/core/ports/driving"
	"github.com/arden-labs/ragline/internal/logger"
)

// ErrMissingPipeline is returned when the pipeline service is not provided.
var ErrMissingPipeline = errors.New("api: pipeline service is required")

// maxUploadBytes caps /ingest_file uploads.
const maxUploadBytes = 32 << 20 // 32 MiB

// Pinger is the readiness check surface of a dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Ports collects everything the API serves from.
type Ports struct {
	// Pipeline handles ingest and query. Required.
	Pipeline driving.PipelineService

	// Checks are named readiness probes for /healthz. Optional.
	Checks map[string]Pinger
}

// Validate checks required ports are present.
func (p *Ports) Validate() error {
	if p.Pipeline == nil {
		return ErrMissingPipeline
	}
	return nil
}

// Server is the HTTP API server.
type Server struct {
	ports   *Ports
	handler http.Handler
}

// NewServer creates the API server with the given ports.
func NewServer(ports *Ports) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}

	s := &Server{ports: ports}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /ingest", s.handleIngest)
	mux.HandleFunc("POST /ingest_file", s.handleIngestFile)
	mux.HandleFunc("POST /query", s.handleQuery)
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	s.handler = mux

	return s, nil
}

// Handler exposes the route table, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves the API on addr until the context is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown when context is cancelled
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	err := httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// --- Wire format ---

// ingestRequest is the /ingest request body.
type ingestRequest struct {
	DocID string `json:"doc_id,omitempty"`
	Text  string `json:"text"`
}

// ingestResponse is the successful /ingest envelope.
type ingestResponse struct {
	OK     bool   `json:"ok"`
	DocID  string `json:"doc_id"`
	Chunks int    `json:"chunks"`
}

// queryRequest is the /query request body.
type queryRequest struct {
	Question string `json:"question"`
	K        int    `json:"k,omitempty"`
}

// sourceDTO is a retrieval hit on the wire.
type sourceDTO struct {
	Document string  `json:"document"`
	Metadata metaDTO `json:"metadata"`
	Distance float64 `json:"distance"`
}

// metaDTO is chunk provenance on the wire. The index key is "chunk" for
// compatibility with existing clients.
type metaDTO struct {
	DocID string `json:"doc_id"`
	Chunk int    `json:"chunk"`
}

// queryResponse is the successful /query envelope.
type queryResponse struct {
	OK      bool        `json:"ok"`
	Answer  string      `json:"answer"`
	Sources []sourceDTO `json:"sources"`
}

// errorResponse is the failure envelope shared by all routes.
type errorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// --- Handlers ---

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.ingest(r.Context(), w, req.DocID, req.Text)
}

func (s *Server) handleIngestFile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "reading upload")
		return
	}

	// Treat the upload as UTF-8 text, dropping invalid bytes.
	text := strings.ToValidUTF8(string(data), "")

	s.ingest(r.Context(), w, r.FormValue("doc_id"), text)
}

func (s *Server) ingest(ctx context.Context, w http.ResponseWriter, docID, text string) {
	receipt, err := s.ports.Pipeline.Ingest(ctx, docID, text)
	if err != nil {
		writePipelineError(w, err, "empty text")
		return
	}

	writeJSON(w, http.StatusOK, ingestResponse{
		OK:     true,
		DocID:  receipt.DocID,
		Chunks: receipt.Chunks,
	})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	answer, err := s.ports.Pipeline.Query(r.Context(), req.Question, req.K)
	if err != nil {
		writePipelineError(w, err, "empty question")
		return
	}

	sources := make([]sourceDTO, len(answer.Sources))
	for i, h := range answer.Sources {
		sources[i] = sourceDTO{
			Document: h.Document,
			Metadata: metaDTO{DocID: h.Metadata.DocID, Chunk: h.Metadata.ChunkIndex},
			Distance: h.Distance,
		}
	}

	writeJSON(w, http.StatusOK, queryResponse{
		OK:      true,
		Answer:  answer.Text,
		Sources: sources,
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	for name, check := range s.ports.Checks {
		if check == nil {
			continue
		}
		if err := check.Ping(r.Context()); err != nil {
			logger.Warn("Health check %s failed: %v", name, err)
			writeError(w, http.StatusServiceUnavailable, fmt.Sprintf("%s: unavailable", name))
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// writePipelineError renders a pipeline failure as the {ok:false} envelope.
// Empty-input rejections keep the short reference wording; everything else
// surfaces its message. Pipeline errors ride a 200 like the rest of the
// envelope protocol; transport-level problems use 4xx above.
func writePipelineError(w http.ResponseWriter, err error, emptyMsg string) {
	msg := err.Error()
	if errors.Is(err, domain.ErrEmptyInput) {
		msg = emptyMsg
	}
	logger.Debug("Request failed: %v", err)
	writeJSON(w, http.StatusOK, errorResponse{OK: false, Error: msg})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{OK: false, Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}
