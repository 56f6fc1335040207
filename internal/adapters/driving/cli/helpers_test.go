package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/arden-labs/ragline/internal/core/domain"
	"github.com/arden-labs/ragline/internal/core/ports/driving"
)

// stubPipeline implements driving.PipelineService for command tests.
type stubPipeline struct {
	receipt   domain.IngestReceipt
	ingestErr error
	answer    domain.Answer
	queryErr  error

	gotDocID    string
	gotText     string
	gotQuestion string
	gotK        int
}

func (s *stubPipeline) Ingest(_ context.Context, docID, text string) (domain.IngestReceipt, error) {
	s.gotDocID, s.gotText = docID, text
	if s.ingestErr != nil {
		return domain.IngestReceipt{}, s.ingestErr
	}
	if s.receipt.DocID == "" {
		s.receipt.DocID = docID
	}
	return s.receipt, nil
}

func (s *stubPipeline) Query(_ context.Context, question string, k int) (domain.Answer, error) {
	s.gotQuestion, s.gotK = question, k
	if s.queryErr != nil {
		return domain.Answer{}, s.queryErr
	}
	return s.answer, nil
}

// withPipeline installs a stub pipeline for the duration of the test so
// ensureServices does not wire real gateways.
func withPipeline(t *testing.T, p driving.PipelineService) {
	t.Helper()
	orig := pipelineService
	pipelineService = p
	t.Cleanup(func() { pipelineService = orig })
}

// execute runs the root command with args, capturing combined output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		ingestDocID = ""
		ingestWatch = false
		queryK = 0
		queryJSON = false
		serveAddr = ""
	})

	err := rootCmd.Execute()
	return buf.String(), err
}
