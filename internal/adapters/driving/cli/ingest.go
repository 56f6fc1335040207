package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/arden-labs/ragline/internal/logger"
)

var (
	ingestDocID string
	ingestWatch bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file...]",
	Short: "Chunk, embed and store documents",
	Long: `Ingests text files into the vector store. Each file is split into
overlapping word chunks, embedded, and stored for retrieval.

Use "-" to read a single document from stdin. With --watch, the argument
is a directory: files created in it are ingested as they appear.`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestDocID, "doc-id", "", "document id (defaults to the file name)")
	ingestCmd.Flags().BoolVar(&ingestWatch, "watch", false, "watch a directory and ingest new files")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if err := ensureServices(); err != nil {
		return err
	}

	ctx := cmd.Context()

	if ingestWatch {
		if len(args) != 1 {
			return errors.New("--watch takes exactly one directory")
		}
		return watchAndIngest(ctx, cmd, args[0])
	}

	if len(args) == 0 {
		return errors.New("no input files (use - for stdin)")
	}
	if ingestDocID != "" && len(args) > 1 {
		return errors.New("--doc-id requires a single input")
	}

	for _, path := range args {
		if path == "-" {
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("reading stdin: %w", err)
			}
			if err := ingestOne(ctx, cmd, ingestDocID, string(data)); err != nil {
				return err
			}
			continue
		}

		docID := ingestDocID
		if docID == "" {
			docID = filepath.Base(path)
		}
		if err := ingestFile(ctx, cmd, docID, path); err != nil {
			return err
		}
	}
	return nil
}

func ingestFile(ctx context.Context, cmd *cobra.Command, docID, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	// Non-text bytes would corrupt chunking; keep only valid UTF-8.
	return ingestOne(ctx, cmd, docID, strings.ToValidUTF8(string(data), ""))
}

func ingestOne(ctx context.Context, cmd *cobra.Command, docID, text string) error {
	receipt, err := pipelineService.Ingest(ctx, docID, text)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}
	cmd.Printf("Ingested %s (%d chunks)\n", receipt.DocID, receipt.Chunks)
	return nil
}

// watchAndIngest ingests every file created under dir until the context is
// cancelled. Hidden files and subdirectories are skipped.
func watchAndIngest(ctx context.Context, cmd *cobra.Command, dir string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	cmd.Printf("Watching %s\n", dir)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) {
				continue
			}
			name := filepath.Base(event.Name)
			if strings.HasPrefix(name, ".") {
				continue
			}
			if info, err := os.Stat(event.Name); err != nil || info.IsDir() {
				continue
			}
			if err := ingestFile(ctx, cmd, name, event.Name); err != nil {
				// Keep watching; a bad file should not stop the loop.
				logger.Error("%v", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("watch: %v", err)
		}
	}
}
