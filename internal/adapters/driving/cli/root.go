// Package cli implements the ragline command line interface.
//
// Commands share a lazily wired pipeline: the first command that needs it
// loads configuration, builds the Ollama gateways and the configured vector
// store, and assembles the retrieval pipeline over them.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arden-labs/ragline/internal/adapters/driven/config/file"
	ollamaembed "github.com/arden-labs/ragline/internal/adapters/driven/embedding/ollama"
	ollamallm "github.com/arden-labs/ragline/internal/adapters/driven/llm/ollama"
	"github.com/arden-labs/ragline/internal/adapters/driven/vectorstore/memory"
	"github.com/arden-labs/ragline/internal/adapters/driven/vectorstore/qdrant"
	"github.com/arden-labs/ragline/internal/adapters/driven/vectorstore/sqlite"
	"github.com/arden-labs/ragline/internal/adapters/driving/api"
	"github.com/arden-labs/ragline/internal/chunker"
	"github.com/arden-labs/ragline/internal/core/ports/driven"
	"github.com/arden-labs/ragline/internal/core/ports/driving"
	"github.com/arden-labs/ragline/internal/core/services"
	"github.com/arden-labs/ragline/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	configPath string
	verbose    bool
)

// Wired services. Tests inject fakes here; production wiring happens in
// ensureServices.
var (
	cfg             file.Config
	pipelineService driving.PipelineService
	healthChecks    map[string]api.Pinger
	closeServices   func()
)

var rootCmd = &cobra.Command{
	Use:   "ragline",
	Short: "Retrieval-augmented generation over Ollama",
	Long: `Ragline ingests documents into a local vector store and answers
questions about them using retrieval-augmented generation. Embeddings and
generation both go through a local Ollama instance.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.ragline/config.toml)")
}

// Execute runs the root command.
func Execute() error {
	defer func() {
		if closeServices != nil {
			closeServices()
		}
	}()
	return rootCmd.Execute()
}

// ensureServices wires the pipeline from configuration on first use.
func ensureServices() error {
	if pipelineService != nil {
		return nil
	}

	path := configPath
	if path == "" {
		if p, err := file.DefaultPath(); err == nil {
			path = p
		}
	}

	var err error
	cfg, err = file.Load(path)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ck, err := chunker.New(
		chunker.WithMaxWords(cfg.Chunk.MaxWords),
		chunker.WithOverlap(cfg.Chunk.Overlap),
	)
	if err != nil {
		return fmt.Errorf("configuring chunker: %w", err)
	}

	embedder := ollamaembed.NewEmbeddingService(ollamaembed.Config{
		BaseURL: cfg.Ollama.BaseURL(),
		Model:   cfg.Embed.Model,
	})
	llm := ollamallm.NewLLMService(ollamallm.Config{
		BaseURL: cfg.Ollama.BaseURL(),
		Model:   cfg.LLM.Model,
	})

	store, err := openStore(embedder.Dimensions())
	if err != nil {
		return err
	}

	logger.Debug("Wired pipeline: embed=%s llm=%s store=%s",
		embedder.ModelName(), llm.ModelName(), cfg.Store.Backend)

	pipelineService = services.NewPipeline(ck, embedder, store, llm)
	healthChecks = map[string]api.Pinger{
		"embedder": embedder,
		"llm":      llm,
		"store":    store,
	}
	closeServices = func() {
		store.Close()    //nolint:errcheck
		llm.Close()      //nolint:errcheck
		embedder.Close() //nolint:errcheck
	}
	return nil
}

// openStore builds the configured vector store backend.
func openStore(dimensions int) (driven.VectorStore, error) {
	switch cfg.Store.Backend {
	case "", "sqlite":
		store, err := sqlite.NewStore(cfg.Store.Path, cfg.Store.Collection)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		return store, nil
	case "qdrant":
		return qdrant.NewStore(qdrant.Config{
			URL:        cfg.Qdrant.URL,
			APIKey:     cfg.Qdrant.APIKey,
			Collection: cfg.Store.Collection,
			Dimensions: dimensions,
		}), nil
	case "memory":
		return memory.NewStore(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}
