package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/arden-labs/ragline/internal/adapters/driving/api"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Long: `Serves the ingest and query pipeline over HTTP.
Endpoints: POST /ingest, POST /ingest_file, POST /query, GET /healthz.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if err := ensureServices(); err != nil {
		return err
	}

	addr := serveAddr
	if addr == "" {
		addr = cfg.Server.Addr
	}

	server, err := api.NewServer(&api.Ports{
		Pipeline: pipelineService,
		Checks:   healthChecks,
	})
	if err != nil {
		return fmt.Errorf("building server: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Fail fast on unreachable dependencies rather than at first request.
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	for name, check := range healthChecks {
		if err := check.Ping(pingCtx); err != nil {
			return fmt.Errorf("%s unavailable: %w", name, err)
		}
	}

	cmd.Printf("Listening on %s\n", addr)
	return server.Run(ctx, addr)
}
