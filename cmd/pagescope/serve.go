package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/nao1215/pagescope/internal/config"
	"github.com/nao1215/pagescope/internal/log"
	"github.com/nao1215/pagescope/internal/metrics"
	"github.com/nao1215/pagescope/internal/pipeline"
	"github.com/nao1215/pagescope/internal/server"
)

// shutdownTimeout bounds the graceful shutdown of serve.
const shutdownTimeout = 10 * time.Second

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve analysis and scoring over HTTP",
		Long: `Serve starts an HTTP server exposing the pipeline:

  POST /api/analyze   {"url": "..."}
  POST /api/score     {"url": "...", "isPublic": true}
  GET  /api/scores    public scores, newest first (?limit=N)
  GET  /api/health    liveness
  GET  /metrics       Prometheus metrics

Logs are written to stderr as JSON.

Examples:
  # Listen on the default address
  pagescope serve

  # Listen on localhost only, without storing results
  pagescope serve --listen 127.0.0.1:9000 --no-save`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}

	addFetchFlags(cmd)
	cmd.Flags().StringP("listen", "a", config.DefaultListenAddress,
		"Listen address")
	cmd.Flags().Duration("request-timeout", server.DefaultRequestTimeout,
		"Maximum time spent handling one request")

	return cmd
}

// runServeCmd executes the serve command.
func runServeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.ListenAddress, err = cmd.Flags().GetString("listen"); err != nil {
		return err
	}
	requestTimeout, err := cmd.Flags().GetDuration("request-timeout")
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if requestTimeout <= 0 {
		return errors.New("request timeout must be positive")
	}

	logger := log.NewSecureJSONLogger(cmd.ErrOrStderr(), cfg.Verbose)

	db, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	serverOpts := []server.Option{
		server.WithGatherer(registry),
		server.WithRequestTimeout(requestTimeout),
		server.WithLogger(logger),
	}
	var analyzerOpts []pipeline.AnalyzerOption
	if db != nil {
		analyzerOpts = append(analyzerOpts, pipeline.WithStore(db))
		serverOpts = append(serverOpts, server.WithScoreLister(db))
	}

	analyzer := pipeline.NewAnalyzerFromConfig(cfg, m, logger, analyzerOpts...)
	srv := server.New(analyzer, serverOpts...)

	ctx, cancel := signalContext(cmd.Context(), logger)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(cfg.ListenAddress)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	select {
	case err := <-errCh:
		return err
	case <-shutdownCtx.Done():
		return shutdownCtx.Err()
	}
}
