package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/nao1215/pagescope/internal/config"
	"github.com/nao1215/pagescope/internal/database"
	"github.com/nao1215/pagescope/internal/metrics"
	"github.com/nao1215/pagescope/internal/pipeline"
	"github.com/nao1215/pagescope/internal/report"
)

// session holds what a one-shot analyze or score run needs.
type session struct {
	cfg         *config.Config
	logger      *slog.Logger
	db          *database.ResultDB
	batch       *pipeline.BatchProcessor
	writer      report.Writer
	closeOutput func() error
}

// newSession builds the config from flags, validates it, and wires the
// database, the analyzer and the report writer.
func newSession(cmd *cobra.Command, args []string) (*session, error) {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return nil, err
	}
	if err := applyReportFlags(cmd, cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.ValidateTargets(); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}

	logger := newLogger(cmd, cfg.Verbose)
	logger.Info("starting run",
		"targets", len(cfg.Targets),
		"batchSize", cfg.BatchSize,
		"fallback", cfg.Fallback,
		"saveToDB", cfg.SaveToDB,
	)

	db, err := openStore(cfg, logger)
	if err != nil {
		return nil, err
	}

	output, closeOutput, err := openOutput(cfg, cmd.OutOrStdout())
	if err != nil {
		if db != nil {
			_ = db.Close() //nolint:errcheck // Best effort cleanup
		}
		return nil, err
	}

	var opts []pipeline.AnalyzerOption
	if db != nil {
		opts = append(opts, pipeline.WithStore(db))
	}
	analyzer := pipeline.NewAnalyzerFromConfig(cfg, metrics.New(nil), logger, opts...)

	return &session{
		cfg:    cfg,
		logger: logger,
		db:     db,
		batch: pipeline.NewBatchProcessor(analyzer,
			pipeline.WithConcurrency(cfg.BatchSize),
			pipeline.WithBatchLogger(logger),
		),
		writer:      newReportWriter(cfg, output),
		closeOutput: closeOutput,
	}, nil
}

// Close closes the report file and the database.
func (s *session) Close() error {
	var errList []error
	if err := s.closeOutput(); err != nil {
		errList = append(errList, fmt.Errorf("failed to close output: %w", err))
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			errList = append(errList, fmt.Errorf("failed to close database: %w", err))
		}
	}
	return errors.Join(errList...)
}

// failureSummary returns an error when any target failed so that the exit
// status reflects it.
func failureSummary(failed, total int) error {
	if failed == 0 {
		return nil
	}
	return fmt.Errorf("%d of %d targets failed", failed, total)
}

// printFailure reports one failed target on w.
func printFailure(w io.Writer, rawURL string, err error) {
	fmt.Fprintf(w, "Error for %s: %v\n", rawURL, err)
}
