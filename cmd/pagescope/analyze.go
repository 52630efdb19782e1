package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewAnalyzeCmd creates the analyze command.
func NewAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [url...]",
		Short: "Convert a page to Markdown and extract its agent-facing signals",
		Long: `Analyze fetches a page and reports what an AI agent would get out of it:

- The main content converted to Markdown, with token estimates for the
  raw HTML and the Markdown
- The content type, entity, summary and language of the page
- Internal and external links, and the forms and buttons agents can act on
- Whether the page supports Markdown content negotiation, and how many
  linked pages of the same site do

Examples:
  # Analyze a single page
  pagescope analyze https://example.com/docs

  # Analyze every URL listed in a file, 8 at a time
  pagescope analyze --list urls.txt --batch 8

  # Write a Markdown report including the converted content
  pagescope analyze -v --markdown -o report.md https://example.com/

  # Never fall back to the reader service
  pagescope analyze --fallback none https://example.com/`,
		Args: cobra.ArbitraryArgs,
		RunE: runAnalyzeCmd,
	}

	addFetchFlags(cmd)
	addReportFlags(cmd)

	return cmd
}

// runAnalyzeCmd executes the analyze command.
func runAnalyzeCmd(cmd *cobra.Command, args []string) (err error) {
	s, err := newSession(cmd, args)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := s.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	ctx, cancel := signalContext(cmd.Context(), s.logger)
	defer cancel()

	results, batchErr := s.batch.AnalyzeBatch(ctx, s.cfg.Targets)

	failed := 0
	for _, result := range results {
		if result.Err != nil {
			failed++
			printFailure(cmd.ErrOrStderr(), result.URL, result.Err)
			continue
		}
		if _, err := s.writer.WriteAnalysis(result.Analysis); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
	}
	if batchErr != nil {
		return batchErr
	}
	return failureSummary(failed, len(results))
}
