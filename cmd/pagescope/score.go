package main

import (
	"fmt"
	"sync"

	"github.com/spf13/cobra"

	"github.com/nao1215/pagescope/internal/pipeline"
)

// NewScoreCmd creates the score command.
func NewScoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "score [url...]",
		Short: "Score how ready a page is for AI agents",
		Long: `Score rates a page out of 100 across four categories:

- Discoverability (15): Markdown negotiation, discovery link, llms.txt
- Readability (30): content ratio, headings, semantic markup, alt text
- Trustworthiness (30): structured data, metadata, crawl control, freshness
- Actionability (25): declared actions and links, protocol headers

The total maps to a grade from A+ to F, and every failed check comes with a
recommendation ordered by impact. Scores are stored so that changes can be
followed with 'pagescope history'.

Examples:
  # Score a page
  pagescope score https://example.com/

  # Score a page and list it in the public leaderboard of 'pagescope serve'
  pagescope score --public https://example.com/

  # Score several pages and write one JSON document per page
  pagescope score --json -o scores.json https://example.com/ https://example.org/`,
		Args: cobra.ArbitraryArgs,
		RunE: runScoreCmd,
	}

	addFetchFlags(cmd)
	addReportFlags(cmd)
	cmd.Flags().BoolP("public", "p", false,
		"Mark the score as public")

	return cmd
}

// runScoreCmd executes the score command.
func runScoreCmd(cmd *cobra.Command, args []string) (err error) {
	public, err := cmd.Flags().GetBool("public")
	if err != nil {
		return err
	}

	s, err := newSession(cmd, args)
	if err != nil {
		return err
	}
	s.cfg.Public = public
	defer func() {
		if closeErr := s.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	ctx, cancel := signalContext(cmd.Context(), s.logger)
	defer cancel()

	total := len(s.cfg.Targets)
	stderr := cmd.ErrOrStderr()

	var (
		mu       sync.Mutex
		failed   int
		writeErr error
	)
	_, batchErr := s.batch.ScoreBatchWithCallback(ctx, s.cfg.Targets, s.cfg.Public, func(result pipeline.BatchResult, index int) {
		mu.Lock()
		defer mu.Unlock()

		if result.Err != nil {
			failed++
			printFailure(stderr, result.URL, result.Err)
			return
		}
		if total > 1 {
			fmt.Fprintf(stderr, "[%d/%d] Scored %s: %d (%s)\n",
				index+1, total, result.URL, result.Score.TotalScore, result.Score.Grade)
		}
		if writeErr != nil {
			return
		}
		if _, err := s.writer.WriteScore(result.Score); err != nil {
			writeErr = fmt.Errorf("failed to write report: %w", err)
		}
	})

	if writeErr != nil {
		return writeErr
	}
	if batchErr != nil {
		return batchErr
	}
	return failureSummary(failed, total)
}
