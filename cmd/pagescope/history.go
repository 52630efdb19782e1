package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nao1215/pagescope/internal/config"
	"github.com/nao1215/pagescope/internal/database"
	"github.com/nao1215/pagescope/internal/model"
)

// NewHistoryCmd creates the history command.
// This command lists stored scores from the database.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [domain-or-url]",
		Short: "Show stored scores",
		Long: `History lists the scores stored by 'pagescope score'.

With a domain (or any URL of that domain) it lists that domain's scores,
newest first, with the change from the previous score. Without one it
lists the scored domains.

Examples:
  # List scored domains
  pagescope history

  # Show score history of a domain
  pagescope history example.com

  # Show the latest 5 public scores across all domains
  pagescope history --public --limit 5

  # Output the history in JSON format
  pagescope history --json https://example.com/docs`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", database.DefaultListLimit,
		"Maximum number of scores to show")
	cmd.Flags().BoolP("public", "p", false,
		"List public scores of every domain")
	cmd.Flags().BoolP("json", "j", false,
		"Output in JSON format")
	cmd.Flags().String("db-dir", "",
		"Database directory (default: XDG data directory)")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	public, err := cmd.Flags().GetBool("public")
	if err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}

	// Validate arguments before opening the database.
	var domain string
	if len(args) == 1 {
		domain = normalizeDomain(args[0])
		if domain == "" {
			return fmt.Errorf("invalid domain: %q", args[0])
		}
		if public {
			return errors.New("--public lists every domain and cannot be combined with a domain")
		}
	}
	if limit <= 0 {
		return errors.New("limit must be positive")
	}

	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}
	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	out := cmd.OutOrStdout()

	switch {
	case public:
		scores, err := db.ListPublicScores(ctx, limit)
		if err != nil {
			return fmt.Errorf("failed to list public scores: %w", err)
		}
		if jsonOutput {
			return writeJSON(out, scores)
		}
		printPublicScores(out, scores)
	case domain != "":
		scores, err := db.ScoreHistory(ctx, domain, limit)
		if err != nil {
			return fmt.Errorf("failed to get score history: %w", err)
		}
		if jsonOutput {
			return writeJSON(out, scores)
		}
		printScoreHistory(out, domain, scores)
	default:
		domains, err := db.ListScoredDomains(ctx)
		if err != nil {
			return fmt.Errorf("failed to list domains: %w", err)
		}
		if jsonOutput {
			return writeJSON(out, domains)
		}
		printScoredDomains(out, domains)
	}
	return nil
}

// normalizeDomain accepts a bare host or a URL and returns the stored
// domain form.
func normalizeDomain(arg string) string {
	arg = strings.TrimSpace(arg)
	if !strings.Contains(arg, "://") {
		arg = "https://" + arg
	}
	return model.DomainOf(arg)
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func printScoredDomains(w io.Writer, domains []string) {
	if len(domains) == 0 {
		fmt.Fprintln(w, "No scored domains found in the database.")
		fmt.Fprintln(w, "\nUse 'pagescope score <url>' to score a page.")
		return
	}

	fmt.Fprintf(w, "Scored domains (%d):\n\n", len(domains))
	for _, domain := range domains {
		fmt.Fprintf(w, "  • %s\n", domain)
	}
	fmt.Fprintln(w, "\nUse 'pagescope history <domain>' to see the scores of a domain.")
}

func printScoreHistory(w io.Writer, domain string, scores []database.ScoreSummary) {
	if len(scores) == 0 {
		fmt.Fprintf(w, "No score history found for %s\n", domain)
		fmt.Fprintln(w, "\nUse 'pagescope score' to score a page of this domain.")
		return
	}

	fmt.Fprintf(w, "Score history for %s (%d scores):\n\n", domain, len(scores))
	fmt.Fprintf(w, "  %-20s  %-5s  %-5s  %-6s  %s\n", "Date", "Score", "Grade", "Change", "URL")
	fmt.Fprintln(w, "  "+strings.Repeat("-", 72))

	for i, s := range scores {
		change := "-"
		// Scores are newest first, so the previous score is the next one.
		if i+1 < len(scores) {
			change = formatDelta(s.TotalScore - scores[i+1].TotalScore)
		}
		fmt.Fprintf(w, "  %-20s  %5d  %-5s  %-6s  %s\n",
			s.ScoredAt.Format("2006-01-02 15:04:05"),
			s.TotalScore,
			s.Grade,
			change,
			s.URL,
		)
	}
}

func printPublicScores(w io.Writer, scores []database.ScoreSummary) {
	if len(scores) == 0 {
		fmt.Fprintln(w, "No public scores found in the database.")
		fmt.Fprintln(w, "\nUse 'pagescope score --public <url>' to publish a score.")
		return
	}

	fmt.Fprintf(w, "Public scores (%d):\n\n", len(scores))
	fmt.Fprintf(w, "  %-20s  %-5s  %-5s  %s\n", "Date", "Score", "Grade", "URL")
	fmt.Fprintln(w, "  "+strings.Repeat("-", 64))
	for _, s := range scores {
		fmt.Fprintf(w, "  %-20s  %5d  %-5s  %s\n",
			s.ScoredAt.Format("2006-01-02 15:04:05"),
			s.TotalScore,
			s.Grade,
			s.URL,
		)
	}
}

// formatDelta formats a score change with an explicit sign.
func formatDelta(delta int) string {
	if delta > 0 {
		return fmt.Sprintf("+%d", delta)
	}
	return fmt.Sprintf("%d", delta)
}
