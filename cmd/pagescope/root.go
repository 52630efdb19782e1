package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for pagescope.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pagescope",
		Short: "Agent readiness analysis for web pages",
		Long: `pagescope analyzes how well a web page can be consumed by AI agents.

It fetches a page (falling back to a reader service or a headless browser
when the page is blocked or rendered by JavaScript), extracts the main
content as Markdown, collects structured signals, probes for Markdown
content negotiation, and scores the page across discoverability,
readability, trustworthiness and actionability.

Results are stored in a local SQLite database so that scores can be
compared over time with 'pagescope history'.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewAnalyzeCmd())
	cmd.AddCommand(NewScoreCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
