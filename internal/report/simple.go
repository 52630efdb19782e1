package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/pagescope/internal/model"
)

const ruleWidth = 70

// SimpleWriter outputs human-readable text reports for terminal display.
type SimpleWriter struct {
	baseWriter

	// showPassed lists passed checks next to the failed ones.
	showPassed bool

	// verbose enables additional detail in the output.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowPassed configures the writer to list passed checks too.
func WithShowPassed(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showPassed = show
	}
}

// WithVerbose enables verbose output with check details and page content.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WriteScore outputs the score in human-readable format.
func (w *SimpleWriter) WriteScore(result *model.ScoreResult) (int, error) {
	var sb strings.Builder

	writeBanner(&sb, "PAGESCOPE SCORE")

	fmt.Fprintf(&sb, "URL:          %s\n", result.URL)
	fmt.Fprintf(&sb, "Entity:       %s\n", orDash(result.Entity))
	fmt.Fprintf(&sb, "Content Type: %s\n", result.ContentType)
	fmt.Fprintf(&sb, "Scored At:    %s\n", result.ScoredAt.Format("2006-01-02 15:04:05 MST"))
	if result.UsedFallback {
		sb.WriteString("Fetch:        fallback transport (page needs rendering)\n")
	}
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "  SCORE: %d / 100    GRADE: %s\n\n", result.TotalScore, result.Grade)

	for _, category := range result.Categories {
		w.writeCategory(&sb, category)
	}

	writeSection(&sb, "RECOMMENDATIONS")
	if len(result.Recommendations) == 0 {
		sb.WriteString("  None. Every check passed.\n")
	}
	for _, r := range result.Recommendations {
		fmt.Fprintf(&sb, "  [%2d] %s\n", r.Impact, r.Message)
	}
	sb.WriteString("\n")

	writeFooter(&sb)
	return w.output.Write([]byte(sb.String()))
}

func (w *SimpleWriter) writeCategory(sb *strings.Builder, category model.ScoreCategory) {
	writeSection(sb, fmt.Sprintf("%s  %d/%d", strings.ToUpper(category.Name), category.Earned, category.MaxPoints))

	shown := 0
	for _, c := range category.Checks {
		if c.Passed && !w.showPassed {
			continue
		}
		shown++
		indicator := "-"
		if c.Passed {
			indicator = "+"
		}
		fmt.Fprintf(sb, "  [%s] %-32s %d/%d\n", indicator, c.Name, c.Earned, c.MaxPoints)
		if w.verbose && c.Details != "" {
			fmt.Fprintf(sb, "      %s\n", c.Details)
		}
	}
	if shown == 0 {
		sb.WriteString("  All checks passed\n")
	}
	sb.WriteString("\n")
}

// WriteAnalysis outputs the analysis in human-readable format.
func (w *SimpleWriter) WriteAnalysis(result *model.AnalysisResult) (int, error) {
	var sb strings.Builder

	writeBanner(&sb, "PAGESCOPE ANALYSIS")

	fmt.Fprintf(&sb, "URL:          %s\n", result.URL)
	if result.FinalURL != "" && result.FinalURL != result.URL {
		fmt.Fprintf(&sb, "Final URL:    %s\n", result.FinalURL)
	}
	fmt.Fprintf(&sb, "Title:        %s\n", orDash(result.Title))
	fmt.Fprintf(&sb, "Entity:       %s\n", orDash(result.Entity))
	fmt.Fprintf(&sb, "Content Type: %s\n", result.ContentType)
	fmt.Fprintf(&sb, "Language:     %s\n", result.Language)
	fmt.Fprintf(&sb, "Fetched Via:  %s\n", result.FetchedVia)
	fmt.Fprintf(&sb, "Tokens:       %d html, %d markdown (%d%% saved)\n",
		result.HTMLTokens, result.MarkdownTokens, result.TokenReduction)
	if result.Summary != "" {
		fmt.Fprintf(&sb, "Summary:      %s\n", result.Summary)
	}
	sb.WriteString("\n")

	if len(result.Links.Internal)+len(result.Links.External) > 0 {
		writeSection(&sb, "LINKS")
		for _, l := range result.Links.Internal {
			fmt.Fprintf(&sb, "  [int] %s\n", l.URL)
		}
		for _, l := range result.Links.External {
			fmt.Fprintf(&sb, "  [ext] %s\n", l.URL)
		}
		sb.WriteString("\n")
	}

	if len(result.Actions) > 0 {
		writeSection(&sb, "ACTIONS")
		for _, a := range result.Actions {
			fmt.Fprintf(&sb, "  [>] %s: %s\n", a.Name, a.Description)
		}
		sb.WriteString("\n")
	}

	if p := result.Protocol; p != nil {
		writeSection(&sb, "PROTOCOL")
		if p.Supported {
			fmt.Fprintf(&sb, "  Supported, version %s, %d header(s)\n", derefOrDash(p.Version), p.HeaderCount())
		} else {
			sb.WriteString("  Not supported\n")
		}
		if p.HasDiscoveryLink {
			fmt.Fprintf(&sb, "  Discovery link: %s\n", derefOrDash(p.DiscoveryHref))
		}
		if p.Error != "" {
			fmt.Fprintf(&sb, "  Error: %s\n", p.Error)
		}
		sb.WriteString("\n")
	}

	if s := result.Site; s != nil {
		writeSection(&sb, "SITE ADOPTION")
		fmt.Fprintf(&sb, "  %d of %d sampled pages (%d%%)\n", s.MatchCount, s.TotalChecked, s.AdoptionPercent)
		if w.verbose {
			for _, p := range s.Pages {
				indicator := "-"
				if p.HasProtocol {
					indicator = "+"
				}
				fmt.Fprintf(&sb, "  [%s] %s\n", indicator, p.URL)
			}
		}
		sb.WriteString("\n")
	}

	if w.verbose && result.Markdown != "" {
		writeSection(&sb, "CONTENT")
		sb.WriteString(result.Markdown)
		if !strings.HasSuffix(result.Markdown, "\n") {
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	writeFooter(&sb)
	return w.output.Write([]byte(sb.String()))
}

func writeBanner(sb *strings.Builder, title string) {
	pad := max((ruleWidth-len(title))/2, 0)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat(" ", pad) + title + "\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n\n")
}

func writeSection(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString(title + "\n")
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\n\n")
}

func writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString("Report generated by pagescope\n")
	sb.WriteString("https://github.com/nao1215/pagescope\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
}
