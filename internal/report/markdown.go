package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/pagescope/internal/model"
)

// MarkdownWriter outputs results as GitHub-flavored Markdown.
type MarkdownWriter struct {
	baseWriter

	// includeContent appends the extracted Markdown to analysis reports.
	includeContent bool
}

// MarkdownWriterOption configures a MarkdownWriter.
type MarkdownWriterOption func(*MarkdownWriter)

// WithContent appends the extracted page content to analysis reports.
func WithContent(include bool) MarkdownWriterOption {
	return func(w *MarkdownWriter) {
		w.includeContent = include
	}
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer, opts ...MarkdownWriterOption) *MarkdownWriter {
	w := &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WriteScore outputs the score report.
func (w *MarkdownWriter) WriteScore(result *model.ScoreResult) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Agent Readiness Score")
	md.PlainText("")

	total, passed := result.CheckCount()
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"URL", "`" + result.URL + "`"},
			{"Entity", orDash(result.Entity)},
			{"Content Type", string(result.ContentType)},
			{"Score", strconv.Itoa(result.TotalScore) + " / 100"},
			{"Grade", "**" + result.Grade.String() + "**"},
			{"Checks Passed", strconv.Itoa(passed) + " / " + strconv.Itoa(total)},
			{"Scored At", result.ScoredAt.Format("2006-01-02 15:04:05 MST")},
		},
	})
	md.PlainText("")

	w.writeGradeAlert(md, result)

	if result.TotalScore > 0 {
		w.writePieChart(md, result)
	}

	for _, category := range result.Categories {
		w.writeCategory(md, category)
	}

	w.writeRecommendations(md, result.Recommendations)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeGradeAlert writes an alert whose level follows the grade.
func (w *MarkdownWriter) writeGradeAlert(md *markdown.Markdown, result *model.ScoreResult) {
	switch result.Grade {
	case model.GradeAPlus, model.GradeA:
		md.Tip("This page is ready for AI agents.")
	case model.GradeB:
		md.Note("This page is mostly readable by AI agents. A few improvements remain.")
	case model.GradeC:
		md.Importantf("This page scores %d. Agents can read it but miss important signals.", result.TotalScore)
	case model.GradeD:
		md.Warningf("This page scores %d. Agents will struggle to use it.", result.TotalScore)
	default:
		md.Cautionf("This page scores %d. Agents cannot use it reliably.", result.TotalScore)
	}
	md.PlainText("")
}

// writePieChart writes a mermaid pie chart of the points earned per category.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, result *model.ScoreResult) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Points by Category"),
		piechart.WithShowData(true),
	)

	for _, c := range result.Categories {
		if c.Earned > 0 {
			chart.LabelAndIntValue(c.Name, uint64(c.Earned))
		}
	}
	if missing := 100 - result.TotalScore; missing > 0 {
		chart.LabelAndIntValue("missing", uint64(missing))
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeCategory(md *markdown.Markdown, category model.ScoreCategory) {
	md.H2(fmt.Sprintf("%s (%d / %d)", category.Name, category.Earned, category.MaxPoints))
	md.PlainText("")

	rows := make([][]string, len(category.Checks))
	for i, c := range category.Checks {
		status := "✅"
		if !c.Passed {
			status = "❌"
		}
		rows[i] = []string{
			status,
			c.Name,
			strconv.Itoa(c.Earned) + " / " + strconv.Itoa(c.MaxPoints),
			truncateString(orDash(c.Details), 60),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"", "Check", "Points", "Details"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeRecommendations(md *markdown.Markdown, recs []model.Recommendation) {
	md.H2("Recommendations")
	md.PlainText("")

	if len(recs) == 0 {
		md.PlainText("No recommendations. Every check passed.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(recs))
	for i, r := range recs {
		rows[i] = []string{strconv.Itoa(r.Impact), r.Category, r.Message}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Impact", "Category", "Recommendation"},
		Rows:   rows,
	})
	md.PlainText("")
}

// WriteAnalysis outputs the analysis report.
func (w *MarkdownWriter) WriteAnalysis(result *model.AnalysisResult) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Page Analysis")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"URL", "`" + result.URL + "`"},
			{"Final URL", "`" + result.FinalURL + "`"},
			{"Title", orDash(result.Title)},
			{"Entity", orDash(result.Entity)},
			{"Content Type", string(result.ContentType)},
			{"Language", result.Language},
			{"Fetched Via", result.FetchedVia},
			{"HTML Tokens", strconv.Itoa(result.HTMLTokens)},
			{"Markdown Tokens", strconv.Itoa(result.MarkdownTokens)},
			{"Token Reduction", strconv.Itoa(result.TokenReduction) + "%"},
			{"Content Hash", "`" + orDash(result.ContentHash) + "`"},
		},
	})
	md.PlainText("")

	if result.UsedFallbackTransport {
		md.Warningf("The page could only be read through the %s fallback.", result.FetchedVia)
		md.PlainText("")
	}

	if result.Summary != "" {
		md.H2("Summary")
		md.PlainText("")
		md.PlainText(result.Summary)
		md.PlainText("")
	}

	w.writeLinks(md, result.Links)
	w.writeActions(md, result.Actions)
	w.writeProtocol(md, result.Protocol)
	w.writeSite(md, result.Site)

	if w.includeContent && result.Markdown != "" {
		md.Details("Extracted content", result.Markdown)
		md.PlainText("")
	}

	w.writeFooter(md)
	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeLinks(md *markdown.Markdown, links model.Links) {
	md.H2("Links")
	md.PlainText("")

	if len(links.Internal) == 0 && len(links.External) == 0 {
		md.PlainText("No links found in the main content.")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, len(links.Internal)+len(links.External))
	for _, l := range links.Internal {
		rows = append(rows, []string{"internal", "`" + l.URL + "`", truncateString(orDash(l.Context), 60)})
	}
	for _, l := range links.External {
		rows = append(rows, []string{orDash(l.Type), "`" + l.URL + "`", truncateString(orDash(l.Context), 60)})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Kind", "URL", "Context"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeActions(md *markdown.Markdown, actions []model.ActionItem) {
	if len(actions) == 0 {
		return
	}

	md.H2("Actions")
	md.PlainText("")
	items := make([]string, len(actions))
	for i, a := range actions {
		items[i] = "**" + a.Name + "**: " + a.Description
	}
	md.BulletList(items...)
	md.PlainText("")
}

func (w *MarkdownWriter) writeProtocol(md *markdown.Markdown, probe *model.ProtocolProbeResult) {
	if probe == nil {
		return
	}

	md.H2("Protocol")
	md.PlainText("")

	supported := "no"
	if probe.Supported {
		supported = "yes"
	}
	discovery := "no"
	if probe.HasDiscoveryLink {
		discovery = "yes"
	}
	tokens := "-"
	if probe.Tokens != nil {
		tokens = strconv.Itoa(*probe.Tokens)
	}

	md.Table(markdown.TableSet{
		Header: []string{"Field", "Value"},
		Rows: [][]string{
			{"Supported", supported},
			{"Discovery Link", discovery},
			{"Version", derefOrDash(probe.Version)},
			{"Type", derefOrDash(probe.Type)},
			{"Language", derefOrDash(probe.Language)},
			{"Entity", derefOrDash(probe.Entity)},
			{"Tokens", tokens},
			{"Updated", derefOrDash(probe.Updated)},
			{"Canonical", derefOrDash(probe.Canonical)},
			{"Content-Type", derefOrDash(probe.ContentType)},
		},
	})
	md.PlainText("")

	if probe.Error != "" {
		md.Note("Probe degraded: " + probe.Error)
		md.PlainText("")
	}
}

func (w *MarkdownWriter) writeSite(md *markdown.Markdown, site *model.SiteProbeResult) {
	if site == nil {
		return
	}

	md.H2("Site Adoption")
	md.PlainText("")
	md.PlainTextf("%d of %d sampled pages serve the protocol (%d%%).",
		site.MatchCount, site.TotalChecked, site.AdoptionPercent)
	md.PlainText("")

	if len(site.Pages) == 0 {
		return
	}

	rows := make([][]string, len(site.Pages))
	for i, p := range site.Pages {
		status := "❌"
		if p.HasProtocol {
			status = "✅"
		}
		rows[i] = []string{status, "`" + orDash(p.Path) + "`", derefOrDash(p.Version), orDash(p.Error)}
	}
	md.Table(markdown.TableSet{
		Header: []string{"", "Path", "Version", "Error"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [pagescope](https://github.com/nao1215/pagescope)*")
}
