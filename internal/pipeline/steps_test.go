package pipeline

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/pagescope/internal/errs"
	"github.com/nao1215/pagescope/internal/fetcher"
	"github.com/nao1215/pagescope/internal/htmldoc"
	"github.com/nao1215/pagescope/internal/metrics"
	"github.com/nao1215/pagescope/internal/model"
)

const samplePage = `<!DOCTYPE html>
<html lang="en">
<head>
<title>Acme Widgets | Acme</title>
<meta name="description" content="Acme Widgets are sturdy widgets for every workshop and every budget.">
</head>
<body>
<nav><a href="/">Home</a> <a href="/docs">Docs</a> <a href="/about">About</a></nav>
<main>
<h1>Acme Widgets</h1>
<p>Acme Widgets are sturdy widgets built for every workshop, every budget and every season of the year.</p>
<h2>Features</h2>
<p>Each widget ships with a lifetime warranty and a printed manual that explains every part in detail.</p>
<h2>Pricing</h2>
<p>Widgets start at ten dollars. <a href="/docs/pricing">Read the full pricing guide</a>.</p>
</main>
<footer>Copyright Acme</footer>
</body>
</html>`

type fakeFetcher struct {
	result fetcher.Result
}

func (f fakeFetcher) Fetch(context.Context, string) fetcher.Result {
	return f.result
}

type fakeProber struct {
	result *model.ProtocolProbeResult
	wait   *sync.WaitGroup
}

func (f fakeProber) Probe(context.Context, string, *goquery.Document) *model.ProtocolProbeResult {
	if f.wait != nil {
		f.wait.Done()
		f.wait.Wait()
	}
	return f.result
}

type fakeSite struct {
	result *model.SiteProbeResult
	wait   *sync.WaitGroup
}

func (f fakeSite) ProbeSite(context.Context, *goquery.Document, string) *model.SiteProbeResult {
	if f.wait != nil {
		f.wait.Done()
		f.wait.Wait()
	}
	return f.result
}

type fakeScorer struct{}

func (fakeScorer) Score(_ context.Context, page *model.PageData, probe *model.ProtocolProbeResult) *model.ScoreResult {
	total := 10
	if probe != nil && probe.Supported {
		total = 50
	}
	return &model.ScoreResult{URL: page.URL, TotalScore: total, Grade: model.GradeFor(total)}
}

func parsedReport(t *testing.T) *model.PageReport {
	t.Helper()

	doc, err := htmldoc.Parse(samplePage)
	if err != nil {
		t.Fatalf("failed to parse sample page: %v", err)
	}
	report := model.NewPageReport("https://acme.example/")
	report.Page = &model.PageData{
		URL:      report.URL,
		FinalURL: report.URL,
		RawHTML:  samplePage,
		Document: doc,
	}
	return report
}

// TestFetchStep tests fetch result handling.
func TestFetchStep(t *testing.T) {
	t.Parallel()

	t.Run("direct page", func(t *testing.T) {
		t.Parallel()

		step := NewFetchStep(fakeFetcher{result: fetcher.Result{
			Kind:     fetcher.KindDirect,
			HTML:     samplePage,
			FinalURL: "https://acme.example/home",
			Via:      model.FetchedViaDirect,
		}}, metrics.New(nil))

		report := model.NewPageReport("https://acme.example/")
		if err := step.Do(context.Background(), report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		page := report.Page
		if page == nil || page.Document == nil {
			t.Fatal("expected parsed page")
		}
		if page.URL != "https://acme.example/" || page.FinalURL != "https://acme.example/home" {
			t.Errorf("unexpected urls %q %q", page.URL, page.FinalURL)
		}
		if page.UsedFallbackTransport || page.FetchedVia != model.FetchedViaDirect {
			t.Errorf("unexpected transport %+v", page)
		}
		if page.HTMLTokens == 0 {
			t.Error("expected html token estimate")
		}
	})

	t.Run("fallback page", func(t *testing.T) {
		t.Parallel()

		step := NewFetchStep(fakeFetcher{result: fetcher.Result{
			Kind:     fetcher.KindFallback,
			HTML:     samplePage,
			FinalURL: "https://acme.example/",
			Via:      model.FetchedViaReader,
		}}, metrics.New(nil))

		report := model.NewPageReport("https://acme.example/")
		if err := step.Do(context.Background(), report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !report.Page.UsedFallbackTransport || report.Page.FetchedVia != model.FetchedViaReader {
			t.Errorf("expected fallback page, got %+v", report.Page)
		}
	})

	t.Run("failed fetch returns its error", func(t *testing.T) {
		t.Parallel()

		fetchErr := errs.New(errs.Timeout, "request timed out", nil)
		step := NewFetchStep(fakeFetcher{result: fetcher.Result{Kind: fetcher.KindFailed, Err: fetchErr}}, metrics.New(nil))

		report := model.NewPageReport("https://acme.example/")
		err := step.Do(context.Background(), report)
		if !errs.Is(err, errs.Timeout) {
			t.Errorf("expected timeout error, got %v", err)
		}
		if report.Page != nil {
			t.Error("expected no page")
		}
	})

	t.Run("failed fetch without error is unreachable", func(t *testing.T) {
		t.Parallel()

		step := NewFetchStep(fakeFetcher{result: fetcher.Result{Kind: fetcher.KindFailed}}, metrics.New(nil))
		err := step.Do(context.Background(), model.NewPageReport("https://acme.example/"))
		if !errs.Is(err, errs.Unreachable) {
			t.Errorf("expected unreachable error, got %v", err)
		}
	})
}

// TestExtractStep tests Markdown and signal extraction.
func TestExtractStep(t *testing.T) {
	t.Parallel()

	t.Run("fills page", func(t *testing.T) {
		t.Parallel()

		report := parsedReport(t)
		report.Page.HTMLTokens = 1000
		if err := NewExtractStep().Do(context.Background(), report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		page := report.Page
		if !strings.Contains(page.Markdown, "# Acme Widgets") {
			t.Errorf("expected heading in markdown, got %q", page.Markdown)
		}
		if strings.Contains(page.Markdown, "Copyright Acme") {
			t.Error("expected footer to be removed")
		}
		if page.MarkdownTokens == 0 || page.MarkdownTokens > page.HTMLTokens {
			t.Errorf("unexpected markdown tokens %d", page.MarkdownTokens)
		}
		if page.ContentHash != ContentHash(page.Markdown) {
			t.Error("expected content hash of the markdown")
		}
		if page.Title != "Acme Widgets | Acme" || page.Language != "en" {
			t.Errorf("unexpected title %q or language %q", page.Title, page.Language)
		}
		if page.Entity != "Acme Widgets" {
			t.Errorf("expected entity from h1, got %q", page.Entity)
		}
	})

	t.Run("missing page", func(t *testing.T) {
		t.Parallel()

		err := NewExtractStep().Do(context.Background(), model.NewPageReport("https://acme.example/"))
		if !errs.Is(err, errs.ParsingFailed) {
			t.Errorf("expected parsing error, got %v", err)
		}
	})
}

// TestContentHash tests the content hash.
func TestContentHash(t *testing.T) {
	t.Parallel()

	// SHA3-256 of the empty string.
	const empty = "a7ffc6f8bf1ed76651c14756a061d662f580ff4de43b49fa82d80a4b80f8434a"
	if got := ContentHash(""); got != empty {
		t.Errorf("ContentHash(\"\") = %s", got)
	}
	if ContentHash("a") == ContentHash("b") {
		t.Error("expected different hashes")
	}
	if len(ContentHash("# Title")) != 64 {
		t.Error("expected 64 hex characters")
	}
}

// TestProbeStep tests concurrent probing.
func TestProbeStep(t *testing.T) {
	t.Parallel()

	t.Run("runs both probes concurrently", func(t *testing.T) {
		t.Parallel()

		// Each probe waits for the other, so a sequential run would block.
		var barrier sync.WaitGroup
		barrier.Add(2)
		step := NewProbeStep(
			fakeProber{result: &model.ProtocolProbeResult{Supported: true}, wait: &barrier},
			fakeSite{result: model.NewSiteProbeResult(nil), wait: &barrier},
		)

		report := parsedReport(t)
		done := make(chan error, 1)
		go func() { done <- step.Do(context.Background(), report) }()

		select {
		case err := <-done:
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("probes did not run concurrently")
		}
		if !report.Protocol.Supported || report.Site == nil {
			t.Errorf("unexpected probe results %+v %+v", report.Protocol, report.Site)
		}
	})

	t.Run("without site prober", func(t *testing.T) {
		t.Parallel()

		report := parsedReport(t)
		step := NewProbeStep(fakeProber{}, nil)
		if err := step.Do(context.Background(), report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.Protocol == nil {
			t.Error("expected empty protocol result instead of nil")
		}
		if report.Site != nil {
			t.Error("expected no site result")
		}
	})
}

// TestScoreStep tests that the caller's visibility is echoed.
func TestScoreStep(t *testing.T) {
	t.Parallel()

	report := parsedReport(t)
	report.IsPublic = true
	report.Protocol = &model.ProtocolProbeResult{Supported: true}

	if err := NewScoreStep(fakeScorer{}).Do(context.Background(), report); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Score == nil || report.Score.TotalScore != 50 || !report.Score.IsPublic {
		t.Errorf("unexpected score %+v", report.Score)
	}

	if err := NewScoreStep(fakeScorer{}).Do(context.Background(), model.NewPageReport("https://acme.example/")); err == nil {
		t.Error("expected error without page")
	}
}
