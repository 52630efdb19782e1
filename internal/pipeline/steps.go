package pipeline

import (
	"context"
	"encoding/hex"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/crypto/sha3"
	"golang.org/x/sync/errgroup"

	"github.com/nao1215/pagescope/internal/errs"
	"github.com/nao1215/pagescope/internal/fetcher"
	"github.com/nao1215/pagescope/internal/htmldoc"
	"github.com/nao1215/pagescope/internal/markdown"
	"github.com/nao1215/pagescope/internal/metrics"
	"github.com/nao1215/pagescope/internal/model"
	"github.com/nao1215/pagescope/internal/signals"
	"github.com/nao1215/pagescope/internal/tokens"
)

// Step names, recorded in model.PageReport.PerformedSteps.
const (
	StepFetch   = "fetch"
	StepExtract = "extract"
	StepProbe   = "probe"
	StepScore   = "score"
)

// PageFetcher retrieves a page. *fetcher.Fetcher implements it.
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string) fetcher.Result
}

// ProtocolProber negotiates the Markdown representation of a page.
// *protocol.Prober implements it.
type ProtocolProber interface {
	Probe(ctx context.Context, pageURL string, doc *goquery.Document) *model.ProtocolProbeResult
}

// SiteProber measures protocol adoption across a site.
// *siteprobe.Prober implements it.
type SiteProber interface {
	ProbeSite(ctx context.Context, doc *goquery.Document, pageURL string) *model.SiteProbeResult
}

// Scorer turns a page and its probe result into a score.
// *scoring.Engine implements it.
type Scorer interface {
	Score(ctx context.Context, page *model.PageData, probe *model.ProtocolProbeResult) *model.ScoreResult
}

// FetchStep fetches the page and parses it.
type FetchStep struct {
	fetcher PageFetcher
	metrics *metrics.Metrics
}

// NewFetchStep creates a fetch step.
func NewFetchStep(f PageFetcher, m *metrics.Metrics) *FetchStep {
	return &FetchStep{fetcher: f, metrics: m}
}

// Name returns the step name.
func (s *FetchStep) Name() string {
	return StepFetch
}

// Do fetches report.URL and stores the parsed page in report.Page.
func (s *FetchStep) Do(ctx context.Context, report *model.PageReport) error {
	res := s.fetcher.Fetch(ctx, report.URL)
	s.metrics.ObserveFetch(res.Kind.String())

	if res.Kind == fetcher.KindFailed {
		if res.Err == nil {
			return errs.New(errs.Unreachable, "failed to fetch page", nil)
		}
		return res.Err
	}

	doc, err := htmldoc.Parse(res.HTML)
	if err != nil {
		return errs.New(errs.ParsingFailed, "failed to parse page", err)
	}

	report.Page = &model.PageData{
		URL:                   report.URL,
		FinalURL:              res.FinalURL,
		RawHTML:               res.HTML,
		Document:              doc,
		HTMLTokens:            tokens.Estimate(res.HTML),
		UsedFallbackTransport: res.UsedFallback(),
		FetchedVia:            res.Via,
	}
	return nil
}

// ExtractStep renders the Markdown and extracts the page signals.
type ExtractStep struct{}

// NewExtractStep creates an extraction step.
func NewExtractStep() *ExtractStep {
	return &ExtractStep{}
}

// Name returns the step name.
func (s *ExtractStep) Name() string {
	return StepExtract
}

// Do fills the Markdown, token, hash and signal fields of report.Page.
func (s *ExtractStep) Do(_ context.Context, report *model.PageReport) error {
	page := report.Page
	if page == nil || page.Document == nil {
		return errs.New(errs.ParsingFailed, "no page to extract", nil)
	}

	page.Markdown = markdown.FromDocument(page.Document)
	page.MarkdownTokens = tokens.Estimate(page.Markdown)
	page.ContentHash = ContentHash(page.Markdown)
	signals.Extract(page)
	return nil
}

// ContentHash returns the hex SHA3-256 digest of content.
func ContentHash(content string) string {
	sum := sha3.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// ProbeStep runs the protocol probe and the site-wide probe concurrently.
// Probe failures are recorded in the results and never fail the step.
type ProbeStep struct {
	prober ProtocolProber
	site   SiteProber
}

// NewProbeStep creates a probe step. A nil site prober skips the
// site-wide probe.
func NewProbeStep(prober ProtocolProber, site SiteProber) *ProbeStep {
	return &ProbeStep{prober: prober, site: site}
}

// Name returns the step name.
func (s *ProbeStep) Name() string {
	return StepProbe
}

// Do stores the probe results in report.Protocol and report.Site.
func (s *ProbeStep) Do(ctx context.Context, report *model.PageReport) error {
	page := report.Page
	if page == nil {
		return errs.New(errs.ProbeFailed, "no page to probe", nil)
	}

	var (
		protocolResult *model.ProtocolProbeResult
		siteResult     *model.SiteProbeResult
		g              errgroup.Group
	)
	g.Go(func() error {
		protocolResult = s.prober.Probe(ctx, page.FinalURL, page.Document)
		return nil
	})
	if s.site != nil {
		g.Go(func() error {
			siteResult = s.site.ProbeSite(ctx, page.Document, page.FinalURL)
			return nil
		})
	}
	_ = g.Wait()

	if protocolResult == nil {
		protocolResult = &model.ProtocolProbeResult{}
	}
	report.Protocol = protocolResult
	report.Site = siteResult
	return nil
}

// ScoreStep scores the page.
type ScoreStep struct {
	scorer Scorer
}

// NewScoreStep creates a scoring step.
func NewScoreStep(scorer Scorer) *ScoreStep {
	return &ScoreStep{scorer: scorer}
}

// Name returns the step name.
func (s *ScoreStep) Name() string {
	return StepScore
}

// Do stores the score in report.Score.
func (s *ScoreStep) Do(ctx context.Context, report *model.PageReport) error {
	if report.Page == nil {
		return errs.New(errs.ParsingFailed, "no page to score", nil)
	}
	report.Score = s.scorer.Score(ctx, report.Page, report.Protocol)
	report.Score.IsPublic = report.IsPublic
	return nil
}
