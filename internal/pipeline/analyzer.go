package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/nao1215/pagescope/internal/errs"
	"github.com/nao1215/pagescope/internal/metrics"
	"github.com/nao1215/pagescope/internal/model"
)

// Operation names used for metrics and logs.
const (
	OperationAnalyze = "analyze"
	OperationScore   = "score"
)

// Store persists finished results. *database.ResultDB implements it.
type Store interface {
	SaveAnalysis(ctx context.Context, result *model.AnalysisResult) error
	SaveScore(ctx context.Context, result *model.ScoreResult) error
}

// Analyzer is the entry point of the core: Analyze and Score each run a
// self-contained pipeline for one URL. It is safe for concurrent use.
type Analyzer struct {
	fetcher PageFetcher
	prober  ProtocolProber
	site    SiteProber
	scorer  Scorer
	store   Store
	metrics *metrics.Metrics
	logger  *slog.Logger
	newID   func() string
}

// AnalyzerOption configures an Analyzer.
type AnalyzerOption func(*Analyzer)

// WithStore hands every result to store. Store failures are logged and
// counted, never returned.
func WithStore(store Store) AnalyzerOption {
	return func(a *Analyzer) {
		a.store = store
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) AnalyzerOption {
	return func(a *Analyzer) {
		a.metrics = m
	}
}

// WithAnalyzerLogger sets the logger.
func WithAnalyzerLogger(logger *slog.Logger) AnalyzerOption {
	return func(a *Analyzer) {
		a.logger = logger
	}
}

// WithIDGenerator replaces the random UUID generator of result IDs.
func WithIDGenerator(fn func() string) AnalyzerOption {
	return func(a *Analyzer) {
		a.newID = fn
	}
}

// NewAnalyzer creates an Analyzer from its components. A nil site prober
// leaves AnalysisResult.Site empty.
func NewAnalyzer(f PageFetcher, prober ProtocolProber, site SiteProber, scorer Scorer, opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{
		fetcher: f,
		prober:  prober,
		site:    site,
		scorer:  scorer,
		logger:  slog.Default(),
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.metrics == nil {
		a.metrics = metrics.New(nil)
	}
	return a
}

// Analyze fetches rawURL, extracts its representation and probes the
// origin. Input and fetch failures are returned as *errs.AppError; probe
// failures are recorded in the result.
func (a *Analyzer) Analyze(ctx context.Context, rawURL string) (*model.AnalysisResult, error) {
	start := time.Now()
	defer func() {
		a.metrics.ObserveDuration(OperationAnalyze, time.Since(start).Seconds())
	}()

	report := model.NewPageReport(rawURL)
	p := a.newPipeline(
		NewFetchStep(a.fetcher, a.metrics),
		NewExtractStep(),
		NewProbeStep(a.prober, a.site),
	)
	if err := p.Execute(ctx, report); err != nil {
		return nil, toAppError(err)
	}

	result := model.NewAnalysisResult(a.newID(), report.Page, report.Protocol, report.Site)
	a.persist(ctx, "save_analysis", func(ctx context.Context) error {
		return a.store.SaveAnalysis(ctx, result)
	})

	a.logger.Info("page analyzed",
		"url", result.URL,
		"content_type", string(result.ContentType),
		"html_tokens", result.HTMLTokens,
		"markdown_tokens", result.MarkdownTokens,
		"fetched_via", result.FetchedVia)
	return result, nil
}

// Score fetches rawURL and scores it. isPublic is echoed on the result
// and decides whether the store lists it publicly.
func (a *Analyzer) Score(ctx context.Context, rawURL string, isPublic bool) (*model.ScoreResult, error) {
	start := time.Now()
	defer func() {
		a.metrics.ObserveDuration(OperationScore, time.Since(start).Seconds())
	}()

	report := model.NewPageReport(rawURL)
	report.IsPublic = isPublic
	p := a.newPipeline(
		NewFetchStep(a.fetcher, a.metrics),
		NewExtractStep(),
		NewProbeStep(a.prober, nil),
		NewScoreStep(a.scorer),
	)
	if err := p.Execute(ctx, report); err != nil {
		return nil, toAppError(err)
	}

	result := report.Score
	result.ID = a.newID()
	a.metrics.ObserveScore(result.TotalScore, result.Grade.String())
	a.persist(ctx, "save_score", func(ctx context.Context) error {
		return a.store.SaveScore(ctx, result)
	})

	a.logger.Info("page scored",
		"url", result.URL,
		"total", result.TotalScore,
		"grade", result.Grade.String(),
		"public", result.IsPublic)
	return result, nil
}

func (a *Analyzer) newPipeline(steps ...Step) *Pipeline {
	p := New(WithLogger(a.logger))
	p.AddSteps(steps...)
	return p
}

// persist runs a store operation. Its failure never reaches the caller.
func (a *Analyzer) persist(ctx context.Context, operation string, save func(context.Context) error) {
	if a.store == nil {
		return
	}
	if err := save(ctx); err != nil {
		appErr := errs.New(errs.PersistenceFailed, "failed to persist result", err)
		a.metrics.IncPersistenceFailures(operation)
		a.logger.Warn("persistence failed", "operation", operation, "error", appErr)
	}
}

// toAppError keeps an *errs.AppError as is and classifies anything else.
func toAppError(err error) error {
	var appErr *errs.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.New(errs.Timeout, "request cancelled", err)
	}
	return errs.New(errs.Unknown, "analysis failed", err)
}
