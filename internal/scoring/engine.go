package scoring

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/pagescope/internal/model"
	"github.com/nao1215/pagescope/internal/protocol"
)

// Input is what the evaluators score. Probe may be nil, which is treated
// as a probe that found nothing.
type Input struct {
	Page  *model.PageData
	Probe *model.ProtocolProbeResult
}

// Evaluator scores one category. Evaluators are independent of each other
// and may run concurrently.
type Evaluator interface {
	// Category returns the category name.
	Category() string

	// MaxPoints returns the fixed budget of the category.
	MaxPoints() int

	// Evaluate returns the checks in evaluation order. It never fails;
	// a metric that cannot be observed earns zero points.
	Evaluate(ctx context.Context, in Input) []model.ScoreCheck
}

// SiteFiles checks the site-level documents of an origin.
// *protocol.Discoverer implements it.
type SiteFiles interface {
	DiscoveryFiles(ctx context.Context, pageURL string) model.DiscoveryFiles
	CrawlControl(ctx context.Context, pageURL string) model.CrawlControl
}

// Engine scores pages.
type Engine struct {
	evaluators  []Evaluator
	negotiation protocol.Negotiation
	now         func() time.Time
	logger      *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithNegotiation sets the protocol whose headers and media type are scored.
func WithNegotiation(n protocol.Negotiation) Option {
	return func(e *Engine) {
		e.negotiation = n
	}
}

// WithClock sets the time source used for freshness checks and timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// NewEngine creates an Engine with the four standard evaluators.
// files serves the discovery and crawl-control checks.
func NewEngine(files SiteFiles, opts ...Option) *Engine {
	e := &Engine{
		negotiation: protocol.NewNegotiation(protocol.DefaultName),
		now:         time.Now,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.evaluators = []Evaluator{
		&discoverability{files: files, negotiation: e.negotiation},
		&readability{},
		&trust{files: files, now: e.now},
		&actionability{},
	}
	return e
}

// Evaluators returns the category evaluators in report order.
func (e *Engine) Evaluators() []Evaluator {
	return e.evaluators
}

// Score evaluates every category concurrently and aggregates the result.
// Categories keep report order regardless of which evaluator finishes first.
func (e *Engine) Score(ctx context.Context, page *model.PageData, probe *model.ProtocolProbeResult) *model.ScoreResult {
	if probe == nil {
		probe = &model.ProtocolProbeResult{}
	}
	in := Input{Page: page, Probe: probe}

	categories := make([]model.ScoreCategory, len(e.evaluators))
	var g errgroup.Group
	for i, ev := range e.evaluators {
		g.Go(func() error {
			categories[i] = model.NewScoreCategory(ev.Category(), ev.MaxPoints(), ev.Evaluate(ctx, in))
			return nil
		})
	}
	_ = g.Wait()

	total := 0
	for _, c := range categories {
		total += c.Earned
	}

	result := &model.ScoreResult{
		URL:             page.URL,
		Domain:          model.DomainOf(page.FinalURL),
		Entity:          page.Entity,
		ContentType:     page.ContentType,
		TotalScore:      total,
		Grade:           model.GradeFor(total),
		Categories:      categories,
		Recommendations: Recommend(categories, e.negotiation),
		UsedFallback:    page.UsedFallbackTransport,
		ScoredAt:        e.now().UTC(),
	}

	e.logger.Debug("page scored",
		"url", page.URL,
		"total", result.TotalScore,
		"grade", result.Grade.String(),
		"recommendations", len(result.Recommendations))
	return result
}
