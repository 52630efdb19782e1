package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/pagescope/internal/errs"
	"github.com/nao1215/pagescope/internal/model"
)

// DefaultConcurrency is the number of URLs processed at once.
const DefaultConcurrency = 4

// BatchResult is the outcome for one URL of a batch. Exactly one of
// Analysis, Score and Err is set.
type BatchResult struct {
	URL      string
	Analysis *model.AnalysisResult
	Score    *model.ScoreResult
	Err      error
}

// BatchProcessor runs an Analyzer over many URLs with bounded concurrency.
// A failed URL never stops the others.
type BatchProcessor struct {
	analyzer    *Analyzer
	concurrency int
	logger      *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of URLs processed at once.
// Non-positive values are ignored.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a BatchProcessor.
func NewBatchProcessor(analyzer *Analyzer, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		analyzer:    analyzer,
		concurrency: DefaultConcurrency,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(bp)
	}
	return bp
}

// AnalyzeBatch analyzes every URL. Results keep the order of urls.
func (bp *BatchProcessor) AnalyzeBatch(ctx context.Context, urls []string) ([]BatchResult, error) {
	return bp.run(ctx, OperationAnalyze, urls, func(ctx context.Context, rawURL string) BatchResult {
		result, err := bp.analyzer.Analyze(ctx, rawURL)
		return BatchResult{URL: rawURL, Analysis: result, Err: err}
	}, nil)
}

// ScoreBatch scores every URL. Results keep the order of urls.
func (bp *BatchProcessor) ScoreBatch(ctx context.Context, urls []string, isPublic bool) ([]BatchResult, error) {
	return bp.ScoreBatchWithCallback(ctx, urls, isPublic, nil)
}

// ScoreBatchWithCallback scores every URL and calls callback as each one
// finishes. callback runs on the worker goroutine and must be safe for
// concurrent use.
func (bp *BatchProcessor) ScoreBatchWithCallback(
	ctx context.Context,
	urls []string,
	isPublic bool,
	callback func(result BatchResult, index int),
) ([]BatchResult, error) {
	return bp.run(ctx, OperationScore, urls, func(ctx context.Context, rawURL string) BatchResult {
		result, err := bp.analyzer.Score(ctx, rawURL, isPublic)
		return BatchResult{URL: rawURL, Score: result, Err: err}
	}, callback)
}

// run processes urls with at most bp.concurrency workers. URLs not started
// before ctx is done get a Timeout error, and ctx.Err() is returned.
func (bp *BatchProcessor) run(
	ctx context.Context,
	operation string,
	urls []string,
	work func(context.Context, string) BatchResult,
	callback func(BatchResult, int),
) ([]BatchResult, error) {
	bp.logger.Info("starting batch processing",
		"operation", operation,
		"total_urls", len(urls),
		"concurrency", bp.concurrency,
	)
	startTime := time.Now()

	results := make([]BatchResult, len(urls))

	var g errgroup.Group
	g.SetLimit(bp.concurrency)
	for i, rawURL := range urls {
		g.Go(func() error {
			var result BatchResult
			if err := ctx.Err(); err != nil {
				result = BatchResult{URL: rawURL, Err: errs.New(errs.Timeout, "batch cancelled", err)}
			} else {
				result = work(ctx, rawURL)
			}
			if result.Err != nil {
				bp.logger.Warn("batch item failed", "url", rawURL, "error", result.Err)
			}

			results[i] = result
			if callback != nil {
				callback(result, i)
			}
			return nil
		})
	}
	_ = g.Wait()

	bp.logger.Info("batch processing complete",
		"operation", operation,
		"total_urls", len(urls),
		"elapsed", time.Since(startTime),
	)
	return results, ctx.Err()
}
