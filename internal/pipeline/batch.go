package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/abdullahbaluch/sitegraph/internal/model"
)

// BatchProcessor handles concurrent crawling of multiple sites.
// It uses errgroup to manage goroutines and respect concurrency limits.
//
// Design decision: We use a separate BatchProcessor rather than adding batch
// functionality to Pipeline because:
// 1. It keeps the Pipeline focused on single-site execution
// 2. It allows different batch strategies (e.g., rate limiting, retries)
// 3. It provides cleaner separation of concerns
type BatchProcessor struct {
	// pipelineFactory creates a new pipeline for each site.
	// We use a factory to ensure each crawl gets a fresh pipeline instance.
	pipelineFactory func() *Pipeline

	// concurrency is the maximum number of concurrent site crawls.
	concurrency int

	// logger is used for batch-level logging.
	logger *slog.Logger

	// results stores completed crawl results.
	// Access is synchronized via mutex.
	results []*model.CrawlResult
	mu      sync.Mutex
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent site crawls.
// Default is 4 if not specified.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
//
// The pipelineFactory function is called for each site to create a fresh
// pipeline instance. This ensures that pipeline state doesn't leak between
// crawls and allows for per-site customization if needed.
func NewBatchProcessor(pipelineFactory func() *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     4,
		results:         make([]*model.CrawlResult, 0),
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessBatch crawls multiple sites concurrently.
// It respects the configured concurrency limit and context cancellation.
//
// Design decision: We use errgroup.SetLimit rather than a worker pool
// because it's simpler and errgroup handles the concurrency correctly.
// Each site gets its own goroutine, but only 'concurrency' goroutines
// run simultaneously.
//
// Returns all results collected, even for sites that failed.
// The error return indicates if the batch was cancelled.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, sites []string) ([]*model.CrawlResult, error) {
	bp.logger.Info("starting batch processing",
		"total_sites", len(sites),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()

	// Pre-allocate results slice to maintain order
	bp.results = make([]*model.CrawlResult, len(sites))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, site := range sites {
		i, site := i, site
		g.Go(func() error {
			// Check for cancellation before starting
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			bp.logger.Info("crawling site",
				"site", site,
				"index", i+1,
				"total", len(sites),
			)

			// Create result for this site
			result := model.NewCrawlResult(site)

			// Create and execute pipeline
			pipeline := bp.pipelineFactory()
			err := pipeline.Execute(ctx, result)

			// Store result regardless of error
			// The result contains error information if the crawl failed
			bp.mu.Lock()
			bp.results[i] = result
			bp.mu.Unlock()

			if err != nil {
				bp.logger.Warn("crawl failed",
					"site", site,
					"error", err,
				)
				// Don't return error to errgroup - we want to continue other crawls
				// The error is recorded in the result
				return nil
			}

			bp.logger.Info("crawl completed",
				"site", site,
			)

			return nil
		})
	}

	// Wait for all crawls to complete
	err := g.Wait()

	elapsed := time.Since(startTime)
	bp.logger.Info("batch processing complete",
		"total_sites", len(sites),
		"elapsed", elapsed,
	)

	return bp.results, err
}

// ProcessBatchWithCallback crawls multiple sites and calls a callback
// for each completed crawl. This is useful for streaming results.
//
// The callback receives the result and the index of the site in the
// original slice. The callback is called from the goroutine that completed
// the crawl, so it should be thread-safe if it accesses shared state.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	sites []string,
	callback func(result *model.CrawlResult, index int),
) error {
	bp.logger.Info("starting batch processing with callback",
		"total_sites", len(sites),
		"concurrency", bp.concurrency,
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, site := range sites {
		i, site := i, site
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			result := model.NewCrawlResult(site)
			pipeline := bp.pipelineFactory()
			_ = pipeline.Execute(ctx, result) //nolint:errcheck // Error is stored in result

			// Call the callback with the result
			callback(result, i)

			return nil
		})
	}

	return g.Wait()
}
