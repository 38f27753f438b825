package pipeline

import (
	"context"
	"log/slog"

	"github.com/abdullahbaluch/sitegraph/internal/config"
	"github.com/abdullahbaluch/sitegraph/internal/crawler"
	"github.com/abdullahbaluch/sitegraph/internal/database"
	"github.com/abdullahbaluch/sitegraph/internal/graph"
	"github.com/abdullahbaluch/sitegraph/internal/model"
)

// ProbeStep checks the target site for well-known resources before crawling.
// It records whether robots.txt and a sitemap exist at the site root.
//
// Design decision: Probing is a separate step because:
// 1. It runs against fixed paths, not discovered links
// 2. Its findings are informational and never gate the crawl
// 3. It can be skipped for repeat runs against a known site
type ProbeStep struct {
	// fetcher retrieves the probe targets.
	fetcher crawler.Fetcher

	// logger for structured logging.
	logger *slog.Logger
}

// ProbeStepOption configures a ProbeStep.
type ProbeStepOption func(*ProbeStep)

// WithProbeLogger sets a custom logger for the probe step.
func WithProbeLogger(logger *slog.Logger) ProbeStepOption {
	return func(s *ProbeStep) {
		s.logger = logger
	}
}

// NewProbeStep creates a new site probe step.
func NewProbeStep(fetcher crawler.Fetcher, opts ...ProbeStepOption) *ProbeStep {
	s := &ProbeStep{
		fetcher: fetcher,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *ProbeStep) Name() string {
	return "probe"
}

// Do executes the probe step.
func (s *ProbeStep) Do(ctx context.Context, result *model.CrawlResult) error {
	probe := crawler.ProbeSite(ctx, s.fetcher, result.StartURL)

	result.RobotsFound = probe.RobotsFound
	result.RobotsContent = probe.RobotsContent
	result.SitemapFound = probe.SitemapFound

	s.logger.Debug("site probe completed",
		"site", result.StartURL,
		"robots", probe.RobotsFound,
		"sitemap", probe.SitemapFound,
	)

	return nil
}

// CrawlStep performs the site traversal. It discovers pages from the seed,
// extracts their links and content facts, and fills the result's page list.
//
// Design decision: Crawling is separate from probing because:
// 1. It has different configuration (depth, page budget, workers)
// 2. It produces different data (pages vs site-level facts)
// 3. The traversal engine is independently testable with a fake fetcher
type CrawlStep struct {
	// fetcher retrieves pages during traversal.
	fetcher crawler.Fetcher

	// maxDepth limits frontier distance from the seed.
	maxDepth int

	// maxPages limits the total page budget.
	maxPages int

	// fanOut caps internal links admitted per page.
	fanOut int

	// workers is the number of concurrent fetchers.
	workers int

	// progress receives traversal snapshots; may be nil.
	progress crawler.ProgressFunc

	// logger for structured logging.
	logger *slog.Logger
}

// CrawlStepOption configures a CrawlStep.
type CrawlStepOption func(*CrawlStep)

// WithCrawlMaxDepth sets the maximum crawl depth.
func WithCrawlMaxDepth(depth int) CrawlStepOption {
	return func(s *CrawlStep) {
		s.maxDepth = depth
	}
}

// WithCrawlMaxPages sets the maximum pages to crawl.
func WithCrawlMaxPages(maxPages int) CrawlStepOption {
	return func(s *CrawlStep) {
		s.maxPages = maxPages
	}
}

// WithCrawlFanOut sets the per-page internal link cap.
func WithCrawlFanOut(fanOut int) CrawlStepOption {
	return func(s *CrawlStep) {
		s.fanOut = fanOut
	}
}

// WithCrawlWorkers sets the number of concurrent fetch workers.
func WithCrawlWorkers(workers int) CrawlStepOption {
	return func(s *CrawlStep) {
		s.workers = workers
	}
}

// WithCrawlProgress sets the progress observer for the traversal.
func WithCrawlProgress(fn crawler.ProgressFunc) CrawlStepOption {
	return func(s *CrawlStep) {
		s.progress = fn
	}
}

// WithCrawlLogger sets a custom logger for the crawl step.
func WithCrawlLogger(logger *slog.Logger) CrawlStepOption {
	return func(s *CrawlStep) {
		s.logger = logger
	}
}

// NewCrawlStep creates a new crawling step.
func NewCrawlStep(fetcher crawler.Fetcher, opts ...CrawlStepOption) *CrawlStep {
	s := &CrawlStep{
		fetcher:  fetcher,
		maxDepth: config.DefaultMaxDepth,
		maxPages: config.DefaultMaxPages,
		fanOut:   config.DefaultFanOut,
		workers:  config.DefaultWorkers,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *CrawlStep) Name() string {
	return "crawl"
}

// Do executes the crawl step. The traversal's pages, errors, and totals are
// copied into the shared result. Cancellation mid-crawl surfaces the partial
// result and marks it timed out.
func (s *CrawlStep) Do(ctx context.Context, result *model.CrawlResult) error {
	scheduler := crawler.NewScheduler(s.fetcher,
		crawler.WithMaxDepth(s.maxDepth),
		crawler.WithMaxPages(s.maxPages),
		crawler.WithFanOut(s.fanOut),
		crawler.WithWorkers(s.workers),
		crawler.WithProgress(s.progress),
		crawler.WithLogger(s.logger),
	)

	crawled, err := scheduler.Crawl(ctx, result.StartURL)
	if err != nil && crawled == nil {
		// Seed rejected before any fetch: nothing to salvage.
		return err
	}

	result.Pages = crawled.Pages
	result.Errors = append(result.Errors, crawled.Errors...)
	result.Finalize()

	if err != nil {
		// Cancellation mid-crawl: keep the partial pages.
		result.TimedOut = true
		s.logger.Warn("crawl cut short", "error", err, "pages", len(result.Pages))
		return nil
	}

	stats := scheduler.Stats()
	s.logger.Info("crawl completed",
		"pages_crawled", stats.PagesCrawled,
		"urls_seen", stats.URLsSeen,
		"fetch_errors", stats.FetchErrors,
	)

	return nil
}

// GraphStep derives the internal link graph from the crawled pages.
type GraphStep struct {
	// logger for structured logging.
	logger *slog.Logger
}

// GraphStepOption configures a GraphStep.
type GraphStepOption func(*GraphStep)

// WithGraphLogger sets a custom logger for the graph step.
func WithGraphLogger(logger *slog.Logger) GraphStepOption {
	return func(s *GraphStep) {
		s.logger = logger
	}
}

// NewGraphStep creates a new link graph building step.
func NewGraphStep(opts ...GraphStepOption) *GraphStep {
	s := &GraphStep{
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *GraphStep) Name() string {
	return "graph"
}

// Do executes the graph building step.
func (s *GraphStep) Do(_ context.Context, result *model.CrawlResult) error {
	if len(result.Pages) == 0 {
		s.logger.Debug("skipping graph build, no pages crawled")
		return nil
	}

	result.Graph = graph.Build(result.Pages, result.StartURL)

	s.logger.Debug("link graph built",
		"nodes", len(result.Graph.Nodes),
		"edges", len(result.Graph.Edges),
		"orphans", len(result.Graph.OrphanPages),
		"dangling", len(result.Graph.Dangling),
	)

	return nil
}

// StatsStep computes aggregate statistics over the crawled pages.
type StatsStep struct {
	// logger for structured logging.
	logger *slog.Logger
}

// StatsStepOption configures a StatsStep.
type StatsStepOption func(*StatsStep)

// WithStatsLogger sets a custom logger for the stats step.
func WithStatsLogger(logger *slog.Logger) StatsStepOption {
	return func(s *StatsStep) {
		s.logger = logger
	}
}

// NewStatsStep creates a new statistics step.
func NewStatsStep(opts ...StatsStepOption) *StatsStep {
	s := &StatsStep{
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *StatsStep) Name() string {
	return "stats"
}

// Do executes the statistics step.
func (s *StatsStep) Do(_ context.Context, result *model.CrawlResult) error {
	result.Stats = model.NewCrawlStats(result.Pages)

	s.logger.Debug("stats computed",
		"total", result.Stats.TotalPages,
		"successful", result.Stats.SuccessfulPages,
		"broken", result.Stats.BrokenPages,
	)

	return nil
}

// SaveStep persists the crawl result to the local database for historical
// comparison across runs.
type SaveStep struct {
	// db is the open crawl history database.
	db *database.DB

	// logger for structured logging.
	logger *slog.Logger
}

// SaveStepOption configures a SaveStep.
type SaveStepOption func(*SaveStep)

// WithSaveLogger sets a custom logger for the save step.
func WithSaveLogger(logger *slog.Logger) SaveStepOption {
	return func(s *SaveStep) {
		s.logger = logger
	}
}

// NewSaveStep creates a new persistence step.
func NewSaveStep(db *database.DB, opts ...SaveStepOption) *SaveStep {
	s := &SaveStep{
		db:     db,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *SaveStep) Name() string {
	return "save"
}

// Do executes the save step.
func (s *SaveStep) Do(ctx context.Context, result *model.CrawlResult) error {
	if s.db == nil {
		s.logger.Debug("skipping save, no database configured")
		return nil
	}

	id, err := s.db.SaveCrawlResult(ctx, result)
	if err != nil {
		return err
	}

	s.logger.Info("crawl result saved", "run_id", id, "site", result.StartURL)
	return nil
}

// DefaultPipelineConfig holds configuration for the default pipeline.
type DefaultPipelineConfig struct {
	// MaxDepth is the maximum depth for crawling.
	MaxDepth int

	// MaxPages is the maximum number of pages to crawl.
	MaxPages int

	// FanOut caps internal links admitted per page.
	FanOut int

	// Workers is the number of concurrent fetch workers.
	Workers int

	// Progress receives traversal snapshots; may be nil.
	Progress crawler.ProgressFunc

	// DB, when non-nil, enables saving results for historical comparison.
	DB *database.DB
}

// DefaultPipelineOption configures a DefaultPipelineConfig.
type DefaultPipelineOption func(*DefaultPipelineConfig)

// WithPipelineMaxDepth sets the crawl depth for the pipeline.
func WithPipelineMaxDepth(depth int) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.MaxDepth = depth
	}
}

// WithPipelineMaxPages sets the maximum pages to crawl.
func WithPipelineMaxPages(maxPages int) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.MaxPages = maxPages
	}
}

// WithPipelineFanOut sets the per-page internal link cap.
func WithPipelineFanOut(fanOut int) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.FanOut = fanOut
	}
}

// WithPipelineWorkers sets the number of concurrent fetch workers.
func WithPipelineWorkers(workers int) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Workers = workers
	}
}

// WithPipelineProgress sets the traversal progress observer.
func WithPipelineProgress(fn crawler.ProgressFunc) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Progress = fn
	}
}

// WithPipelineDB enables persisting results to the given database.
func WithPipelineDB(db *database.DB) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.DB = db
	}
}

// DefaultPipeline creates a pipeline with all default steps configured.
// This is the standard pipeline for analyzing a single site.
//
// Design decision: We provide a default pipeline because:
// 1. Most users want the full probe-crawl-graph-stats sequence
// 2. Reduces boilerplate in CLI
// 3. Ensures consistent ordering
//
// The first variadic parameter accepts pipeline options (WithLogger, etc).
// The second accepts pipeline config options (WithPipelineMaxDepth, etc).
func DefaultPipeline(fetcher crawler.Fetcher, pipelineOpts []Option, configOpts ...DefaultPipelineOption) *Pipeline {
	p := New(pipelineOpts...)

	cfg := &DefaultPipelineConfig{
		MaxDepth: config.DefaultMaxDepth,
		MaxPages: config.DefaultMaxPages,
		FanOut:   config.DefaultFanOut,
		Workers:  config.DefaultWorkers,
	}
	for _, opt := range configOpts {
		opt(cfg)
	}

	p.AddSteps(
		NewProbeStep(fetcher),
		NewCrawlStep(fetcher,
			WithCrawlMaxDepth(cfg.MaxDepth),
			WithCrawlMaxPages(cfg.MaxPages),
			WithCrawlFanOut(cfg.FanOut),
			WithCrawlWorkers(cfg.Workers),
			WithCrawlProgress(cfg.Progress),
		),
		NewGraphStep(),
		NewStatsStep(),
	)

	if cfg.DB != nil {
		p.AddStep(NewSaveStep(cfg.DB))
	}

	return p
}
