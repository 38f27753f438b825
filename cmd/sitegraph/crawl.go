package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/abdullahbaluch/sitegraph/internal/config"
	"github.com/abdullahbaluch/sitegraph/internal/crawler"
	"github.com/abdullahbaluch/sitegraph/internal/database"
	"github.com/abdullahbaluch/sitegraph/internal/log"
	"github.com/abdullahbaluch/sitegraph/internal/model"
	"github.com/abdullahbaluch/sitegraph/internal/pipeline"
	"github.com/abdullahbaluch/sitegraph/internal/report"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [url...]",
		Short: "Crawl a website and analyze its internal link structure",
		Long: `Crawl fetches pages starting from the seed URL, follows internal links
breadth-first, and builds the site's internal link graph.

For each site it reports:
- Broken pages (4xx/5xx responses) and fetch failures
- Orphan pages that no other crawled page links to
- Dangling references: internal links to pages the crawl never reached
- Per-page content findings (missing titles, thin content, heading issues)

Examples:
  # Crawl a single site
  sitegraph crawl https://example.com

  # Crawl multiple sites concurrently
  sitegraph crawl https://example.com https://example.org

  # Limit the crawl budget
  sitegraph crawl --max-pages 50 --depth 2 https://example.com

  # Output a JSON report to a file
  sitegraph crawl --json -o report.json https://example.com

  # Use a custom configuration file
  sitegraph crawl -c myconfig.yaml https://example.com

Configuration file (.sitegraph) example:
  defaults:
    depth: 3
  sites:
    example.com:
      maxPages: 50
      headers:
        Authorization: "Bearer token"`,
		Args: cobra.ArbitraryArgs,
		RunE: runCrawlCmd,
	}

	// Crawl behavior flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each HTTP request")
	cmd.Flags().IntP("depth", "d", config.DefaultMaxDepth,
		"Maximum frontier distance from the seed (0 = seed page only)")
	cmd.Flags().IntP("max-pages", "p", config.DefaultMaxPages,
		"Maximum number of pages to crawl per site")
	cmd.Flags().IntP("fan-out", "f", config.DefaultFanOut,
		"Maximum internal links admitted to the frontier per page")
	cmd.Flags().IntP("workers", "w", config.DefaultWorkers,
		"Number of concurrent page fetches per site")

	// Batch crawling flags
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of sites crawled concurrently")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .sitegraph in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	// Persistence flags
	cmd.Flags().Bool("no-save", false,
		"Do not save crawl results to the local history database")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	// Build config from flags
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Set up structured logging with URL credential masking
	logger := log.NewSecureLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runCrawl(ctx, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.MaxDepth, err = cmd.Flags().GetInt("depth")
	if err != nil {
		return nil, err
	}

	cfg.MaxPages, err = cmd.Flags().GetInt("max-pages")
	if err != nil {
		return nil, err
	}

	cfg.FanOut, err = cmd.Flags().GetInt("fan-out")
	if err != nil {
		return nil, err
	}

	cfg.Workers, err = cmd.Flags().GetInt("workers")
	if err != nil {
		return nil, err
	}

	cfg.BatchSize, err = cmd.Flags().GetInt("batch")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load site-specific configurations from config file.
	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently use empty config if no file found.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.SiteConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		// User explicitly specified a config file that doesn't exist
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	} else {
		// Use empty config if no file found and user didn't explicitly specify one
		cfg.SiteConfigs = &config.File{
			Sites: make(map[string]config.SiteConfig),
		}
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	noSave, err := cmd.Flags().GetBool("no-save")
	if err != nil {
		return nil, err
	}
	if !noSave {
		cfg.SaveToDB = true
		cfg.DBDir = config.XDGDataDir()
	}

	cfg.Verbose = getVerboseFlag(cmd)

	// Get positional arguments (seed URLs)
	cfg.Targets = args

	return cfg, nil
}

// runCrawl executes the crawl.
func runCrawl(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if len(cfg.Targets) == 0 {
		return errors.New("no targets provided (specify one or more site URLs as arguments)")
	}

	// Validate and normalize all seed URLs up front. A bad seed is a usage
	// error, not a crawl finding.
	for i, target := range cfg.Targets {
		normalized, err := crawler.Normalize(target, "")
		if err != nil {
			return fmt.Errorf("invalid seed URL %q: %w", target, err)
		}
		cfg.Targets[i] = normalized
	}

	logger.Info("starting crawl",
		"targets", cfg.Targets,
		"maxPages", cfg.MaxPages,
		"maxDepth", cfg.MaxDepth,
		"batchSize", cfg.BatchSize,
		"saveToDB", cfg.SaveToDB,
	)

	// Open database connection if saving is enabled
	var db *database.DB
	if cfg.SaveToDB {
		var err error
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Info("database opened", "dir", cfg.DBDir)
	}

	// Shared HTTP client for all targets. Connection pooling across sites is
	// intentional; per-site settings live on the fetcher, not the client.
	client := &http.Client{}

	// Use batch processor for parallel crawling if multiple targets
	if len(cfg.Targets) > 1 && cfg.BatchSize > 1 {
		return runBatchCrawl(ctx, cfg, client, db, logger)
	}

	// Single target or sequential crawling
	return runSequentialCrawl(ctx, cfg, client, db, logger)
}

// runSequentialCrawl crawls targets one at a time.
func runSequentialCrawl(ctx context.Context, cfg *config.Config, client *http.Client, db *database.DB, logger *slog.Logger) error {
	for _, target := range cfg.Targets {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		// Get site-specific configuration
		siteConfig := cfg.SiteConfigs.GetSiteConfig(crawler.Host(target))

		// Create pipeline with site-specific options.
		// Progress is only wired in sequential mode; interleaved progress
		// lines from concurrent crawls would be unreadable.
		p := createPipelineForTarget(client, logger, cfg, siteConfig, db, progressPrinter(os.Stderr))

		result := model.NewCrawlResult(target)

		fmt.Printf("Crawling %s...\n", target)
		startTime := time.Now()

		// Execute the pipeline
		if err := p.Execute(ctx, result); err != nil {
			logger.Error("crawl failed", "target", target, "error", err)
			fmt.Fprintf(os.Stderr, "Crawl error for %s: %v\n", target, err)
			continue
		}

		elapsed := time.Since(startTime)
		fmt.Printf("Crawl completed in %s\n\n", elapsed.Round(time.Millisecond))

		// Generate and output report
		if err := outputReport(cfg, result); err != nil {
			logger.Error("report failed", "target", target, "error", err)
		}
	}

	return nil
}

// runBatchCrawl crawls multiple targets concurrently using BatchProcessor.
func runBatchCrawl(ctx context.Context, cfg *config.Config, client *http.Client, db *database.DB, logger *slog.Logger) error {
	fmt.Printf("Starting batch crawl of %d sites (concurrency: %d)...\n\n",
		len(cfg.Targets), cfg.BatchSize)

	startTime := time.Now()

	// Warn user about batch processing limitation
	if cfg.SiteConfigs != nil && len(cfg.SiteConfigs.Sites) > 0 {
		logger.Warn("batch processing uses default site config only; site-specific configs (headers, depth) are ignored",
			"siteCount", len(cfg.SiteConfigs.Sites))
		fmt.Fprintf(os.Stderr, "Warning: Site-specific configurations are ignored in batch mode. Use sequential mode (--batch 1) to apply per-site settings.\n\n")
	}

	// Create batch processor with pipeline factory
	bp := pipeline.NewBatchProcessor(
		func() *pipeline.Pipeline {
			// Batch processing uses the default site config only; applying
			// site-specific configs would require per-target pipelines.
			var siteConfig config.SiteConfig
			if cfg.SiteConfigs != nil {
				siteConfig = cfg.SiteConfigs.Defaults
			}
			return createPipelineForTarget(client, logger, cfg, siteConfig, db, nil)
		},
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(logger),
	)

	// Process with callback for streaming output
	var mu sync.Mutex
	err := bp.ProcessBatchWithCallback(ctx, cfg.Targets, func(result *model.CrawlResult, index int) {
		mu.Lock()
		defer mu.Unlock()

		fmt.Printf("[%d/%d] Crawl completed: %s\n", index+1, len(cfg.Targets), result.StartURL)

		// Generate and output report
		if err := outputReport(cfg, result); err != nil {
			logger.Error("report failed", "target", result.StartURL, "error", err)
		}
	})

	elapsed := time.Since(startTime)
	fmt.Printf("\nBatch crawl completed in %s\n", elapsed.Round(time.Millisecond))

	return err
}

// createPipelineForTarget creates a pipeline with the given configuration.
func createPipelineForTarget(client *http.Client, logger *slog.Logger, cfg *config.Config, siteConfig config.SiteConfig, db *database.DB, progress crawler.ProgressFunc) *pipeline.Pipeline {
	pipelineOpts := []pipeline.Option{
		pipeline.WithLogger(logger),
		pipeline.WithContinueOnError(true),
	}

	// Site-specific settings override globals
	maxDepth := cfg.MaxDepth
	if siteConfig.Depth > 0 {
		maxDepth = siteConfig.Depth
	}
	maxPages := cfg.MaxPages
	if siteConfig.MaxPages > 0 {
		maxPages = siteConfig.MaxPages
	}
	userAgent := cfg.UserAgent
	if siteConfig.UserAgent != "" {
		userAgent = siteConfig.UserAgent
	}

	fetcherOpts := []crawler.FetcherOption{
		crawler.WithTimeout(cfg.Timeout),
		crawler.WithUserAgent(userAgent),
		crawler.WithMaxBodySize(cfg.MaxBodySize),
	}
	if len(siteConfig.Headers) > 0 {
		fetcherOpts = append(fetcherOpts, crawler.WithHeaders(siteConfig.Headers))
	}
	fetcher := crawler.NewHTTPFetcher(client, fetcherOpts...)

	configOpts := []pipeline.DefaultPipelineOption{
		pipeline.WithPipelineMaxDepth(maxDepth),
		pipeline.WithPipelineMaxPages(maxPages),
		pipeline.WithPipelineFanOut(cfg.FanOut),
		pipeline.WithPipelineWorkers(cfg.Workers),
	}
	if progress != nil {
		configOpts = append(configOpts, pipeline.WithPipelineProgress(progress))
	}
	if db != nil {
		configOpts = append(configOpts, pipeline.WithPipelineDB(db))
	}

	return pipeline.DefaultPipeline(fetcher, pipelineOpts, configOpts...)
}

// progressPrinter returns a progress observer that writes one line per fetch
// attempt. It is safe for concurrent calls.
func progressPrinter(w io.Writer) crawler.ProgressFunc {
	var mu sync.Mutex
	return func(p crawler.Progress) {
		if p.Status != crawler.StatusCrawling && p.Status != crawler.StatusError {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		marker := " "
		if p.Status == crawler.StatusError {
			marker = "!"
		}
		fmt.Fprintf(w, "  [%d/%d]%s %s\n", p.Current, p.Total, marker, p.CurrentURL)
	}
}

// outputReport outputs the crawl report in the requested format.
func outputReport(cfg *config.Config, result *model.CrawlResult) error {
	// Determine output destination
	var output *os.File
	if cfg.ReportFile != "" {
		// Create directories if they don't exist
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	} else {
		output = os.Stdout
	}

	// JSON output (full result with all data)
	if cfg.JSONReport {
		writer := report.NewFullJSONWriter(output, getVersion(), report.WithPrettyPrint())
		_, err := writer.Write(result)
		return err
	}

	// Markdown output
	if cfg.MarkdownReport {
		writer := report.NewMarkdownWriter(output)
		_, err := writer.Write(result)
		return err
	}

	// Human-readable report (default)
	writer := report.NewSimpleWriter(output)
	_, err := writer.Write(result)
	return err
}
