package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// These values are chosen to keep a default run polite and quick while still
// producing a useful link graph.
const (
	// DefaultTimeout is the per-request timeout. 30 seconds tolerates slow
	// origin servers without letting a single dead host stall the whole run.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxDepth limits how far from the seed the crawl walks.
	// Depth 0 means only fetch the seed page. Three hops reach the bulk of
	// a typical site's navigable structure.
	DefaultMaxDepth = 3

	// MaxDepthCeiling is the hard upper bound for --depth. Deeper crawls
	// rarely add structure and mostly add load on the target site.
	MaxDepthCeiling = 5

	// DefaultMaxPages is the total page budget per site. This prevents
	// runaway crawling on large or infinitely-generating sites.
	// Users can override this via the --max-pages CLI flag.
	DefaultMaxPages = 20

	// MaxPagesCeiling is the hard upper bound for --max-pages.
	MaxPagesCeiling = 100

	// DefaultFanOut caps how many internal links per page enter the
	// frontier. Link-dense pages (footers, tag clouds) would otherwise
	// dominate the page budget.
	DefaultFanOut = 10

	// DefaultWorkers is the number of concurrent page fetches per site.
	// A value of 1 reproduces a strictly sequential crawl.
	DefaultWorkers = 4

	// DefaultBatchSize is the number of sites crawled concurrently when
	// multiple targets are given.
	DefaultBatchSize = 4

	// AppName is the application name used for XDG directory paths.
	AppName = "sitegraph"

	// DefaultUserAgent identifies sitegraph in HTTP requests.
	// A descriptive User-Agent lets site operators identify crawler
	// traffic in their logs.
	DefaultUserAgent = "sitegraph/1.0 (+https://github.com/abdullahbaluch/sitegraph)"

	// DefaultMaxBodySize limits the maximum response body size to read.
	// 5MB is sufficient for most HTML pages while preventing memory
	// exhaustion from unexpectedly large responses.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB
)

// Config holds all configuration options for sitegraph.
// This struct is designed to be populated from CLI flags and passed through
// the application via dependency injection rather than global state.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., CrawlConfig, ReportConfig) for simplicity. The number of options
// is manageable, and nesting would add complexity without significant benefit.
// If the configuration grows significantly, consider refactoring into sub-structs.
type Config struct {
	// Targets is the list of seed URLs to crawl. Must contain at least one
	// absolute http or https URL.
	Targets []string

	// Timeout is the timeout for each HTTP request. This applies to
	// individual fetches, not the overall crawl duration.
	Timeout time.Duration

	// MaxDepth is the maximum frontier distance from the seed.
	// Depth 0 means only fetch the seed page. Clamped to MaxDepthCeiling.
	MaxDepth int

	// MaxPages is the maximum number of pages to crawl per site.
	// A value of 0 means use the default. Clamped to MaxPagesCeiling.
	MaxPages int

	// FanOut caps how many internal links per page are admitted to the
	// frontier. A value of 0 means use the default.
	FanOut int

	// Workers is the number of concurrent page fetches per site.
	// A value of 0 means use the default.
	Workers int

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// BatchSize is the number of sites crawled concurrently when multiple
	// targets are given. Higher values increase throughput but multiply
	// outbound connections.
	BatchSize int

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .sitegraph in the current directory
	// and then in the user's home directory.
	ConfigFilePath string

	// SiteConfigs holds site-specific configurations loaded from the config
	// file. This is populated by LoadConfigFile and used during crawling.
	SiteConfigs *File

	// JSONReport enables JSON report output instead of human-readable format.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output instead of human-readable
	// format. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When set, the report is written to this file instead of stdout.
	// Directories are created automatically if they don't exist.
	ReportFile string

	// DBDir is the directory path for storing the SQLite database.
	// When set, crawl results are saved for historical comparison.
	// When empty, crawl results are not persisted.
	// Defaults to XDG data directory (~/.local/share/sitegraph on Linux).
	DBDir string

	// SaveToDB indicates whether to save crawl results to the database.
	// This is automatically set to true when DBDir is configured.
	SaveToDB bool

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes to read.
	// Responses larger than this are truncated to prevent memory exhaustion.
	// Set to 0 to use the default (5MB).
	MaxBodySize int64
}

// NewConfig creates a new Config with default values.
// All fields are set to safe, sensible defaults that work for most use cases.
// Users can override specific values after creation.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (e.g., timeout, page budget).
// This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		Timeout:     DefaultTimeout,
		MaxDepth:    DefaultMaxDepth,
		MaxPages:    DefaultMaxPages,
		FanOut:      DefaultFanOut,
		Workers:     DefaultWorkers,
		BatchSize:   DefaultBatchSize,
		UserAgent:   DefaultUserAgent,
		MaxBodySize: DefaultMaxBodySize,
	}
}

// XDGDataDir returns the XDG data directory for sitegraph.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.local/share/sitegraph
// On macOS: ~/Library/Application Support/sitegraph
// On Windows: %LOCALAPPDATA%\sitegraph
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for sitegraph.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.config/sitegraph
// On macOS: ~/Library/Application Support/sitegraph
// On Windows: %APPDATA%\sitegraph
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid and clamps the bounded
// values to their ceilings. It returns a specific error describing what is
// invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// This is called once after CLI parsing, before any crawling begins.
//
// We chose to return the first error found rather than collecting all errors
// because fixing one error often makes others irrelevant.
func (c *Config) Validate() error {
	// We must have at least one seed URL to crawl
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}

	// Timeout must be positive; zero timeout would cause immediate failures
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	// MaxDepth may be zero (seed page only) but never negative
	if c.MaxDepth < 0 {
		return ErrInvalidDepth
	}

	if c.MaxPages < 0 {
		return ErrInvalidMaxPages
	}

	// BatchSize must be positive; zero would mean no crawling
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}

	// JSONReport and MarkdownReport are mutually exclusive
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	// MaxBodySize must be non-negative; 0 means use the default
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	// Clamp bounded values instead of failing: asking for more than the
	// ceiling is a soft mistake, not a broken invocation.
	if c.MaxPages == 0 {
		c.MaxPages = DefaultMaxPages
	}
	if c.MaxPages > MaxPagesCeiling {
		c.MaxPages = MaxPagesCeiling
	}
	if c.MaxDepth > MaxDepthCeiling {
		c.MaxDepth = MaxDepthCeiling
	}
	if c.FanOut <= 0 {
		c.FanOut = DefaultFanOut
	}
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}

	return nil
}
