package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/abdullahbaluch/sitegraph/internal/crawler"
	"github.com/abdullahbaluch/sitegraph/internal/model"
)

// DB provides SQLite-based storage for crawl runs.
// It manages connection pooling and provides methods for CRUD operations.
//
// Design decision: We use a single database file for all sites rather than
// separate files per site. This simplifies cross-run queries (history for a
// host) and backup/restore operations.
type DB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures DB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a DB at the specified path.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*DB, error) {
	dbPath := filepath.Join(dbDir, "sitegraph.db")

	// Check if we should create the database or require it to exist
	if !opts.CreateIfNotExists {
		// Check if database file exists
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		// Ensure directory exists
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// Build connection string
	// We use modernc.org/sqlite which uses a different connection string format.
	// When CreateIfNotExists is false, we use mode=rw to prevent creating new files.
	// When CreateIfNotExists is true, we use mode=rwc to allow creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	// SQLite doesn't benefit from multiple connections for writes,
	// but multiple readers can improve performance
	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	sdb := &DB{
		db:     db,
		dbPath: dbPath,
	}

	// Enable WAL mode if requested
	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	// Create tables
	if err := sdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return sdb, nil
}

// Close closes the database connection.
func (sdb *DB) Close() error {
	return sdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (sdb *DB) createTables() error {
	schema := `
	-- Crawl runs store one row per completed crawl, with the full result as JSON
	CREATE TABLE IF NOT EXISTS crawl_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		site TEXT NOT NULL,
		start_url TEXT NOT NULL,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		total_pages INTEGER DEFAULT 0,
		total_links INTEGER DEFAULT 0,
		error_count INTEGER DEFAULT 0,
		robots_found INTEGER DEFAULT 0,
		sitemap_found INTEGER DEFAULT 0,
		result_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_site ON crawl_runs(site);
	CREATE INDEX IF NOT EXISTS idx_runs_timestamp ON crawl_runs(timestamp);

	-- Pages store individual page fetches, queryable without parsing JSON
	CREATE TABLE IF NOT EXISTS pages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES crawl_runs(id) ON DELETE CASCADE,
		url TEXT NOT NULL,
		title TEXT,
		status_code INTEGER,
		depth INTEGER DEFAULT 0,
		word_count INTEGER DEFAULT 0,
		load_time_ms INTEGER DEFAULT 0,
		UNIQUE(run_id, url)
	);

	CREATE INDEX IF NOT EXISTS idx_pages_run ON pages(run_id);
	CREATE INDEX IF NOT EXISTS idx_pages_url ON pages(url);

	-- Edges store the link graph of each run
	CREATE TABLE IF NOT EXISTS edges (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES crawl_runs(id) ON DELETE CASCADE,
		source TEXT NOT NULL,
		target TEXT NOT NULL,
		anchor_text TEXT,
		edge_type TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_edges_run ON edges(run_id);
	CREATE INDEX IF NOT EXISTS idx_edges_source ON edges(source);
	CREATE INDEX IF NOT EXISTS idx_edges_target ON edges(target);
	`

	_, err := sdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveCrawlResult persists a complete crawl result: the run row with the
// serialized result, plus per-page and per-edge rows for direct querying.
// Everything is written in one transaction so a run is either fully stored
// or not at all. Returns the new run's ID.
func (sdb *DB) SaveCrawlResult(ctx context.Context, result *model.CrawlResult) (int64, error) {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize result: %w", err)
	}

	tx, err := sdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback after commit is a no-op

	res, err := tx.ExecContext(ctx, `
	INSERT INTO crawl_runs (site, start_url, total_pages, total_links, error_count, robots_found, sitemap_found, result_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		crawler.Host(result.StartURL),
		result.StartURL,
		result.TotalPages,
		result.TotalLinks,
		len(result.Errors),
		boolToInt(result.RobotsFound),
		boolToInt(result.SitemapFound),
		string(resultJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert crawl run: %w", err)
	}

	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run id: %w", err)
	}

	for _, page := range result.Pages {
		if _, err := tx.ExecContext(ctx, `
		INSERT INTO pages (run_id, url, title, status_code, depth, word_count, load_time_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, url) DO NOTHING
		`,
			runID,
			page.URL,
			page.Title,
			page.StatusCode,
			page.Depth,
			page.WordCount,
			page.LoadTime.Milliseconds(),
		); err != nil {
			return 0, fmt.Errorf("failed to insert page: %w", err)
		}
	}

	if result.Graph != nil {
		for _, edge := range result.Graph.Edges {
			if _, err := tx.ExecContext(ctx, `
			INSERT INTO edges (run_id, source, target, anchor_text, edge_type)
			VALUES (?, ?, ?, ?, ?)
			`,
				runID,
				edge.Source,
				edge.Target,
				edge.AnchorText,
				string(edge.Type),
			); err != nil {
				return 0, fmt.Errorf("failed to insert edge: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit crawl run: %w", err)
	}

	return runID, nil
}

// GetLatestResult retrieves the most recent crawl result for a site host.
func (sdb *DB) GetLatestResult(ctx context.Context, site string) (*model.CrawlResult, error) {
	query := `
	SELECT result_json FROM crawl_runs
	WHERE site = ?
	ORDER BY timestamp DESC
	LIMIT 1
	`

	var resultJSON string
	err := sdb.db.QueryRowContext(ctx, query, site).Scan(&resultJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get crawl result: %w", err)
	}

	var result model.CrawlResult
	if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
		return nil, fmt.Errorf("failed to parse result: %w", err)
	}

	return &result, nil
}

// GetResultByID retrieves a crawl result by its database ID.
func (sdb *DB) GetResultByID(ctx context.Context, id int64) (*model.CrawlResult, error) {
	query := `
	SELECT result_json FROM crawl_runs
	WHERE id = ?
	`

	var resultJSON string
	err := sdb.db.QueryRowContext(ctx, query, id).Scan(&resultJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get crawl result: %w", err)
	}

	var result model.CrawlResult
	if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
		return nil, fmt.Errorf("failed to parse result: %w", err)
	}

	return &result, nil
}

// ListSites returns all site hosts that have stored crawl runs.
func (sdb *DB) ListSites(ctx context.Context) ([]string, error) {
	query := `
	SELECT DISTINCT site FROM crawl_runs
	ORDER BY site
	`

	rows, err := sdb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list sites: %w", err)
	}
	defer rows.Close()

	var sites []string
	for rows.Next() {
		var site string
		if err := rows.Scan(&site); err != nil {
			return nil, fmt.Errorf("failed to scan site: %w", err)
		}
		sites = append(sites, site)
	}

	return sites, rows.Err()
}

// RunMetadata contains summary information about a stored crawl run.
// This is used for displaying run history without loading the full result.
type RunMetadata struct {
	// ID is the unique identifier of the run in the database.
	ID int64

	// Site is the crawled site host.
	Site string

	// StartURL is the seed URL of the run.
	StartURL string

	// Timestamp is when the crawl was performed.
	Timestamp time.Time

	// TotalPages and TotalLinks summarize the run's output.
	TotalPages int
	TotalLinks int

	// ErrorCount is the number of non-fatal errors recorded.
	ErrorCount int

	// RobotsFound and SitemapFound report the site probe findings.
	RobotsFound  bool
	SitemapFound bool
}

// ListRuns retrieves run metadata, optionally filtered to one site host.
// Pass an empty site to list runs for all sites.
// This is more efficient than loading full results when only metadata is needed.
func (sdb *DB) ListRuns(ctx context.Context, site string) ([]RunMetadata, error) {
	query := `
	SELECT id, site, start_url, timestamp, total_pages, total_links, error_count, robots_found, sitemap_found
	FROM crawl_runs
	`
	args := make([]any, 0)

	if site != "" {
		query += " WHERE site = ?"
		args = append(args, site)
	}
	query += " ORDER BY timestamp DESC"

	rows, err := sdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var results []RunMetadata
	for rows.Next() {
		var meta RunMetadata
		var timestamp string
		var robots, sitemap int

		if err := rows.Scan(
			&meta.ID,
			&meta.Site,
			&meta.StartURL,
			&timestamp,
			&meta.TotalPages,
			&meta.TotalLinks,
			&meta.ErrorCount,
			&robots,
			&sitemap,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run metadata: %w", err)
		}

		meta.Timestamp = parseTimestamp(timestamp)
		meta.RobotsFound = robots != 0
		meta.SitemapFound = sitemap != 0

		results = append(results, meta)
	}

	return results, rows.Err()
}

// PageHistory returns the status codes a URL answered with across runs,
// newest first. Useful for spotting pages that started breaking.
type PageHistory struct {
	RunID      int64
	StatusCode int
	Timestamp  time.Time
}

// GetPageHistory retrieves the fetch history of a single URL across runs.
func (sdb *DB) GetPageHistory(ctx context.Context, url string) ([]PageHistory, error) {
	query := `
	SELECT p.run_id, p.status_code, r.timestamp
	FROM pages p
	JOIN crawl_runs r ON r.id = p.run_id
	WHERE p.url = ?
	ORDER BY r.timestamp DESC
	`

	rows, err := sdb.db.QueryContext(ctx, query, url)
	if err != nil {
		return nil, fmt.Errorf("failed to get page history: %w", err)
	}
	defer rows.Close()

	var results []PageHistory
	for rows.Next() {
		var h PageHistory
		var timestamp string

		if err := rows.Scan(&h.RunID, &h.StatusCode, &timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan page history: %w", err)
		}

		h.Timestamp = parseTimestamp(timestamp)
		results = append(results, h)
	}

	return results, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// SQLite may return timestamps in different formats depending on configuration.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	// Return zero time if no format matches
	// This is a fallback to avoid breaking functionality for edge cases
	return time.Time{}
}
