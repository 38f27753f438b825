package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abdullahbaluch/sitegraph/internal/config"
	"github.com/abdullahbaluch/sitegraph/internal/crawler"
	"github.com/abdullahbaluch/sitegraph/internal/database"
	"github.com/abdullahbaluch/sitegraph/internal/model"
)

// Health direction labels for run-to-run comparison.
const (
	healthDirectionWorsened  = "worsened"
	healthDirectionImproved  = "improved"
	healthDirectionUnchanged = "unchanged"
)

// NewHistoryCmd creates the history command.
// This command inspects and compares crawl results stored in the database.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [site]",
		Short: "Inspect and compare stored crawl results",
		Long: `History displays stored crawl runs and compares them over time.

This command retrieves historical crawl data from the local database and
shows:
- Pages that appeared or disappeared since the previous run
- Status code changes (pages that broke or recovered)
- Changes in link counts and crawl errors

The comparison requires at least two runs in the database for the
specified site. Use 'sitegraph crawl' to perform crawls and save results.

Examples:
  # Compare the latest two runs for a site
  sitegraph history example.com

  # List all stored runs for a site
  sitegraph history --list example.com

  # Compare with a specific run by ID
  sitegraph history --with-run-id 5 example.com

  # Output comparison in JSON format
  sitegraph history --json example.com

  # List all sites in the database
  sitegraph history --list-sites`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	// History listing flags
	cmd.Flags().BoolP("list", "l", false,
		"List crawl history for the specified site")
	cmd.Flags().BoolP("list-sites", "L", false,
		"List all crawled sites in the database")

	// Comparison target flags
	cmd.Flags().Int64P("with-run-id", "i", 0,
		"Compare with a specific run by ID (use --list to see available IDs)")

	// Output format flags
	cmd.Flags().BoolP("json", "j", false,
		"Output comparison result in JSON format")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	// Handle --list-sites flag first (requires database but no site)
	listSites, err := cmd.Flags().GetBool("list-sites")
	if err != nil {
		return err
	}

	// Validate arguments before opening database (unless --list-sites).
	// This prevents database lock issues when validation fails.
	var site string
	if !listSites {
		if len(args) == 0 {
			return errors.New("site is required (use --list-sites to see available sites)")
		}

		// Accept either a bare host or a full URL
		site = args[0]
		if strings.Contains(site, "://") {
			site = crawler.Host(site)
		}
		if site == "" {
			return fmt.Errorf("invalid site: %s", args[0])
		}
	}

	// Use XDG data directory for database
	dbDir := config.XDGDataDir()

	// Open database
	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()

	// Handle --list-sites flag
	if listSites {
		return listCrawledSites(ctx, db)
	}

	// Handle --list flag
	listHistory, err := cmd.Flags().GetBool("list")
	if err != nil {
		return err
	}
	if listHistory {
		return listCrawlHistory(ctx, db, site)
	}

	// Get output format flag
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	// Get comparison target flag
	withRunID, err := cmd.Flags().GetInt64("with-run-id")
	if err != nil {
		return err
	}

	// Perform comparison
	return runComparison(ctx, db, site, withRunID, jsonOutput)
}

// listCrawledSites lists all sites that have crawl records in the database.
func listCrawledSites(ctx context.Context, db *database.DB) error {
	sites, err := db.ListSites(ctx)
	if err != nil {
		return fmt.Errorf("failed to list sites: %w", err)
	}

	if len(sites) == 0 {
		fmt.Println("No crawled sites found in the database.")
		fmt.Println("\nUse 'sitegraph crawl <url>' to crawl a site.")
		return nil
	}

	fmt.Printf("Crawled sites (%d):\n\n", len(sites))
	for _, site := range sites {
		fmt.Printf("  • %s\n", site)
	}
	fmt.Println("\nUse 'sitegraph history --list <site>' to see crawl history for a site.")

	return nil
}

// listCrawlHistory lists all crawl records for a specific site.
func listCrawlHistory(ctx context.Context, db *database.DB, site string) error {
	runs, err := db.ListRuns(ctx, site)
	if err != nil {
		return fmt.Errorf("failed to get crawl history: %w", err)
	}

	if len(runs) == 0 {
		fmt.Printf("No crawl history found for %s\n", site)
		fmt.Println("\nUse 'sitegraph crawl' to crawl this site.")
		return nil
	}

	fmt.Printf("Crawl history for %s (%d runs):\n\n", site, len(runs))
	fmt.Printf("  %-6s  %-20s  %-7s  %-7s  %-7s  %s\n", "ID", "Date", "Pages", "Links", "Errors", "Probe")
	fmt.Println("  " + strings.Repeat("-", 66))

	for _, run := range runs {
		fmt.Printf("  %-6d  %-20s  %-7d  %-7d  %-7d  %s\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.TotalPages,
			run.TotalLinks,
			run.ErrorCount,
			formatProbe(run.RobotsFound, run.SitemapFound),
		)
	}

	fmt.Println("\nUse 'sitegraph history <site>' to compare the latest two runs.")
	fmt.Println("Use 'sitegraph history --with-run-id <id> <site>' to compare with a specific run.")

	return nil
}

// formatProbe renders the robots/sitemap probe findings compactly.
func formatProbe(robots, sitemap bool) string {
	var parts []string
	if robots {
		parts = append(parts, "robots")
	}
	if sitemap {
		parts = append(parts, "sitemap")
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, "+")
}

// runComparison performs the actual comparison between crawl runs.
func runComparison(ctx context.Context, db *database.DB, site string, withRunID int64, jsonOutput bool) error {
	runs, err := db.ListRuns(ctx, site)
	if err != nil {
		return fmt.Errorf("failed to get crawl history: %w", err)
	}

	if len(runs) == 0 {
		return fmt.Errorf("no crawl history found for %s", site)
	}

	if len(runs) < 2 && withRunID == 0 {
		return fmt.Errorf("at least 2 runs are required for comparison (found %d)", len(runs))
	}

	// Latest run is always the current one
	current, err := db.GetResultByID(ctx, runs[0].ID)
	if err != nil {
		return fmt.Errorf("failed to load run %d: %w", runs[0].ID, err)
	}
	if current == nil {
		return fmt.Errorf("run %d not found", runs[0].ID)
	}

	var previous *model.CrawlResult
	if withRunID > 0 {
		previous, err = db.GetResultByID(ctx, withRunID)
		if err != nil {
			return fmt.Errorf("failed to get run with ID %d: %w", withRunID, err)
		}
		if previous == nil {
			return fmt.Errorf("run with ID %d not found", withRunID)
		}
		// Validate that the run belongs to the same site
		if crawler.Host(previous.StartURL) != site {
			return fmt.Errorf("run ID %d belongs to %s, not %s", withRunID, crawler.Host(previous.StartURL), site)
		}
	} else {
		previous, err = db.GetResultByID(ctx, runs[1].ID)
		if err != nil {
			return fmt.Errorf("failed to load run %d: %w", runs[1].ID, err)
		}
		if previous == nil {
			return fmt.Errorf("run %d not found", runs[1].ID)
		}
	}

	comparison := compareRuns(previous, current)
	comparison.Site = site

	if jsonOutput {
		return outputComparisonJSON(comparison)
	}
	return outputComparisonText(comparison)
}

// ComparisonResult holds the result of comparing two crawl runs.
type ComparisonResult struct {
	// Site is the compared site host.
	Site string `json:"site"`

	// PreviousRun contains metadata about the previous run.
	PreviousRun RunSummary `json:"previous_run"`

	// CurrentRun contains metadata about the current run.
	CurrentRun RunSummary `json:"current_run"`

	// NewPages lists URLs crawled in the current run but not the previous.
	NewPages []string `json:"new_pages,omitempty"`

	// RemovedPages lists URLs crawled in the previous run but not the current.
	RemovedPages []string `json:"removed_pages,omitempty"`

	// StatusChanges lists pages whose HTTP status changed between runs.
	StatusChanges []StatusChange `json:"status_changes,omitempty"`

	// UnchangedCount is the number of pages present in both runs with the
	// same status.
	UnchangedCount int `json:"unchanged_count"`

	// HealthDirection is "improved", "worsened", or "unchanged", based on
	// the broken page count.
	HealthDirection string `json:"health_direction"`
}

// RunSummary contains metadata about a run for comparison display.
type RunSummary struct {
	// CrawledAt is when the crawl started.
	CrawledAt time.Time `json:"crawled_at"`

	// TotalPages is the number of pages crawled.
	TotalPages int `json:"total_pages"`

	// BrokenPages is the number of 4xx/5xx pages.
	BrokenPages int `json:"broken_pages"`

	// TotalLinks is the total unique link target count.
	TotalLinks int `json:"total_links"`

	// ErrorCount is the number of non-fatal errors recorded.
	ErrorCount int `json:"error_count"`
}

// StatusChange records a page whose status code differs between two runs.
type StatusChange struct {
	// URL is the page's final URL.
	URL string `json:"url"`

	// PreviousStatus and CurrentStatus are the HTTP status codes.
	PreviousStatus int `json:"previous_status"`
	CurrentStatus  int `json:"current_status"`
}

// compareRuns compares two crawl results and generates a comparison result.
func compareRuns(previous, current *model.CrawlResult) *ComparisonResult {
	result := &ComparisonResult{
		PreviousRun: summarizeRun(previous),
		CurrentRun:  summarizeRun(current),
	}

	previousPages := make(map[string]*model.CrawledPage, len(previous.Pages))
	for _, p := range previous.Pages {
		previousPages[p.URL] = p
	}
	currentPages := make(map[string]*model.CrawledPage, len(current.Pages))
	for _, p := range current.Pages {
		currentPages[p.URL] = p
	}

	// New pages: in current but not in previous. Iterate the page list
	// instead of the map to keep crawl order.
	for _, p := range current.Pages {
		if _, exists := previousPages[p.URL]; !exists {
			result.NewPages = append(result.NewPages, p.URL)
		}
	}

	// Removed pages and status changes
	for _, p := range previous.Pages {
		cur, exists := currentPages[p.URL]
		if !exists {
			result.RemovedPages = append(result.RemovedPages, p.URL)
			continue
		}
		if cur.StatusCode != p.StatusCode {
			result.StatusChanges = append(result.StatusChanges, StatusChange{
				URL:            p.URL,
				PreviousStatus: p.StatusCode,
				CurrentStatus:  cur.StatusCode,
			})
		} else {
			result.UnchangedCount++
		}
	}

	switch {
	case result.CurrentRun.BrokenPages < result.PreviousRun.BrokenPages:
		result.HealthDirection = healthDirectionImproved
	case result.CurrentRun.BrokenPages > result.PreviousRun.BrokenPages:
		result.HealthDirection = healthDirectionWorsened
	default:
		result.HealthDirection = healthDirectionUnchanged
	}

	return result
}

// summarizeRun extracts display metadata from a crawl result.
func summarizeRun(r *model.CrawlResult) RunSummary {
	broken := 0
	for _, p := range r.Pages {
		if p.IsBroken() {
			broken++
		}
	}
	return RunSummary{
		CrawledAt:   r.StartedAt,
		TotalPages:  r.TotalPages,
		BrokenPages: broken,
		TotalLinks:  r.TotalLinks,
		ErrorCount:  len(r.Errors),
	}
}

// outputComparisonJSON outputs the comparison result in JSON format.
func outputComparisonJSON(result *ComparisonResult) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// outputComparisonText outputs the comparison result in human-readable text format.
func outputComparisonText(result *ComparisonResult) error {
	fmt.Printf("Crawl Comparison: %s\n", result.Site)
	fmt.Println(strings.Repeat("=", 60))

	fmt.Printf("\nSite Health: %s\n", formatHealthDirection(result.HealthDirection))

	fmt.Printf("\nPrevious run: %s\n", result.PreviousRun.CrawledAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Current run:  %s\n", result.CurrentRun.CrawledAt.Format("2006-01-02 15:04:05"))

	// Summary table
	fmt.Println("\nRun Summary:")
	fmt.Printf("  %-10s  %-10s  %-10s  %-10s\n", "Metric", "Previous", "Current", "Change")
	fmt.Println("  " + strings.Repeat("-", 45))
	fmt.Printf("  %-10s  %-10d  %-10d  %-10s\n", "Pages",
		result.PreviousRun.TotalPages, result.CurrentRun.TotalPages,
		formatDelta(result.CurrentRun.TotalPages-result.PreviousRun.TotalPages))
	fmt.Printf("  %-10s  %-10d  %-10d  %-10s\n", "Broken",
		result.PreviousRun.BrokenPages, result.CurrentRun.BrokenPages,
		formatDelta(result.CurrentRun.BrokenPages-result.PreviousRun.BrokenPages))
	fmt.Printf("  %-10s  %-10d  %-10d  %-10s\n", "Links",
		result.PreviousRun.TotalLinks, result.CurrentRun.TotalLinks,
		formatDelta(result.CurrentRun.TotalLinks-result.PreviousRun.TotalLinks))
	fmt.Printf("  %-10s  %-10d  %-10d  %-10s\n", "Errors",
		result.PreviousRun.ErrorCount, result.CurrentRun.ErrorCount,
		formatDelta(result.CurrentRun.ErrorCount-result.PreviousRun.ErrorCount))

	// New pages
	if len(result.NewPages) > 0 {
		fmt.Printf("\nNew Pages (%d):\n", len(result.NewPages))
		for _, url := range result.NewPages {
			fmt.Printf("  [+] %s\n", url)
		}
	}

	// Removed pages
	if len(result.RemovedPages) > 0 {
		fmt.Printf("\nRemoved Pages (%d):\n", len(result.RemovedPages))
		for _, url := range result.RemovedPages {
			fmt.Printf("  [-] %s\n", url)
		}
	}

	// Status changes
	if len(result.StatusChanges) > 0 {
		fmt.Printf("\nStatus Changes (%d):\n", len(result.StatusChanges))
		for _, change := range result.StatusChanges {
			fmt.Printf("  [~] %s: %d -> %d\n", change.URL, change.PreviousStatus, change.CurrentStatus)
		}
	}

	// Unchanged count
	if result.UnchangedCount > 0 {
		fmt.Printf("\nUnchanged: %d pages\n", result.UnchangedCount)
	}

	return nil
}

// formatHealthDirection formats the health change direction for display.
func formatHealthDirection(direction string) string {
	switch direction {
	case healthDirectionImproved:
		return "IMPROVED (fewer broken pages)"
	case healthDirectionWorsened:
		return "WORSENED (more broken pages)"
	default:
		return "UNCHANGED"
	}
}

// formatDelta formats a numeric delta with sign for display.
func formatDelta(delta int) string {
	if delta > 0 {
		return "+" + strconv.Itoa(delta)
	} else if delta < 0 {
		return strconv.Itoa(delta)
	}
	return "0"
}
