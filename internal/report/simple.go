package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/abdullahbaluch/sitegraph/internal/model"
)

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display with clear section
// formatting.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sections with no entries are shown.
	showEmpty bool

	// verbose enables additional detail in the output.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		showEmpty:  false,
		verbose:    false,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the full result in human-readable format.
func (w *SimpleWriter) Write(result *model.CrawlResult) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, result)
	w.writeSiteFacts(&sb, result)
	w.writeStats(&sb, result)
	w.writeGraphFindings(&sb, result)
	w.writePages(&sb, result)
	w.writeErrors(&sb, result)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report header with crawl information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, result *model.CrawlResult) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                         SITEGRAPH REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Site:           %s\n", result.StartURL))
	sb.WriteString(fmt.Sprintf("Crawl Date:     %s\n", result.StartedAt.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Pages Crawled:  %d\n", result.TotalPages))

	if result.TimedOut {
		sb.WriteString("Status:         TIMED OUT (partial results)\n")
	} else {
		sb.WriteString("Status:         Complete\n")
	}

	sb.WriteString("\n")
}

// writeSiteFacts writes the site probe findings.
func (w *SimpleWriter) writeSiteFacts(sb *strings.Builder, result *model.CrawlResult) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("SITE FACTS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("  robots.txt:   %s\n", presenceText(result.RobotsFound)))
	sb.WriteString(fmt.Sprintf("  sitemap:      %s\n", presenceText(result.SitemapFound)))
	sb.WriteString("\n")
}

// writeStats writes the aggregate statistics section.
func (w *SimpleWriter) writeStats(sb *strings.Builder, result *model.CrawlResult) {
	stats := statsOf(result)

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("CRAWL SUMMARY\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("  SUCCESSFUL: %d\n", stats.SuccessfulPages))
	sb.WriteString(fmt.Sprintf("  BROKEN:     %d\n", stats.BrokenPages))
	sb.WriteString(fmt.Sprintf("  REDIRECTED: %d\n", stats.RedirectedPages))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("  Internal links: %d\n", stats.InternalLinks))
	sb.WriteString(fmt.Sprintf("  External links: %d\n", stats.ExternalLinks))
	sb.WriteString(fmt.Sprintf("  Avg load time:  %s\n", stats.AverageLoadTime))
	sb.WriteString("\n")
}

// writeGraphFindings writes orphan pages and dangling references.
func (w *SimpleWriter) writeGraphFindings(sb *strings.Builder, result *model.CrawlResult) {
	if result.Graph == nil {
		return
	}
	graph := result.Graph

	if len(graph.OrphanPages) == 0 && len(graph.Dangling) == 0 && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("LINK GRAPH FINDINGS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("[!] Orphan pages (no internal links pointing at them): %d\n", len(graph.OrphanPages)))
	for _, url := range graph.OrphanPages {
		sb.WriteString(fmt.Sprintf("  * %s\n", url))
	}
	sb.WriteString("\n")

	sb.WriteString(fmt.Sprintf("[!] Dangling references (linked but never crawled): %d\n", len(graph.Dangling)))
	for _, ref := range graph.Dangling {
		sb.WriteString(fmt.Sprintf("  * %s (referenced %d time(s))\n", ref.URL, ref.IncomingLinks))
	}
	sb.WriteString("\n")
}

// writePages writes the per-page listing.
func (w *SimpleWriter) writePages(sb *strings.Builder, result *model.CrawlResult) {
	if len(result.Pages) == 0 && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("PAGES\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	for _, page := range result.Pages {
		sb.WriteString(fmt.Sprintf("  [%d] %s\n", page.StatusCode, page.URL))
		if page.Title != "" {
			sb.WriteString(fmt.Sprintf("      Title: %s\n", page.Title))
		}
		if len(page.Issues) > 0 {
			sb.WriteString(fmt.Sprintf("      Issues: %s\n", joinIssues(page.Issues)))
		}
		if w.verbose {
			sb.WriteString(fmt.Sprintf("      Depth: %d, Links: %d internal / %d external, Words: %d\n",
				page.Depth, page.InternalLinkCount, page.ExternalLinkCount, page.WordCount))
		}
	}
	sb.WriteString("\n")
}

// writeErrors writes the non-fatal errors accumulated during the run.
func (w *SimpleWriter) writeErrors(sb *strings.Builder, result *model.CrawlResult) {
	if len(result.Errors) == 0 && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("ERRORS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if len(result.Errors) == 0 {
		sb.WriteString("  No errors\n")
	} else {
		for _, e := range result.Errors {
			sb.WriteString(fmt.Sprintf("  * %s\n", e))
		}
	}
	sb.WriteString("\n")
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by sitegraph\n")
	sb.WriteString("https://github.com/abdullahbaluch/sitegraph\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}

// presenceText renders a probe finding.
func presenceText(found bool) string {
	if found {
		return "found"
	}
	return "not found"
}

// joinIssues renders a page's issue list as a comma-separated string.
func joinIssues(issues []model.Issue) string {
	parts := make([]string, len(issues))
	for i, issue := range issues {
		parts[i] = string(issue)
	}
	return strings.Join(parts, ", ")
}
