package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/abdullahbaluch/sitegraph/internal/model"
)

// MarkdownWriter outputs crawl results in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the full crawl result in Markdown format.
func (w *MarkdownWriter) Write(result *model.CrawlResult) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, result)
	w.writeSummary(md, result)
	w.writeGraphFindings(md, result)
	w.writePages(md, result)
	w.writeErrors(md, result)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with crawl information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, result *model.CrawlResult) {
	md.H1("Sitegraph Report")
	md.PlainText("")

	// Basic info table
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Site", "`" + result.StartURL + "`"},
			{"Crawl Date", result.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Pages Crawled", strconv.Itoa(result.TotalPages)},
			{"robots.txt", presenceText(result.RobotsFound)},
			{"Sitemap", presenceText(result.SitemapFound)},
			{"Status", w.getStatusText(result)},
		},
	})
	md.PlainText("")
}

// getStatusText returns the status text based on result state.
func (w *MarkdownWriter) getStatusText(result *model.CrawlResult) string {
	if result.TimedOut {
		return "⚠️ Timed Out (partial results)"
	}
	return "✅ Complete"
}

// writeSummary writes the page status summary section.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, result *model.CrawlResult) {
	stats := statsOf(result)

	md.H2("Crawl Summary")
	md.PlainText("")

	// Summary table
	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Count"},
		Rows: [][]string{
			{"🟢 Successful", strconv.Itoa(stats.SuccessfulPages)},
			{"🔴 Broken", strconv.Itoa(stats.BrokenPages)},
			{"🟡 Redirected", strconv.Itoa(stats.RedirectedPages)},
			{"Internal links", strconv.Itoa(stats.InternalLinks)},
			{"External links", strconv.Itoa(stats.ExternalLinks)},
			{"Avg load time", stats.AverageLoadTime.String()},
			{"**Total pages**", "**" + strconv.Itoa(stats.TotalPages) + "**"},
		},
	})
	md.PlainText("")

	// Add pie chart if any pages were crawled
	if stats.TotalPages > 0 {
		w.writePieChart(md, stats)
	}

	// Add alert based on findings
	w.writeAlert(md, result, stats)
}

// writePieChart writes a mermaid pie chart for page status distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, stats *model.CrawlStats) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Page Status Distribution"),
		piechart.WithShowData(true),
	)

	if stats.SuccessfulPages > 0 {
		chart.LabelAndIntValue("Successful", uint64(stats.SuccessfulPages))
	}
	if stats.BrokenPages > 0 {
		chart.LabelAndIntValue("Broken", uint64(stats.BrokenPages))
	}
	if stats.RedirectedPages > 0 {
		chart.LabelAndIntValue("Redirected", uint64(stats.RedirectedPages))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an appropriate alert based on graph and page findings.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, result *model.CrawlResult, stats *model.CrawlStats) {
	orphans := 0
	dangling := 0
	if result.Graph != nil {
		orphans = len(result.Graph.OrphanPages)
		dangling = len(result.Graph.Dangling)
	}

	switch {
	case stats.BrokenPages > 0:
		md.Cautionf(
			"Broken pages detected! %d page(s) returned 4xx/5xx status codes.",
			stats.BrokenPages,
		)
	case dangling > 0:
		md.Warningf(
			"Dangling references found. %d internal URL(s) are linked but were never crawled.",
			dangling,
		)
	case orphans > 0:
		md.Importantf(
			"Orphan pages found. %d page(s) have no internal links pointing at them.",
			orphans,
		)
	case len(result.Errors) > 0:
		md.Note("Some pages could not be fetched. See the errors section below.")
	default:
		md.Tip("No link structure issues detected.")
	}
	md.PlainText("")
}

// writeGraphFindings writes the orphan and dangling reference sections.
func (w *MarkdownWriter) writeGraphFindings(md *markdown.Markdown, result *model.CrawlResult) {
	if result.Graph == nil {
		return
	}
	graph := result.Graph

	md.H2("Link Graph")
	md.PlainText("")
	md.PlainTextf("%d node(s), %d edge(s).", len(graph.Nodes), len(graph.Edges))
	md.PlainText("")

	md.PlainText("### Orphan Pages")
	md.PlainText("")
	if len(graph.OrphanPages) == 0 {
		md.PlainText("No orphan pages.")
		md.PlainText("")
	} else {
		md.BulletList(graph.OrphanPages...)
		md.PlainText("")
	}

	md.PlainText("### Dangling References")
	md.PlainText("")
	if len(graph.Dangling) == 0 {
		md.PlainText("No dangling references.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(graph.Dangling))
	for i, ref := range graph.Dangling {
		rows[i] = []string{
			truncateString(ref.URL, 60),
			strconv.Itoa(ref.IncomingLinks),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"URL", "Incoming Links"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writePages writes a table of crawled pages with their issues.
func (w *MarkdownWriter) writePages(md *markdown.Markdown, result *model.CrawlResult) {
	md.H2("Pages")
	md.PlainText("")

	if len(result.Pages) == 0 {
		md.PlainText("No pages crawled.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(result.Pages))
	for i, page := range result.Pages {
		title := page.Title
		if title == "" {
			title = "-"
		}
		issues := joinIssues(page.Issues)
		if issues == "" {
			issues = "-"
		}

		rows[i] = []string{
			strconv.Itoa(page.StatusCode),
			truncateString(page.URL, 50),
			truncateString(title, 40),
			strconv.Itoa(page.Depth),
			truncateString(issues, 60),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Status", "URL", "Title", "Depth", "Issues"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeErrors writes the non-fatal errors accumulated during the run.
func (w *MarkdownWriter) writeErrors(md *markdown.Markdown, result *model.CrawlResult) {
	if len(result.Errors) == 0 {
		return
	}

	md.H2("Errors")
	md.PlainText("")
	md.BulletList(result.Errors...)
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [sitegraph](https://github.com/abdullahbaluch/sitegraph)*")
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
