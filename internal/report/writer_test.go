package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/abdullahbaluch/sitegraph/internal/model"
)

// createTestResult creates a crawl result with sample data for testing.
func createTestResult() *model.CrawlResult {
	result := model.NewCrawlResult("https://example.com/")
	result.RobotsFound = true
	result.SitemapFound = false

	result.Pages = append(result.Pages, &model.CrawledPage{
		URL:               "https://example.com/",
		RequestedURL:      "https://example.com/",
		Title:             "Example Home",
		StatusCode:        200,
		Depth:             0,
		MetaDescription:   "The example home page",
		H1Count:           1,
		WordCount:         500,
		InternalLinkCount: 2,
		ExternalLinkCount: 1,
		LoadTime:          120 * time.Millisecond,
		CrawledAt:         time.Now().UTC(),
		OutgoingLinks: []model.Link{
			{URL: "https://example.com/about", Text: "About", Internal: true},
			{URL: "https://example.com/missing", Text: "Missing", Internal: true},
			{URL: "https://other.example.org/", Text: "Other", Internal: false},
		},
	})
	result.Pages = append(result.Pages, &model.CrawledPage{
		URL:          "https://example.com/about",
		RequestedURL: "https://example.com/about",
		Title:        "About",
		StatusCode:   404,
		Depth:        1,
		ParentURL:    "https://example.com/",
		LoadTime:     80 * time.Millisecond,
		CrawledAt:    time.Now().UTC(),
		Issues:       []model.Issue{model.IssueMissingDescription, model.IssueThinContent},
	})

	result.Graph = &model.LinkGraph{
		Nodes: map[string]*model.LinkNode{
			"https://example.com/":      {Page: result.Pages[0], IncomingLinks: 0},
			"https://example.com/about": {Page: result.Pages[1], IncomingLinks: 1},
		},
		Edges: []model.LinkEdge{
			{Source: "https://example.com/", Target: "https://example.com/about", AnchorText: "About", Type: model.EdgeInternal},
			{Source: "https://example.com/", Target: "https://other.example.org/", AnchorText: "Other", Type: model.EdgeExternal},
		},
		OrphanPages: []string{},
		Dangling: []model.DanglingRef{
			{URL: "https://example.com/missing", IncomingLinks: 1},
		},
	}

	result.Finalize()

	return result
}

// TestSimpleWriter tests the human-readable report writer.
func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes report header", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)
		result := createTestResult()

		_, err := w.Write(result)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "SITEGRAPH REPORT") {
			t.Error("expected output to contain header")
		}
		if !strings.Contains(output, "https://example.com/") {
			t.Error("expected output to contain the site URL")
		}
	})

	t.Run("writes site facts", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)
		result := createTestResult()

		_, err := w.Write(result)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "SITE FACTS") {
			t.Error("expected output to contain site facts section")
		}
		if !strings.Contains(output, "robots.txt:   found") {
			t.Error("expected output to report robots.txt as found")
		}
		if !strings.Contains(output, "sitemap:      not found") {
			t.Error("expected output to report sitemap as not found")
		}
	})

	t.Run("writes crawl summary", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)
		result := createTestResult()

		_, err := w.Write(result)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "CRAWL SUMMARY") {
			t.Error("expected output to contain crawl summary")
		}
		if !strings.Contains(output, "SUCCESSFUL: 1") {
			t.Error("expected output to contain successful count")
		}
		if !strings.Contains(output, "BROKEN:     1") {
			t.Error("expected output to contain broken count")
		}
	})

	t.Run("writes graph findings", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)
		result := createTestResult()

		_, err := w.Write(result)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "LINK GRAPH FINDINGS") {
			t.Error("expected output to contain graph findings section")
		}
		if !strings.Contains(output, "https://example.com/missing") {
			t.Error("expected output to contain dangling reference URL")
		}
	})

	t.Run("writes page issues", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)
		result := createTestResult()

		_, err := w.Write(result)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "missing-description") {
			t.Error("expected output to contain page issue")
		}
	})

	t.Run("verbose mode includes link counts", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf, WithVerbose(true))
		result := createTestResult()

		_, err := w.Write(result)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "Depth:") {
			t.Error("expected verbose output to contain depth")
		}
	})

	t.Run("handles timed out result", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)
		result := createTestResult()
		result.TimedOut = true

		_, err := w.Write(result)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "TIMED OUT") {
			t.Error("expected output to indicate timeout")
		}
	})

	t.Run("shows empty sections with showEmpty", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf, WithShowEmpty(true))
		result := model.NewCrawlResult("https://empty.example.com/")
		result.Finalize()

		_, err := w.Write(result)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "ERRORS") {
			t.Error("expected errors section with showEmpty")
		}
		if !strings.Contains(output, "No errors") {
			t.Error("expected 'No errors' message with showEmpty")
		}
	})

	t.Run("hides empty sections without showEmpty", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)
		result := model.NewCrawlResult("https://empty.example.com/")
		result.Finalize()

		_, err := w.Write(result)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if strings.Contains(output, "No errors") {
			t.Error("should not show empty errors section without showEmpty")
		}
	})
}

// TestJSONWriter tests the JSON report writer.
func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("outputs valid JSON", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf)
		result := createTestResult()

		_, err := w.Write(result)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		// Verify it's valid JSON
		var parsed model.CrawlResult
		if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}

		if parsed.StartURL != "https://example.com/" {
			t.Errorf("expected start URL %q, got %q",
				"https://example.com/", parsed.StartURL)
		}
		if parsed.TotalPages != 2 {
			t.Errorf("expected 2 total pages, got %d", parsed.TotalPages)
		}
	})

	t.Run("compact output by default", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf)
		result := createTestResult()

		_, err := w.Write(result)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		// Compact JSON should be on fewer lines
		lines := strings.Split(strings.TrimSpace(output), "\n")
		if len(lines) > 1 {
			t.Errorf("expected compact output (1 line), got %d lines", len(lines))
		}
	})

	t.Run("pretty print with indent", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf, WithPrettyPrint())
		result := createTestResult()

		_, err := w.Write(result)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		// Pretty printed JSON should have multiple lines
		lines := strings.Split(strings.TrimSpace(output), "\n")
		if len(lines) < 5 {
			t.Errorf("expected multi-line output, got %d lines", len(lines))
		}
	})

	t.Run("fills stats when missing", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf)
		result := createTestResult()
		result.Stats = nil

		_, err := w.Write(result)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var parsed model.CrawlResult
		if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if parsed.Stats == nil {
			t.Fatal("expected stats to be filled in")
		}
		if parsed.Stats.BrokenPages != 1 {
			t.Errorf("expected 1 broken page in stats, got %d", parsed.Stats.BrokenPages)
		}
	})
}

// TestFullJSONWriter tests the full JSON writer with metadata.
func TestFullJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("includes version in output", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewFullJSONWriter(&buf, "1.0.0", WithPrettyPrint())
		result := createTestResult()

		_, err := w.Write(result)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var parsed JSONReport
		if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}

		if parsed.Version != "1.0.0" {
			t.Errorf("expected version %q, got %q", "1.0.0", parsed.Version)
		}
		if parsed.Result == nil {
			t.Fatal("expected wrapped result in output")
		}
	})
}

// TestMultiWriter tests writing to multiple outputs.
func TestMultiWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes to all writers", func(t *testing.T) {
		t.Parallel()

		var buf1, buf2 bytes.Buffer
		w1 := NewSimpleWriter(&buf1)
		w2 := NewJSONWriter(&buf2)

		multi := NewMultiWriter(w1, w2)
		result := createTestResult()

		_, err := multi.Write(result)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		// Check both buffers have content
		if buf1.Len() == 0 {
			t.Error("expected buf1 to have content")
		}
		if buf2.Len() == 0 {
			t.Error("expected buf2 to have content")
		}

		// Verify formats are different
		if strings.HasPrefix(strings.TrimSpace(buf1.String()), "{") {
			t.Error("expected buf1 (simple) to not be JSON")
		}
		if !strings.HasPrefix(strings.TrimSpace(buf2.String()), "{") {
			t.Error("expected buf2 (JSON) to contain JSON")
		}
	})

	t.Run("handles empty writers list", func(t *testing.T) {
		t.Parallel()

		multi := NewMultiWriter()
		result := createTestResult()

		n, err := multi.Write(result)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != 0 {
			t.Errorf("expected 0 bytes written for empty writers, got %d", n)
		}
	})
}

// TestWithIndent tests the WithIndent JSON option.
func TestWithIndent(t *testing.T) {
	t.Parallel()

	t.Run("uses custom prefix and indent", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf, WithIndent(">>", "\t"))
		result := createTestResult()

		_, err := w.Write(result)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		// Should have multiple lines with custom formatting
		lines := strings.Split(strings.TrimSpace(output), "\n")
		if len(lines) < 5 {
			t.Errorf("expected multi-line output, got %d lines", len(lines))
		}
		// Check that prefix is used
		if !strings.Contains(output, ">>") {
			t.Error("expected custom prefix '>>' in output")
		}
		// Check that tab indent is used
		if !strings.Contains(output, "\t") {
			t.Error("expected tab indentation in output")
		}
	})

	t.Run("uses empty prefix with space indent", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf, WithIndent("", "    "))
		result := createTestResult()

		_, err := w.Write(result)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		// Should have 4-space indentation
		if !strings.Contains(output, "    ") {
			t.Error("expected 4-space indentation in output")
		}
	})
}

// TestMarkdownWriter tests the Markdown report writer.
func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes report header", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)
		result := createTestResult()

		_, err := w.Write(result)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "# Sitegraph Report") {
			t.Error("expected output to contain H1 header")
		}
		if !strings.Contains(output, "https://example.com/") {
			t.Error("expected output to contain the site URL")
		}
	})

	t.Run("writes crawl summary", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)
		result := createTestResult()

		_, err := w.Write(result)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "## Crawl Summary") {
			t.Error("expected output to contain crawl summary header")
		}
		if !strings.Contains(output, "🔴 Broken") {
			t.Error("expected output to contain broken page indicator")
		}
	})

	t.Run("writes pages table", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)
		result := createTestResult()

		_, err := w.Write(result)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "## Pages") {
			t.Error("expected output to contain pages header")
		}
		if !strings.Contains(output, "Example Home") {
			t.Error("expected output to contain page title")
		}
	})

	t.Run("writes link graph section", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)
		result := createTestResult()

		_, err := w.Write(result)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "## Link Graph") {
			t.Error("expected output to contain link graph header")
		}
		if !strings.Contains(output, "Dangling References") {
			t.Error("expected output to contain dangling references section")
		}
		if !strings.Contains(output, "https://example.com/missing") {
			t.Error("expected output to contain dangling reference URL")
		}
	})

	t.Run("handles timed out result", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)
		result := createTestResult()
		result.TimedOut = true

		_, err := w.Write(result)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "Timed Out") {
			t.Error("expected output to indicate timeout")
		}
	})

	t.Run("includes GitHub alert for broken pages", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)
		result := createTestResult()

		_, err := w.Write(result)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "[!CAUTION]") {
			t.Error("expected output to contain CAUTION alert for broken pages")
		}
	})

	t.Run("includes pie chart", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)
		result := createTestResult()

		_, err := w.Write(result)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "pie") {
			t.Error("expected output to contain mermaid pie chart")
		}
	})

	t.Run("handles clean result", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)
		result := model.NewCrawlResult("https://clean.example.com/")
		result.Pages = append(result.Pages, &model.CrawledPage{
			URL:          "https://clean.example.com/",
			RequestedURL: "https://clean.example.com/",
			Title:        "Clean",
			StatusCode:   200,
		})
		result.Graph = &model.LinkGraph{
			Nodes: map[string]*model.LinkNode{
				"https://clean.example.com/": {Page: result.Pages[0]},
			},
			OrphanPages: []string{},
		}
		result.Finalize()

		_, err := w.Write(result)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "[!TIP]") {
			t.Error("expected TIP alert for clean result")
		}
		if !strings.Contains(output, "No orphan pages") {
			t.Error("expected message about no orphan pages")
		}
	})

	t.Run("handles result with no pages", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)
		result := model.NewCrawlResult("https://empty.example.com/")
		result.Errors = append(result.Errors, "fetch https://empty.example.com/: connection refused")
		result.Finalize()

		_, err := w.Write(result)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "No pages crawled") {
			t.Error("expected message about no pages")
		}
		if !strings.Contains(output, "connection refused") {
			t.Error("expected error message in output")
		}
	})

	t.Run("writes footer with link", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)
		result := createTestResult()

		_, err := w.Write(result)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "https://github.com/abdullahbaluch/sitegraph") {
			t.Error("expected footer with repository link")
		}
	})
}

// TestTruncateString tests the string truncation helper.
func TestTruncateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		maxLen   int
		expected string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is a longer string", 10, "this is..."},
		{"abc", 3, "abc"},
		{"abcd", 3, "abc"},
		{"ab", 5, "ab"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			result := truncateString(tt.input, tt.maxLen)
			if result != tt.expected {
				t.Errorf("truncateString(%q, %d) = %q, want %q",
					tt.input, tt.maxLen, result, tt.expected)
			}
		})
	}
}
