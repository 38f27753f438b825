package main

import (
	"strings"
	"testing"
	"time"

	"github.com/abdullahbaluch/sitegraph/internal/model"
)

// historyTestResult builds a crawl result with the given pages for
// comparison tests. Each entry maps a URL to its status code.
func historyTestResult(startURL string, pages map[string]int) *model.CrawlResult {
	result := model.NewCrawlResult(startURL)
	for url, status := range pages {
		result.Pages = append(result.Pages, &model.CrawledPage{
			URL:          url,
			RequestedURL: url,
			StatusCode:   status,
			CrawledAt:    time.Now().UTC(),
		})
	}
	result.Finalize()
	return result
}

// TestNewHistoryCmd tests the history command creation.
func TestNewHistoryCmd(t *testing.T) {
	t.Parallel()

	cmd := NewHistoryCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "history [site]" {
			t.Errorf("expected use 'history [site]', got %q", cmd.Use)
		}
	})

	t.Run("has short description", func(t *testing.T) {
		t.Parallel()
		if cmd.Short == "" {
			t.Error("expected non-empty short description")
		}
	})

	t.Run("has list flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("list")
		if flag == nil {
			t.Fatal("expected list flag")
		}
		if flag.Shorthand != "l" {
			t.Errorf("expected shorthand 'l', got %q", flag.Shorthand)
		}
	})

	t.Run("has list-sites flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("list-sites")
		if flag == nil {
			t.Fatal("expected list-sites flag")
		}
		if flag.Shorthand != "L" {
			t.Errorf("expected shorthand 'L', got %q", flag.Shorthand)
		}
	})

	t.Run("has with-run-id flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("with-run-id")
		if flag == nil {
			t.Fatal("expected with-run-id flag")
		}
		if flag.Shorthand != "i" {
			t.Errorf("expected shorthand 'i', got %q", flag.Shorthand)
		}
	})

	t.Run("has json flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("json")
		if flag == nil {
			t.Fatal("expected json flag")
		}
		if flag.Shorthand != "j" {
			t.Errorf("expected shorthand 'j', got %q", flag.Shorthand)
		}
	})
}

// TestCompareRuns tests the run comparison logic.
func TestCompareRuns(t *testing.T) {
	t.Parallel()

	t.Run("detects new pages", func(t *testing.T) {
		t.Parallel()

		previous := historyTestResult("https://example.com/", map[string]int{
			"https://example.com/": 200,
		})
		current := historyTestResult("https://example.com/", map[string]int{
			"https://example.com/":      200,
			"https://example.com/about": 200,
		})

		result := compareRuns(previous, current)

		if len(result.NewPages) != 1 || result.NewPages[0] != "https://example.com/about" {
			t.Errorf("expected one new page /about, got %v", result.NewPages)
		}
		if len(result.RemovedPages) != 0 {
			t.Errorf("expected no removed pages, got %v", result.RemovedPages)
		}
		if result.UnchangedCount != 1 {
			t.Errorf("expected 1 unchanged page, got %d", result.UnchangedCount)
		}
	})

	t.Run("detects removed pages", func(t *testing.T) {
		t.Parallel()

		previous := historyTestResult("https://example.com/", map[string]int{
			"https://example.com/":     200,
			"https://example.com/gone": 200,
		})
		current := historyTestResult("https://example.com/", map[string]int{
			"https://example.com/": 200,
		})

		result := compareRuns(previous, current)

		if len(result.RemovedPages) != 1 || result.RemovedPages[0] != "https://example.com/gone" {
			t.Errorf("expected one removed page /gone, got %v", result.RemovedPages)
		}
	})

	t.Run("detects status changes", func(t *testing.T) {
		t.Parallel()

		previous := historyTestResult("https://example.com/", map[string]int{
			"https://example.com/":      200,
			"https://example.com/about": 200,
		})
		current := historyTestResult("https://example.com/", map[string]int{
			"https://example.com/":      200,
			"https://example.com/about": 404,
		})

		result := compareRuns(previous, current)

		if len(result.StatusChanges) != 1 {
			t.Fatalf("expected one status change, got %v", result.StatusChanges)
		}
		change := result.StatusChanges[0]
		if change.URL != "https://example.com/about" {
			t.Errorf("expected change URL /about, got %q", change.URL)
		}
		if change.PreviousStatus != 200 || change.CurrentStatus != 404 {
			t.Errorf("expected 200 -> 404, got %d -> %d", change.PreviousStatus, change.CurrentStatus)
		}
	})

	t.Run("reports worsened health when pages break", func(t *testing.T) {
		t.Parallel()

		previous := historyTestResult("https://example.com/", map[string]int{
			"https://example.com/": 200,
		})
		current := historyTestResult("https://example.com/", map[string]int{
			"https://example.com/": 500,
		})

		result := compareRuns(previous, current)

		if result.HealthDirection != healthDirectionWorsened {
			t.Errorf("expected %q, got %q", healthDirectionWorsened, result.HealthDirection)
		}
	})

	t.Run("reports improved health when pages recover", func(t *testing.T) {
		t.Parallel()

		previous := historyTestResult("https://example.com/", map[string]int{
			"https://example.com/": 404,
		})
		current := historyTestResult("https://example.com/", map[string]int{
			"https://example.com/": 200,
		})

		result := compareRuns(previous, current)

		if result.HealthDirection != healthDirectionImproved {
			t.Errorf("expected %q, got %q", healthDirectionImproved, result.HealthDirection)
		}
	})

	t.Run("reports unchanged health for identical runs", func(t *testing.T) {
		t.Parallel()

		previous := historyTestResult("https://example.com/", map[string]int{
			"https://example.com/": 200,
		})
		current := historyTestResult("https://example.com/", map[string]int{
			"https://example.com/": 200,
		})

		result := compareRuns(previous, current)

		if result.HealthDirection != healthDirectionUnchanged {
			t.Errorf("expected %q, got %q", healthDirectionUnchanged, result.HealthDirection)
		}
		if len(result.NewPages) != 0 || len(result.RemovedPages) != 0 || len(result.StatusChanges) != 0 {
			t.Error("expected no differences for identical runs")
		}
	})

	t.Run("summarizes run metadata", func(t *testing.T) {
		t.Parallel()

		previous := historyTestResult("https://example.com/", map[string]int{
			"https://example.com/":       200,
			"https://example.com/broken": 500,
		})
		current := historyTestResult("https://example.com/", map[string]int{
			"https://example.com/": 200,
		})

		result := compareRuns(previous, current)

		if result.PreviousRun.TotalPages != 2 {
			t.Errorf("expected previous total 2, got %d", result.PreviousRun.TotalPages)
		}
		if result.PreviousRun.BrokenPages != 1 {
			t.Errorf("expected previous broken 1, got %d", result.PreviousRun.BrokenPages)
		}
		if result.CurrentRun.BrokenPages != 0 {
			t.Errorf("expected current broken 0, got %d", result.CurrentRun.BrokenPages)
		}
	})
}

// TestFormatDelta tests the delta formatting helper.
func TestFormatDelta(t *testing.T) {
	t.Parallel()

	tests := []struct {
		delta    int
		expected string
	}{
		{0, "0"},
		{3, "+3"},
		{-2, "-2"},
	}

	for _, tt := range tests {
		tt := tt
		if got := formatDelta(tt.delta); got != tt.expected {
			t.Errorf("formatDelta(%d) = %q, want %q", tt.delta, got, tt.expected)
		}
	}
}

// TestFormatProbe tests the probe finding formatter.
func TestFormatProbe(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		robots   bool
		sitemap  bool
		expected string
	}{
		{"neither", false, false, "-"},
		{"robots only", true, false, "robots"},
		{"sitemap only", false, true, "sitemap"},
		{"both", true, true, "robots+sitemap"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := formatProbe(tt.robots, tt.sitemap); got != tt.expected {
				t.Errorf("formatProbe(%v, %v) = %q, want %q", tt.robots, tt.sitemap, got, tt.expected)
			}
		})
	}
}

// TestFormatHealthDirection tests the health direction formatter.
func TestFormatHealthDirection(t *testing.T) {
	t.Parallel()

	tests := []struct {
		direction string
		contains  string
	}{
		{healthDirectionImproved, "IMPROVED"},
		{healthDirectionWorsened, "WORSENED"},
		{healthDirectionUnchanged, "UNCHANGED"},
	}

	for _, tt := range tests {
		tt := tt
		got := formatHealthDirection(tt.direction)
		if !strings.Contains(got, tt.contains) {
			t.Errorf("formatHealthDirection(%q) = %q, want it to contain %q", tt.direction, got, tt.contains)
		}
	}
}
