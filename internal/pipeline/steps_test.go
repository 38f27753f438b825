package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/abdullahbaluch/sitegraph/internal/crawler"
	"github.com/abdullahbaluch/sitegraph/internal/model"
)

// fakeFetcher is a test double for crawler.Fetcher backed by a URL map.
// URLs absent from the map fail with a connection error.
type fakeFetcher struct {
	pages map[string]fakePage
}

// fakePage is one canned response.
type fakePage struct {
	html   string
	status int
}

// Fetch implements crawler.Fetcher.
func (f *fakeFetcher) Fetch(_ context.Context, url string) (*crawler.FetchResult, error) {
	page, ok := f.pages[url]
	if !ok {
		return nil, &crawler.FetchError{
			Kind: crawler.FetchConnectionFailed,
			URL:  url,
			Err:  errors.New("no such host"),
		}
	}
	status := page.status
	if status == 0 {
		status = 200
	}
	return &crawler.FetchResult{
		HTML:       page.html,
		FinalURL:   url,
		StatusCode: status,
	}, nil
}

// newSiteFetcher returns a fetcher serving a small three-page site with a
// robots.txt and a sitemap at the root.
func newSiteFetcher() *fakeFetcher {
	return &fakeFetcher{pages: map[string]fakePage{
		"https://example.com/robots.txt":  {html: "User-agent: *\nAllow: /\n"},
		"https://example.com/sitemap.xml": {html: "<urlset></urlset>"},
		"https://example.com/": {html: `<html><head><title>Home</title></head><body>
			<h1>Home</h1>
			<a href="/about">About</a>
			<a href="/contact">Contact</a>
			</body></html>`},
		"https://example.com/about": {html: `<html><head><title>About</title></head><body>
			<h1>About</h1>
			<a href="/">Home</a>
			</body></html>`},
		"https://example.com/contact": {html: `<html><head><title>Contact</title></head><body>
			<h1>Contact</h1>
			</body></html>`},
	}}
}

// TestNewProbeStep tests the ProbeStep constructor.
func TestNewProbeStep(t *testing.T) {
	t.Parallel()

	t.Run("creates with defaults", func(t *testing.T) {
		t.Parallel()

		step := NewProbeStep(&fakeFetcher{})

		if step.fetcher == nil {
			t.Error("expected non-nil fetcher")
		}
		if step.logger == nil {
			t.Error("expected non-nil logger")
		}
	})

	t.Run("applies WithProbeLogger", func(t *testing.T) {
		t.Parallel()

		logger := slog.Default()
		step := NewProbeStep(&fakeFetcher{}, WithProbeLogger(logger))

		if step.logger != logger {
			t.Error("expected custom logger")
		}
	})

	t.Run("Name returns correct value", func(t *testing.T) {
		t.Parallel()

		step := NewProbeStep(&fakeFetcher{})

		if step.Name() != "probe" {
			t.Errorf("expected name 'probe', got %q", step.Name())
		}
	})
}

// TestProbeStepDo tests probe execution against a fake site.
func TestProbeStepDo(t *testing.T) {
	t.Parallel()

	t.Run("records robots and sitemap findings", func(t *testing.T) {
		t.Parallel()

		step := NewProbeStep(newSiteFetcher())
		result := model.NewCrawlResult("https://example.com/")

		if err := step.Do(context.Background(), result); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.RobotsFound {
			t.Error("expected robots.txt to be found")
		}
		if result.RobotsContent == "" {
			t.Error("expected robots.txt content to be captured")
		}
		if !result.SitemapFound {
			t.Error("expected sitemap to be found")
		}
	})

	t.Run("absence is not an error", func(t *testing.T) {
		t.Parallel()

		step := NewProbeStep(&fakeFetcher{pages: map[string]fakePage{}})
		result := model.NewCrawlResult("https://example.com/")

		if err := step.Do(context.Background(), result); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.RobotsFound || result.SitemapFound {
			t.Error("expected nothing to be found on an empty site")
		}
	})
}

// TestNewCrawlStep tests the CrawlStep constructor.
func TestNewCrawlStep(t *testing.T) {
	t.Parallel()

	t.Run("creates with defaults", func(t *testing.T) {
		t.Parallel()

		step := NewCrawlStep(&fakeFetcher{})

		if step.maxDepth != 3 {
			t.Errorf("expected default maxDepth 3, got %d", step.maxDepth)
		}
		if step.maxPages != 20 {
			t.Errorf("expected default maxPages 20, got %d", step.maxPages)
		}
		if step.fanOut != 10 {
			t.Errorf("expected default fanOut 10, got %d", step.fanOut)
		}
		if step.workers != 4 {
			t.Errorf("expected default workers 4, got %d", step.workers)
		}
	})

	t.Run("applies options", func(t *testing.T) {
		t.Parallel()

		step := NewCrawlStep(&fakeFetcher{},
			WithCrawlMaxDepth(2),
			WithCrawlMaxPages(50),
			WithCrawlFanOut(5),
			WithCrawlWorkers(8),
		)

		if step.maxDepth != 2 {
			t.Errorf("expected maxDepth 2, got %d", step.maxDepth)
		}
		if step.maxPages != 50 {
			t.Errorf("expected maxPages 50, got %d", step.maxPages)
		}
		if step.fanOut != 5 {
			t.Errorf("expected fanOut 5, got %d", step.fanOut)
		}
		if step.workers != 8 {
			t.Errorf("expected workers 8, got %d", step.workers)
		}
	})

	t.Run("Name returns correct value", func(t *testing.T) {
		t.Parallel()

		step := NewCrawlStep(&fakeFetcher{})

		if step.Name() != "crawl" {
			t.Errorf("expected name 'crawl', got %q", step.Name())
		}
	})
}

// TestCrawlStepDo tests crawl execution against a fake site.
func TestCrawlStepDo(t *testing.T) {
	t.Parallel()

	t.Run("crawls reachable pages", func(t *testing.T) {
		t.Parallel()

		step := NewCrawlStep(newSiteFetcher(), WithCrawlWorkers(1))
		result := model.NewCrawlResult("https://example.com/")

		if err := step.Do(context.Background(), result); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.TotalPages != 3 {
			t.Errorf("expected 3 pages, got %d", result.TotalPages)
		}
		if result.PageByURL("https://example.com/about") == nil {
			t.Error("expected /about to be crawled")
		}
	})

	t.Run("rejects unparseable seed", func(t *testing.T) {
		t.Parallel()

		step := NewCrawlStep(newSiteFetcher())
		result := model.NewCrawlResult("not a url")

		err := step.Do(context.Background(), result)
		if !errors.Is(err, crawler.ErrInvalidSeed) {
			t.Errorf("expected ErrInvalidSeed, got %v", err)
		}
	})

	t.Run("records fetch failures without failing the step", func(t *testing.T) {
		t.Parallel()

		fetcher := newSiteFetcher()
		delete(fetcher.pages, "https://example.com/contact")

		step := NewCrawlStep(fetcher, WithCrawlWorkers(1))
		result := model.NewCrawlResult("https://example.com/")

		if err := step.Do(context.Background(), result); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.TotalPages != 2 {
			t.Errorf("expected 2 pages, got %d", result.TotalPages)
		}
		if len(result.Errors) != 1 {
			t.Errorf("expected 1 recorded error, got %v", result.Errors)
		}
	})

	t.Run("keeps partial pages on cancellation", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		step := NewCrawlStep(newSiteFetcher(), WithCrawlWorkers(1))
		result := model.NewCrawlResult("https://example.com/")

		if err := step.Do(ctx, result); err != nil {
			t.Fatalf("expected nil error on cancellation, got %v", err)
		}
		if !result.TimedOut {
			t.Error("expected result to be marked timed out")
		}
	})
}

// TestGraphStepDo tests link graph construction.
func TestGraphStepDo(t *testing.T) {
	t.Parallel()

	t.Run("Name returns correct value", func(t *testing.T) {
		t.Parallel()

		step := NewGraphStep()

		if step.Name() != "graph" {
			t.Errorf("expected name 'graph', got %q", step.Name())
		}
	})

	t.Run("builds graph after crawl", func(t *testing.T) {
		t.Parallel()

		result := model.NewCrawlResult("https://example.com/")
		crawl := NewCrawlStep(newSiteFetcher(), WithCrawlWorkers(1))
		if err := crawl.Do(context.Background(), result); err != nil {
			t.Fatalf("crawl failed: %v", err)
		}

		step := NewGraphStep()
		if err := step.Do(context.Background(), result); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Graph == nil {
			t.Fatal("expected non-nil graph")
		}
		if len(result.Graph.Nodes) != 3 {
			t.Errorf("expected 3 graph nodes, got %d", len(result.Graph.Nodes))
		}
	})

	t.Run("skips gracefully with no pages", func(t *testing.T) {
		t.Parallel()

		step := NewGraphStep()
		result := model.NewCrawlResult("https://example.com/")

		if err := step.Do(context.Background(), result); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Graph != nil {
			t.Error("expected nil graph with no pages")
		}
	})
}

// TestStatsStepDo tests statistics computation.
func TestStatsStepDo(t *testing.T) {
	t.Parallel()

	t.Run("Name returns correct value", func(t *testing.T) {
		t.Parallel()

		step := NewStatsStep()

		if step.Name() != "stats" {
			t.Errorf("expected name 'stats', got %q", step.Name())
		}
	})

	t.Run("computes stats over crawled pages", func(t *testing.T) {
		t.Parallel()

		result := model.NewCrawlResult("https://example.com/")
		result.Pages = []*model.CrawledPage{
			{URL: "https://example.com/", StatusCode: 200},
			{URL: "https://example.com/gone", StatusCode: 404},
		}

		step := NewStatsStep()
		if err := step.Do(context.Background(), result); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Stats == nil {
			t.Fatal("expected non-nil stats")
		}
		if result.Stats.TotalPages != 2 {
			t.Errorf("expected 2 total pages, got %d", result.Stats.TotalPages)
		}
		if result.Stats.SuccessfulPages != 1 {
			t.Errorf("expected 1 successful page, got %d", result.Stats.SuccessfulPages)
		}
		if result.Stats.BrokenPages != 1 {
			t.Errorf("expected 1 broken page, got %d", result.Stats.BrokenPages)
		}
	})
}

// TestSaveStepDo tests the persistence step without a database.
func TestSaveStepDo(t *testing.T) {
	t.Parallel()

	t.Run("Name returns correct value", func(t *testing.T) {
		t.Parallel()

		step := NewSaveStep(nil)

		if step.Name() != "save" {
			t.Errorf("expected name 'save', got %q", step.Name())
		}
	})

	t.Run("skips when no database configured", func(t *testing.T) {
		t.Parallel()

		step := NewSaveStep(nil)
		result := model.NewCrawlResult("https://example.com/")

		if err := step.Do(context.Background(), result); err != nil {
			t.Errorf("expected nil error with no database, got %v", err)
		}
	})
}

// TestDefaultPipeline tests the default pipeline assembly.
func TestDefaultPipeline(t *testing.T) {
	t.Parallel()

	t.Run("assembles standard steps in order", func(t *testing.T) {
		t.Parallel()

		p := DefaultPipeline(newSiteFetcher(), nil)

		names := p.StepNames()
		expected := []string{"probe", "crawl", "graph", "stats"}
		if len(names) != len(expected) {
			t.Fatalf("expected %d steps, got %v", len(expected), names)
		}
		for i, name := range expected {
			if names[i] != name {
				t.Errorf("step %d: expected %q, got %q", i, name, names[i])
			}
		}
	})

	t.Run("applies config options", func(t *testing.T) {
		t.Parallel()

		cfg := &DefaultPipelineConfig{}
		WithPipelineMaxDepth(2)(cfg)
		WithPipelineMaxPages(50)(cfg)
		WithPipelineFanOut(5)(cfg)
		WithPipelineWorkers(8)(cfg)

		if cfg.MaxDepth != 2 {
			t.Errorf("expected MaxDepth 2, got %d", cfg.MaxDepth)
		}
		if cfg.MaxPages != 50 {
			t.Errorf("expected MaxPages 50, got %d", cfg.MaxPages)
		}
		if cfg.FanOut != 5 {
			t.Errorf("expected FanOut 5, got %d", cfg.FanOut)
		}
		if cfg.Workers != 8 {
			t.Errorf("expected Workers 8, got %d", cfg.Workers)
		}
	})

	t.Run("executes end to end against a fake site", func(t *testing.T) {
		t.Parallel()

		p := DefaultPipeline(newSiteFetcher(), nil)
		result := model.NewCrawlResult("https://example.com/")

		if err := p.Execute(context.Background(), result); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.TotalPages != 3 {
			t.Errorf("expected 3 pages, got %d", result.TotalPages)
		}
		if !result.RobotsFound {
			t.Error("expected robots.txt to be found")
		}
		if result.Graph == nil {
			t.Error("expected non-nil graph")
		}
		if result.Stats == nil {
			t.Error("expected non-nil stats")
		}
	})
}
