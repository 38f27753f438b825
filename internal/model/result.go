package model

import "time"

// CrawlResult is the terminal, immutable output of one crawl run.
// Pages appear in crawl order (fetch-completion order under parallel
// fetching), not URL order. Errors holds the non-fatal failures accumulated
// during the run; a partial result with errors is the normal outcome of a
// crawl against an imperfect site.
type CrawlResult struct {
	// StartURL is the normalized seed URL.
	StartURL string `json:"start_url"`

	// Pages holds every successfully fetched page.
	Pages []*CrawledPage `json:"pages"`

	// RobotsFound reports whether /robots.txt exists at the site root.
	RobotsFound bool `json:"robots_found"`

	// RobotsContent is the raw robots.txt body when present.
	// It is captured for reporting only; directives are not enforced.
	RobotsContent string `json:"robots_content,omitempty"`

	// SitemapFound reports whether /sitemap.xml or /sitemap_index.xml
	// exists at the site root.
	SitemapFound bool `json:"sitemap_found"`

	// TotalPages is len(Pages), kept explicit for serialized output.
	TotalPages int `json:"total_pages"`

	// TotalLinks is the sum of unique internal and external link targets
	// across all pages.
	TotalLinks int `json:"total_links"`

	// Errors holds descriptive strings for per-page fetch failures and
	// other non-fatal problems.
	Errors []string `json:"errors,omitempty"`

	// Graph is the derived link graph, filled after traversal completes.
	Graph *LinkGraph `json:"graph,omitempty"`

	// Stats holds aggregate statistics, filled after traversal completes.
	Stats *CrawlStats `json:"stats,omitempty"`

	// StartedAt and FinishedAt bound the run.
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// PerformedSteps lists the pipeline steps that ran, in order.
	PerformedSteps []string `json:"performed_steps,omitempty"`

	// TimedOut reports whether the run was cut short by cancellation or
	// deadline. A timed-out result still carries the pages collected so far.
	TimedOut bool `json:"timed_out,omitempty"`
}

// NewCrawlResult creates an empty result for the given seed URL.
func NewCrawlResult(startURL string) *CrawlResult {
	return &CrawlResult{
		StartURL:  startURL,
		Pages:     make([]*CrawledPage, 0),
		Errors:    make([]string, 0),
		StartedAt: time.Now().UTC(),
	}
}

// Finalize recomputes the derived totals from the page list and stamps the
// finish time. Call it once, when traversal is done.
func (r *CrawlResult) Finalize() {
	r.TotalPages = len(r.Pages)
	r.TotalLinks = 0
	for _, p := range r.Pages {
		r.TotalLinks += p.InternalLinkCount + p.ExternalLinkCount
	}
	r.FinishedAt = time.Now().UTC()
}

// PageByURL returns the crawled page whose requested or final URL matches,
// or nil when the URL was never crawled.
func (r *CrawlResult) PageByURL(url string) *CrawledPage {
	for _, p := range r.Pages {
		if p.RequestedURL == url || p.URL == url {
			return p
		}
	}
	return nil
}
