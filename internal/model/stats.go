package model

import "time"

// CrawlStats is a pure reduction over a run's page list.
// It carries no references back to the pages and can be serialized on its
// own.
type CrawlStats struct {
	// TotalPages is the number of pages crawled.
	TotalPages int `json:"total_pages"`

	// SuccessfulPages counts pages served with a 2xx status.
	SuccessfulPages int `json:"successful_pages"`

	// BrokenPages counts pages served with a 4xx or 5xx status.
	BrokenPages int `json:"broken_pages"`

	// RedirectedPages counts pages that were redirected, either by a 3xx
	// status or a final URL differing from the requested one.
	RedirectedPages int `json:"redirected_pages"`

	// AverageLoadTime is the mean fetch duration across all pages.
	AverageLoadTime time.Duration `json:"average_load_time_ms"`

	// InternalLinks is the sum of unique internal link targets per page.
	InternalLinks int `json:"internal_links"`

	// ExternalLinks is the sum of unique external link targets per page.
	ExternalLinks int `json:"external_links"`
}

// NewCrawlStats reduces the page list into aggregate statistics.
// It has no side effects and never fails; an empty page list yields zeroed
// stats.
func NewCrawlStats(pages []*CrawledPage) *CrawlStats {
	stats := &CrawlStats{TotalPages: len(pages)}

	var totalLoad time.Duration
	for _, p := range pages {
		switch {
		case p.IsSuccess():
			stats.SuccessfulPages++
		case p.IsBroken():
			stats.BrokenPages++
		}
		if p.IsRedirected() {
			stats.RedirectedPages++
		}
		stats.InternalLinks += p.InternalLinkCount
		stats.ExternalLinks += p.ExternalLinkCount
		totalLoad += p.LoadTime
	}

	if len(pages) > 0 {
		stats.AverageLoadTime = totalLoad / time.Duration(len(pages))
	}

	return stats
}
