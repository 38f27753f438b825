package crawler

import "context"

// ProbeResult reports which well-known site resources exist at the crawl
// target's origin.
type ProbeResult struct {
	// RobotsFound is true when /robots.txt answered with a 2xx status.
	RobotsFound bool

	// RobotsContent is the robots.txt body when found, empty otherwise.
	// The content is surfaced for reporting only; crawl behavior does not
	// change based on it.
	RobotsContent string

	// SitemapFound is true when /sitemap.xml or /sitemap_index.xml
	// answered with a 2xx status.
	SitemapFound bool
}

// ProbeSite checks the origin of the given URL for robots.txt and sitemap
// files. Fetch errors and non-2xx answers both count as absence; a probe
// never fails the run.
func ProbeSite(ctx context.Context, fetcher Fetcher, rawURL string) ProbeResult {
	var probe ProbeResult

	origin := Origin(rawURL)
	if origin == "" {
		return probe
	}

	if res, err := fetcher.Fetch(ctx, origin+"/robots.txt"); err == nil && is2xx(res.StatusCode) {
		probe.RobotsFound = true
		probe.RobotsContent = res.HTML
	}

	for _, path := range []string{"/sitemap.xml", "/sitemap_index.xml"} {
		if res, err := fetcher.Fetch(ctx, origin+path); err == nil && is2xx(res.StatusCode) {
			probe.SitemapFound = true
			break
		}
	}

	return probe
}

func is2xx(code int) bool {
	return code >= 200 && code < 300
}
