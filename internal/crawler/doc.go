// Package crawler implements the site traversal engine.
//
// # Architecture
//
// The package is designed around the Scheduler type, which owns all per-run
// state: the frontier of pending visits, the visited set, the page budget,
// and the accumulated pages and errors. A bounded pool of workers pulls
// entries from the frontier, fetches them through the injected Fetcher, and
// feeds newly discovered internal links back in.
//
// Design decision: network access goes through the narrow Fetcher interface
// rather than a concrete HTTP client because:
//  1. Tests can drive the whole engine with an in-memory fetcher
//  2. The traversal logic stays free of transport concerns
//  3. Redirect and timeout policy live in one place (HTTPFetcher)
//
// # Components
//
//   - Normalize: URL canonicalization used for all deduplication
//   - Fetcher / HTTPFetcher: the page retrieval collaborator
//   - ParsePage: pure HTML fact extraction (golang.org/x/net/html)
//   - Classify: internal/external partition of a page's links
//   - Scheduler: the frontier state machine and worker pool
//   - ProbeSite: robots.txt / sitemap.xml existence checks
//
// # Bounds
//
// Traversal always terminates: the visited set strictly grows, and the page
// count, depth ceiling, and per-page fan-out cap are all finite. Sites with
// cyclic links, redirect loops, or infinite link mazes exhaust a budget
// instead of hanging the run.
//
// # Usage
//
//	fetcher := crawler.NewHTTPFetcher(http.DefaultClient)
//	sched := crawler.NewScheduler(fetcher, crawler.WithMaxPages(50))
//	result, err := sched.Crawl(ctx, "https://example.com/")
package crawler
