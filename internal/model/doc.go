// Package model defines the data structures shared across the crawler,
// graph builder, reports, and database layers.
//
// The central type is CrawledPage, one immutable record per fetched page.
// CrawlResult is the terminal output of a crawl run and owns the page list,
// the site probe flags, the derived link graph, and aggregate statistics.
package model
