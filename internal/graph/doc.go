// Package graph builds the internal link graph of a crawl.
//
// The graph is derived purely from crawled pages: nodes are the pages
// themselves, edges are the links between them. Beyond the raw structure
// the builder computes the findings reports care about: orphan pages with
// no internal links pointing at them, and dangling references to internal
// URLs that were linked but never crawled.
package graph
