// Package main provides the entry point for the sitegraph CLI.
//
// Sitegraph crawls a website, maps its internal link structure, and reports
// structural problems such as broken pages, orphan pages, and dangling
// references.
//
// Usage:
//
//	sitegraph crawl <url>
//	sitegraph crawl site1.example.com site2.example.com
//
// See --help for all available options.
package main

// main is the entry point for sitegraph.
func main() {
	Execute()
}
