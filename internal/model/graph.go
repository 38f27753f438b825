package model

// EdgeType classifies a link edge by its target host.
type EdgeType string

// Edge types.
const (
	// EdgeInternal marks an edge whose target is on the crawl's site host.
	EdgeInternal EdgeType = "internal"

	// EdgeExternal marks an edge whose target is on a different host.
	EdgeExternal EdgeType = "external"
)

// LinkEdge is one directed link from a crawled page to a target URL.
// Edges are emitted once per unique target per source page; the anchor text
// is the first one seen in document order.
type LinkEdge struct {
	// Source is the normalized URL of the page the link was found on.
	Source string `json:"source"`

	// Target is the normalized URL the link points to.
	Target string `json:"target"`

	// AnchorText is the link's visible text.
	AnchorText string `json:"anchor_text,omitempty"`

	// Type is internal or external.
	Type EdgeType `json:"type"`
}

// LinkNode wraps a CrawledPage with its derived incoming-link data.
// Nodes are computed once, after traversal completes, and never mutated
// incrementally during the crawl.
type LinkNode struct {
	// Page is the underlying crawled page.
	Page *CrawledPage `json:"page"`

	// IncomingLinks counts internal edges from other crawled pages that
	// target this page. Self-links are excluded.
	IncomingLinks int `json:"incoming_links"`

	// IsOrphan is true when IncomingLinks is zero and the page is not the
	// seed. The seed is never an orphan.
	IsOrphan bool `json:"is_orphan"`
}

// DanglingRef is an internal link target that was never crawled because it
// fell outside the page, depth, or fan-out budget. Dangling targets still
// receive incoming-link tallies; dropping them silently would skew orphan
// detection.
type DanglingRef struct {
	// URL is the normalized target URL.
	URL string `json:"url"`

	// IncomingLinks counts internal edges targeting this URL.
	IncomingLinks int `json:"incoming_links"`
}

// LinkGraph is the derived site graph: one node per crawled page, one edge
// per unique (source, target) link occurrence.
type LinkGraph struct {
	// Nodes holds one entry per crawled page, keyed by final URL.
	Nodes map[string]*LinkNode `json:"nodes"`

	// Edges holds all emitted link edges.
	Edges []LinkEdge `json:"edges"`

	// OrphanPages lists the URLs of nodes flagged as orphans.
	OrphanPages []string `json:"orphan_pages,omitempty"`

	// Dangling lists internal targets referenced but not crawled.
	Dangling []DanglingRef `json:"dangling,omitempty"`
}
