package graph

import (
	"sort"

	"github.com/abdullahbaluch/sitegraph/internal/model"
)

// Build derives the link graph from a set of crawled pages. seedURL marks
// the traversal root, which is never reported as an orphan even with zero
// incoming links.
//
// Pages are identified by their final URL; a page's pre-redirect requested
// URL is kept as an alias so links pointing at either form resolve to the
// same node. Edges are deduplicated per source: one edge per unique target,
// keeping the first anchor text in document order. Self-links are kept as
// edges but excluded from incoming tallies, so a page linking only to
// itself still counts as an orphan.
func Build(pages []*model.CrawledPage, seedURL string) *model.LinkGraph {
	g := &model.LinkGraph{
		Nodes:       make(map[string]*model.LinkNode, len(pages)),
		Edges:       make([]model.LinkEdge, 0),
		OrphanPages: make([]string, 0),
		Dangling:    make([]model.DanglingRef, 0),
	}

	// alias maps every URL a page answers to back to its node key.
	alias := make(map[string]string, len(pages)*2)
	for _, page := range pages {
		g.Nodes[page.URL] = &model.LinkNode{Page: page}
		alias[page.URL] = page.URL
		if page.RequestedURL != "" {
			if _, taken := alias[page.RequestedURL]; !taken {
				alias[page.RequestedURL] = page.URL
			}
		}
	}

	danglingCounts := make(map[string]int)

	for _, page := range pages {
		seen := make(map[string]bool, len(page.OutgoingLinks))
		for _, link := range page.OutgoingLinks {
			if seen[link.URL] {
				continue
			}
			seen[link.URL] = true

			edgeType := model.EdgeExternal
			if link.Internal {
				edgeType = model.EdgeInternal
			}
			g.Edges = append(g.Edges, model.LinkEdge{
				Source:     page.URL,
				Target:     link.URL,
				AnchorText: link.Text,
				Type:       edgeType,
			})

			if !link.Internal {
				continue
			}

			targetKey, crawled := alias[link.URL]
			if !crawled {
				danglingCounts[link.URL]++
				continue
			}
			if targetKey == page.URL {
				continue
			}
			g.Nodes[targetKey].IncomingLinks++
		}
	}

	seedKey := seedURL
	if key, ok := alias[seedURL]; ok {
		seedKey = key
	}

	for key, node := range g.Nodes {
		if node.IncomingLinks == 0 && key != seedKey {
			node.IsOrphan = true
			g.OrphanPages = append(g.OrphanPages, key)
		}
	}
	sort.Strings(g.OrphanPages)

	for url, count := range danglingCounts {
		g.Dangling = append(g.Dangling, model.DanglingRef{URL: url, IncomingLinks: count})
	}
	sort.Slice(g.Dangling, func(i, j int) bool {
		return g.Dangling[i].URL < g.Dangling[j].URL
	})

	return g
}
