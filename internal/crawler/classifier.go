package crawler

import (
	"strings"

	"github.com/abdullahbaluch/sitegraph/internal/model"
)

// ClassifiedLinks is the outcome of partitioning a page's raw links.
type ClassifiedLinks struct {
	// All holds every resolvable link in document order, normalized, with
	// its internal/external flag set. Duplicates are preserved.
	All []model.Link

	// Internal holds unique internal targets in first-occurrence order.
	Internal []model.Link

	// External holds unique external targets in first-occurrence order.
	External []model.Link
}

// Classify normalizes a page's raw links and partitions them into internal
// and external sets. A link is internal iff its normalized host equals
// siteHost exactly; there is no subdomain folding, so blog.example.com is
// external relative to example.com.
//
// Links that fail normalization are silently dropped: malformed href values
// are common on real pages and are not page-level errors. The deduplicated
// sequences keep set semantics while preserving first-occurrence order.
func Classify(links []RawLink, siteHost string) ClassifiedLinks {
	siteHost = strings.ToLower(siteHost)

	var out ClassifiedLinks
	seen := make(map[string]bool, len(links))

	for _, raw := range links {
		normalized, err := Normalize(raw.URL, "")
		if err != nil {
			continue
		}

		link := model.Link{
			URL:      normalized,
			Text:     raw.Text,
			Internal: Host(normalized) == siteHost,
		}
		out.All = append(out.All, link)

		if seen[normalized] {
			continue
		}
		seen[normalized] = true

		if link.Internal {
			out.Internal = append(out.Internal, link)
		} else {
			out.External = append(out.External, link)
		}
	}

	return out
}
