package crawler

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// PageFacts holds everything extracted from one HTML document in a single
// parsing pass.
//
// Design decision: We return a comprehensive fact struct rather than
// exposing per-fact methods because:
//  1. A single DOM walk is cheaper than one per fact
//  2. The scheduler consumes all facts together anyway
//  3. Callers can ignore what they do not need
type PageFacts struct {
	// Title is the text of the first <title> element.
	Title string

	// MetaDescription is the content of the first <meta name="description">.
	MetaDescription string

	// HeadingCounts holds the number of h1..h6 elements; index 0 is h1.
	HeadingCounts [6]int

	// ImageCount is the number of <img> elements with a non-empty src.
	ImageCount int

	// WordCount is the visible word count: text content with script and
	// style subtrees stripped, whitespace-collapsed, split on whitespace.
	WordCount int

	// Links holds every anchor href resolved to absolute form against the
	// page URL, in document order, not yet deduplicated or classified.
	Links []RawLink
}

// RawLink is an anchor discovered during parsing, before normalization.
type RawLink struct {
	// URL is the absolute target, resolved against the page URL.
	URL string

	// Text is the anchor's visible text with whitespace collapsed.
	Text string
}

// H1Count returns the number of <h1> elements.
func (f *PageFacts) H1Count() int {
	return f.HeadingCounts[0]
}

// ParsePage extracts facts from an HTML document. It is deterministic, pure,
// and never fails: malformed HTML and absent tags degrade to empty defaults.
// x/net/html tolerates arbitrarily broken markup, which is exactly what the
// open web serves.
func ParsePage(src, pageURL string) PageFacts {
	var facts PageFacts

	base, err := url.Parse(pageURL)
	if err != nil {
		base = nil
	}

	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return facts
	}

	var words int
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.ElementNode:
			switch n.Data {
			case "script", "style":
				// Invisible to readers; skip the whole subtree.
				return
			case "title":
				if facts.Title == "" {
					facts.Title = collapseWhitespace(textContent(n))
				}
				return
			case "meta":
				if facts.MetaDescription == "" &&
					strings.EqualFold(attrValue(n, "name"), "description") {
					facts.MetaDescription = strings.TrimSpace(attrValue(n, "content"))
				}
			case "img":
				if src := strings.TrimSpace(attrValue(n, "src")); src != "" && !strings.HasPrefix(src, "data:") {
					facts.ImageCount++
				}
			case "a":
				if resolved := resolveHref(base, attrValue(n, "href")); resolved != "" {
					facts.Links = append(facts.Links, RawLink{
						URL:  resolved,
						Text: collapseWhitespace(textContent(n)),
					})
				}
			case "h1", "h2", "h3", "h4", "h5", "h6":
				facts.HeadingCounts[n.Data[1]-'1']++
			}
		case html.TextNode:
			words += len(strings.Fields(n.Data))
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	facts.WordCount = words
	return facts
}

// resolveHref resolves an anchor href against the page URL, dropping
// non-navigational schemes and bare fragments.
func resolveHref(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || href == "#" ||
		strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "data:") {
		return ""
	}

	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return u.String()
}

// textContent concatenates all text nodes beneath n.
func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// collapseWhitespace trims and collapses runs of whitespace to single
// spaces.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// attrValue retrieves an attribute value from an HTML node.
func attrValue(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
