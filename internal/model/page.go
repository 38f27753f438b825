package model

import "time"

// Issue identifies a content-quality finding on a crawled page.
// Issues are advisory: they never affect traversal, only reporting.
type Issue string

// Page issues detected at page construction time.
const (
	// IssueMissingTitle means the page has no <title> text.
	IssueMissingTitle Issue = "missing-title"

	// IssueMissingDescription means the page has no meta description.
	IssueMissingDescription Issue = "missing-description"

	// IssueNoH1 means the page has zero H1 headings.
	IssueNoH1 Issue = "no-h1"

	// IssueMultipleH1 means the page has more than one H1 heading.
	IssueMultipleH1 Issue = "multiple-h1"

	// IssueThinContent means the visible word count is below
	// ThinContentWordCount.
	IssueThinContent Issue = "thin-content"

	// IssueNoInternalLinks means the page links to no other page on the
	// same host.
	IssueNoInternalLinks Issue = "no-internal-links"
)

// ThinContentWordCount is the visible word count below which a page is
// flagged as thin content.
const ThinContentWordCount = 300

// Link is one outgoing hyperlink discovered on a page.
// The URL is in normalized form; Text is the anchor text with whitespace
// collapsed.
type Link struct {
	// URL is the normalized absolute target URL.
	URL string `json:"url"`

	// Text is the anchor text, empty for image-only or empty anchors.
	Text string `json:"text,omitempty"`

	// Internal reports whether the target host equals the crawl's site host.
	Internal bool `json:"internal"`
}

// CrawledPage is one fetched page. Exactly one CrawledPage exists per
// normalized URL within a single crawl run; the scheduler's visited set
// enforces that, not the page itself.
//
// A CrawledPage is created once, when a fetch and parse for its URL
// succeeds, and is immutable thereafter. Pages with 4xx/5xx status codes
// are still pages: transport success is deliberately kept distinct from
// content validity so broken-link accounting stays accurate.
type CrawledPage struct {
	// URL is the final URL after redirects, in normalized form.
	URL string `json:"url"`

	// RequestedURL is the normalized URL that was dequeued for fetching.
	// It differs from URL only when the server redirected.
	RequestedURL string `json:"requested_url"`

	// Title is the text of the first <title> element, empty if absent.
	Title string `json:"title,omitempty"`

	// StatusCode is the HTTP response status code.
	StatusCode int `json:"status_code"`

	// Depth is the frontier distance from the seed. The seed is depth 0.
	Depth int `json:"depth"`

	// ParentURL is the page that first discovered this one.
	// Empty only for the seed.
	ParentURL string `json:"parent_url,omitempty"`

	// OutgoingLinks holds every resolvable anchor target in document order.
	// The list is not deduplicated; a page linking to the same URL twice
	// contributes two entries.
	OutgoingLinks []Link `json:"outgoing_links,omitempty"`

	// InternalLinkCount is the number of unique internal link targets.
	InternalLinkCount int `json:"internal_link_count"`

	// ExternalLinkCount is the number of unique external link targets.
	ExternalLinkCount int `json:"external_link_count"`

	// ImageCount is the number of <img> elements with a usable src.
	ImageCount int `json:"image_count"`

	// H1Count is the number of <h1> elements.
	H1Count int `json:"h1_count"`

	// MetaDescription is the content of <meta name="description">.
	MetaDescription string `json:"meta_description,omitempty"`

	// WordCount is the visible word count with script and style stripped.
	WordCount int `json:"word_count"`

	// Issues holds the content findings detected for this page.
	Issues []Issue `json:"issues,omitempty"`

	// LoadTime is how long the fetch took, including redirects.
	LoadTime time.Duration `json:"load_time_ms"`

	// CrawledAt is when the page was fetched.
	CrawledAt time.Time `json:"crawled_at"`
}

// IsSuccess reports whether the page was served with a 2xx status.
func (p *CrawledPage) IsSuccess() bool {
	return p.StatusCode >= 200 && p.StatusCode < 300
}

// IsBroken reports whether the page was served with a 4xx or 5xx status.
func (p *CrawledPage) IsBroken() bool {
	return p.StatusCode >= 400
}

// IsRedirected reports whether the fetch was redirected, either by a 3xx
// status or because the final URL differs from the requested one.
func (p *CrawledPage) IsRedirected() bool {
	if p.StatusCode >= 300 && p.StatusCode < 400 {
		return true
	}
	return p.RequestedURL != "" && p.URL != p.RequestedURL
}

// DetectIssues computes the content findings for the page.
// Callers set the result on Issues before the page is published; the page
// is immutable afterwards.
func (p *CrawledPage) DetectIssues() []Issue {
	var issues []Issue

	if p.Title == "" {
		issues = append(issues, IssueMissingTitle)
	}
	if p.MetaDescription == "" {
		issues = append(issues, IssueMissingDescription)
	}
	switch {
	case p.H1Count == 0:
		issues = append(issues, IssueNoH1)
	case p.H1Count > 1:
		issues = append(issues, IssueMultipleH1)
	}
	if p.WordCount < ThinContentWordCount {
		issues = append(issues, IssueThinContent)
	}
	if p.InternalLinkCount == 0 {
		issues = append(issues, IssueNoInternalLinks)
	}

	return issues
}
