package crawler

import (
	"fmt"
	"net/url"
	"strings"
)

// Normalize canonicalizes a URL for deduplication. When base is non-empty,
// raw is resolved against it first, so relative hrefs from a page body can
// be normalized in one step.
//
// Canonical form:
//   - fragment stripped (anchors never change page identity)
//   - host lowercased (hosts are case-insensitive; paths are not)
//   - empty path and a bare trailing slash both collapse: "/a/" becomes
//     "/a", while the root path "/" is preserved
//   - query string preserved byte-for-byte, no reordering
//
// Two URLs that normalize to the same string are treated as the same page.
// That is a design choice, not a guarantee of true page identity:
// query-string variants of the same content stay distinct pages.
//
// Normalize fails with a wrapped ErrInvalidURL when the input cannot be
// parsed, or when the result is not an absolute http(s) URL with a host.
func Normalize(raw, base string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidURL, raw, err)
	}

	if base != "" {
		b, err := url.Parse(base)
		if err != nil {
			return "", fmt.Errorf("%w: base %q: %v", ErrInvalidURL, base, err)
		}
		u = b.ResolveReference(u)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: %q: scheme %q is not http(s)", ErrInvalidURL, raw, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: %q: missing host", ErrInvalidURL, raw)
	}

	u.Fragment = ""
	u.Host = strings.ToLower(u.Host)

	switch {
	case u.Path == "":
		u.Path = "/"
	case u.Path != "/" && strings.HasSuffix(u.Path, "/"):
		u.Path = strings.TrimSuffix(u.Path, "/")
	}

	return u.String(), nil
}

// Host returns the lowercased host (including any port) of a URL, or an
// empty string when the URL does not parse. It is the internal/external
// classification boundary: the site host of the seed.
func Host(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Host)
}

// Origin returns the scheme://host prefix of a URL, used as the base for
// site-root probes. Returns an empty string when the URL does not parse.
func Origin(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + strings.ToLower(u.Host)
}
