package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// FetchResult is the outcome of a successful page retrieval.
// A 404 or 500 response is a successful fetch with that status code, not an
// error; only network-level failure is a FetchError.
type FetchResult struct {
	// HTML is the response body, truncated to the fetcher's body limit.
	HTML string

	// FinalURL is the URL after following redirects.
	FinalURL string

	// StatusCode is the HTTP response status code.
	StatusCode int

	// LoadTime is the total request duration including redirects.
	LoadTime time.Duration
}

// Fetcher is the collaborator contract through which the engine reaches the
// network. It is the only network dependency the traversal core has.
type Fetcher interface {
	// Fetch retrieves the page at url. Implementations must honor their
	// configured timeout, follow redirects transparently, and report
	// non-2xx statuses as valid results rather than errors.
	Fetch(ctx context.Context, url string) (*FetchResult, error)
}

// FetchErrorKind partitions transport failures for reporting.
type FetchErrorKind string

// Fetch error kinds.
const (
	// FetchTimeout means the request exceeded the per-request timeout.
	FetchTimeout FetchErrorKind = "timeout"

	// FetchConnectionFailed covers DNS failures, refused connections, and
	// unreachable hosts.
	FetchConnectionFailed FetchErrorKind = "connection_failed"

	// FetchMalformedResponse means the server responded but the body could
	// not be read, or the request could not be constructed.
	FetchMalformedResponse FetchErrorKind = "malformed_response"
)

// FetchError is a network-level fetch failure. It is always per-page and
// never fatal to a run.
type FetchError struct {
	// Kind classifies the failure.
	Kind FetchErrorKind

	// URL is the URL whose fetch failed.
	URL string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As chains.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// HTTPFetcher implements Fetcher over net/http.
//
// Design decision: We take an injected *http.Client rather than building one
// internally because:
//  1. Tests drive the fetcher with httptest server clients
//  2. Transport configuration (proxies, TLS) stays with the caller
//  3. Connection pooling can be shared across crawl runs
type HTTPFetcher struct {
	// client performs the requests. Redirect following is the client's
	// default behavior and is relied upon.
	client *http.Client

	// timeout bounds each individual request.
	timeout time.Duration

	// userAgent is sent with every request.
	userAgent string

	// maxBodySize limits how much of a response body is read.
	maxBodySize int64

	// headers are extra headers applied to every request, typically from
	// per-site configuration.
	headers map[string]string
}

// FetcherOption configures an HTTPFetcher.
type FetcherOption func(*HTTPFetcher)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) FetcherOption {
	return func(f *HTTPFetcher) {
		f.timeout = d
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) FetcherOption {
	return func(f *HTTPFetcher) {
		f.userAgent = ua
	}
}

// WithMaxBodySize sets the maximum response body size to read.
func WithMaxBodySize(size int64) FetcherOption {
	return func(f *HTTPFetcher) {
		f.maxBodySize = size
	}
}

// WithHeaders sets extra headers sent with every request.
func WithHeaders(headers map[string]string) FetcherOption {
	return func(f *HTTPFetcher) {
		f.headers = headers
	}
}

// NewHTTPFetcher creates an HTTPFetcher with the given client.
func NewHTTPFetcher(client *http.Client, opts ...FetcherOption) *HTTPFetcher {
	f := &HTTPFetcher{
		client:      client,
		timeout:     30 * time.Second,
		userAgent:   "sitegraph/1.0 (+https://github.com/abdullahbaluch/sitegraph)",
		maxBodySize: 5 * 1024 * 1024, // 5MB
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Fetch retrieves a single page. Non-2xx statuses are valid results; only
// transport failure returns a *FetchError.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (*FetchResult, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &FetchError{Kind: FetchMalformedResponse, URL: rawURL, Err: err}
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	for k, v := range f.headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{Kind: classifyTransportError(err), URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return nil, &FetchError{Kind: FetchMalformedResponse, URL: rawURL, Err: err}
	}

	return &FetchResult{
		HTML:       string(body),
		FinalURL:   resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
		LoadTime:   time.Since(start),
	}, nil
}

// classifyTransportError maps a client error to a FetchErrorKind.
func classifyTransportError(err error) FetchErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return FetchTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return FetchTimeout
	}

	// http.Client wraps timeouts in url.Error with a descriptive message;
	// fall back to string matching for transports that do not expose
	// net.Error.
	if strings.Contains(err.Error(), "Client.Timeout") {
		return FetchTimeout
	}

	return FetchConnectionFailed
}
