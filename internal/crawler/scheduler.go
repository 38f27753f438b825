package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/abdullahbaluch/sitegraph/internal/model"
)

// Scheduler is the traversal engine. It owns all per-run state: the frontier
// of pending visits, the visited set, the page budget, and the accumulated
// pages and errors. A bounded pool of workers pulls from the frontier, so
// throughput scales with concurrency while the depth and page-count ceilings
// stay hard upper bounds.
//
// A Scheduler is not safe for concurrent Crawl calls; each call resets the
// run state. State is never shared across runs.
type Scheduler struct {
	// fetcher retrieves pages. It is the engine's only network dependency.
	fetcher Fetcher

	// maxPages is the total page budget for the run.
	maxPages int

	// maxDepth is the frontier-distance ceiling, measured at enqueue time.
	maxDepth int

	// fanOut caps how many of a single page's internal links are admitted
	// to the frontier: the first fanOut in document order. This bounds
	// frontier explosion on link-dense pages.
	fanOut int

	// workers is the number of concurrent fetchers. 1 reproduces the
	// strictly sequential reference behavior.
	workers int

	// progress receives traversal snapshots; may be nil.
	progress ProgressFunc

	// logger is used for structured debug output.
	logger *slog.Logger

	// mu guards everything below. The visited check-and-mark and the
	// budget claim happen under one lock acquisition: two workers must
	// never both decide a URL is unvisited.
	mu       sync.Mutex
	cond     *sync.Cond
	frontier []frontierEntry
	visited  map[string]bool
	inflight int
	claimed  int
	attempts int
	pages    []*model.CrawledPage
	errs     []string
	siteHost string
}

// frontierEntry is a pending visit request. It is created when a discovered
// internal link passes admission checks and consumed exactly once when
// dequeued for fetching.
type frontierEntry struct {
	url    string
	depth  int
	parent string
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithMaxPages sets the total page budget.
func WithMaxPages(n int) SchedulerOption {
	return func(s *Scheduler) {
		if n > 0 {
			s.maxPages = n
		}
	}
}

// WithMaxDepth sets the depth ceiling. 0 crawls only the seed page.
func WithMaxDepth(n int) SchedulerOption {
	return func(s *Scheduler) {
		if n >= 0 {
			s.maxDepth = n
		}
	}
}

// WithFanOut caps how many internal links per page are admitted to the
// frontier.
func WithFanOut(n int) SchedulerOption {
	return func(s *Scheduler) {
		if n > 0 {
			s.fanOut = n
		}
	}
}

// WithWorkers sets the number of concurrent fetch workers.
func WithWorkers(n int) SchedulerOption {
	return func(s *Scheduler) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithProgress sets the progress observer.
func WithProgress(fn ProgressFunc) SchedulerOption {
	return func(s *Scheduler) {
		s.progress = fn
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) SchedulerOption {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// NewScheduler creates a Scheduler with the given fetcher.
func NewScheduler(fetcher Fetcher, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		fetcher:  fetcher,
		maxPages: 20,
		maxDepth: 3,
		fanOut:   10,
		workers:  4,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.cond = sync.NewCond(&s.mu)

	return s
}

// Crawl traverses the site reachable from startURL and returns the run's
// result. Only an unparseable seed fails the run; every other failure is
// recorded in the result's error list and traversal continues. On context
// cancellation the partial result is returned together with the context
// error.
func (s *Scheduler) Crawl(ctx context.Context, startURL string) (*model.CrawlResult, error) {
	seed, err := Normalize(startURL, "")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSeed, err)
	}

	s.reset(seed)
	s.emit(Progress{Total: s.maxPages, CurrentURL: seed, Status: StatusIdle})

	s.mu.Lock()
	s.frontier = append(s.frontier, frontierEntry{url: seed, depth: 0})
	s.mu.Unlock()

	// Workers blocked on the frontier must observe cancellation.
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			s.cond.Broadcast()
		case <-done:
		}
	}()
	defer close(done)

	g := new(errgroup.Group)
	for i := 0; i < s.workers; i++ {
		g.Go(func() error {
			return s.worker(ctx)
		})
	}
	runErr := g.Wait()

	result := model.NewCrawlResult(seed)
	s.mu.Lock()
	result.Pages = s.pages
	result.Errors = s.errs
	attempts := s.attempts
	s.mu.Unlock()
	result.Finalize()

	s.emit(Progress{Current: attempts, Total: s.maxPages, Status: StatusCompleted})
	s.logger.Debug("crawl finished",
		"seed", seed,
		"pages", result.TotalPages,
		"errors", len(result.Errors),
	)

	return result, runErr
}

// reset prepares fresh per-run state.
func (s *Scheduler) reset(seed string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frontier = nil
	s.visited = make(map[string]bool)
	s.inflight = 0
	s.claimed = 0
	s.attempts = 0
	s.pages = make([]*model.CrawledPage, 0)
	s.errs = make([]string, 0)
	s.siteHost = Host(seed)
}

// worker pulls frontier entries until traversal is done or the context is
// cancelled. Cancellation is cooperative and checked at the pop boundary;
// in-flight fetches are never force-killed.
func (s *Scheduler) worker(ctx context.Context) error {
	for {
		entry, ok := s.next(ctx)
		if !ok {
			return ctx.Err()
		}

		s.visit(ctx, entry)

		s.mu.Lock()
		s.inflight--
		s.cond.Broadcast()
		s.mu.Unlock()
	}
}

// next dequeues the next admissible entry, blocking while the frontier is
// empty but fetches are still in flight. It returns false when traversal is
// over: budget exhausted, frontier drained with nothing in flight, or
// context cancelled.
//
// The visited check at pop time is the authoritative guard: several pages
// may enqueue the same link before it is processed, and the slow path here
// discards those duplicates. Marking visited, claiming a budget slot, and
// the duplicate check are all one critical section.
func (s *Scheduler) next(ctx context.Context) (frontierEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for {
		if ctx.Err() != nil {
			return frontierEntry{}, false
		}
		if s.claimed >= s.maxPages {
			s.cond.Broadcast()
			return frontierEntry{}, false
		}

		if len(s.frontier) > 0 {
			entry := s.frontier[0]
			s.frontier = s.frontier[1:]

			if s.visited[entry.url] {
				continue
			}
			if entry.depth > s.maxDepth {
				continue
			}

			s.visited[entry.url] = true
			s.claimed++
			s.inflight++
			return entry, true
		}

		if s.inflight == 0 {
			s.cond.Broadcast()
			return frontierEntry{}, false
		}
		s.cond.Wait()
	}
}

// visit fetches one frontier entry, builds its CrawledPage, and feeds its
// internal links back into the frontier.
func (s *Scheduler) visit(ctx context.Context, entry frontierEntry) {
	s.mu.Lock()
	s.attempts++
	attempt := s.attempts
	s.mu.Unlock()

	s.emit(Progress{Current: attempt, Total: s.maxPages, CurrentURL: entry.url, Status: StatusCrawling})

	res, err := s.fetcher.Fetch(ctx, entry.url)
	if err != nil {
		// Non-fatal: record and move on. The URL stays visited, so it is
		// never retried within this run, but its budget slot is released
		// because no page was produced.
		s.mu.Lock()
		s.errs = append(s.errs, err.Error())
		s.claimed--
		s.mu.Unlock()

		s.logger.Debug("fetch failed", "url", entry.url, "error", err)
		s.emit(Progress{Current: attempt, Total: s.maxPages, CurrentURL: entry.url, Status: StatusError})
		return
	}

	finalURL, nerr := Normalize(res.FinalURL, "")
	if nerr != nil {
		finalURL = entry.url
	}

	facts := ParsePage(res.HTML, finalURL)
	links := Classify(facts.Links, s.siteHost)

	page := &model.CrawledPage{
		URL:               finalURL,
		RequestedURL:      entry.url,
		Title:             facts.Title,
		StatusCode:        res.StatusCode,
		Depth:             entry.depth,
		ParentURL:         entry.parent,
		OutgoingLinks:     links.All,
		InternalLinkCount: len(links.Internal),
		ExternalLinkCount: len(links.External),
		ImageCount:        facts.ImageCount,
		H1Count:           facts.H1Count(),
		MetaDescription:   facts.MetaDescription,
		WordCount:         facts.WordCount,
		LoadTime:          res.LoadTime,
		CrawledAt:         time.Now().UTC(),
	}
	page.Issues = page.DetectIssues()

	s.mu.Lock()
	s.pages = append(s.pages, page)

	if entry.depth < s.maxDepth && s.claimed < s.maxPages {
		admit := links.Internal
		if len(admit) > s.fanOut {
			admit = admit[:s.fanOut]
		}
		for _, link := range admit {
			// Cheap pre-filter; the pop-time check remains authoritative.
			if s.visited[link.URL] {
				continue
			}
			s.frontier = append(s.frontier, frontierEntry{
				url:    link.URL,
				depth:  entry.depth + 1,
				parent: entry.url,
			})
		}
	}
	s.cond.Broadcast()
	s.mu.Unlock()
}

// emit delivers a progress snapshot if an observer is registered.
func (s *Scheduler) emit(p Progress) {
	if s.progress != nil {
		s.progress(p)
	}
}

// Stats returns counters for the most recent run.
func (s *Scheduler) Stats() SchedulerStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SchedulerStats{
		PagesCrawled: len(s.pages),
		URLsSeen:     len(s.visited),
		FetchErrors:  len(s.errs),
	}
}

// SchedulerStats contains traversal counters.
type SchedulerStats struct {
	// PagesCrawled is the number of pages successfully fetched and parsed.
	PagesCrawled int

	// URLsSeen is the number of unique URLs ever dequeued for fetching.
	URLsSeen int

	// FetchErrors is the number of non-fatal fetch failures.
	FetchErrors int
}
