package crawler

// Status describes where a crawl run is in its lifecycle.
type Status string

// Progress statuses.
const (
	// StatusIdle means the run has not started fetching yet.
	StatusIdle Status = "idle"

	// StatusCrawling means a page fetch is in progress.
	StatusCrawling Status = "crawling"

	// StatusCompleted means traversal has finished.
	StatusCompleted Status = "completed"

	// StatusError means the most recent fetch attempt failed.
	StatusError Status = "error"
)

// Progress is a traversal progress snapshot. It is a pure side-channel for
// observers and plays no part in crawl correctness.
type Progress struct {
	// Current is the number of fetch attempts so far.
	Current int

	// Total is the page budget for the run.
	Total int

	// CurrentURL is the URL the snapshot concerns.
	CurrentURL string

	// Status is the run state at the time of the snapshot.
	Status Status
}

// ProgressFunc receives progress snapshots. Implementations must be safe for
// concurrent calls: under parallel fetching, multiple workers report at
// once.
type ProgressFunc func(Progress)
