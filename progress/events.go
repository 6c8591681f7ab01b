// Package progress defines the events the resolver and the checker emit while
// they work. Emission is observational only: consumers (the logger, the TUI,
// the API handler) never influence the results.
package progress

import "context"

// Kind identifies what happened.
type Kind int

const (
	// FetchStarted is emitted before a sitemap document is requested.
	FetchStarted Kind = iota
	// FetchFailed is emitted when a sitemap document could not be retrieved.
	FetchFailed
	// InvalidDocument is emitted when a fetched document is not well-formed XML.
	InvalidDocument
	// NestedFound is emitted for every nested sitemap reference.
	NestedFound
	// UnexpectedLeaf is emitted for a non-sitemap <loc> found in an index entry.
	UnexpectedLeaf
	// LeafFound is emitted for every leaf URL appended to the resolution.
	LeafFound
	// DocumentSkipped is emitted when a nested document is not fetched
	// (already visited, depth cap, document cap).
	DocumentSkipped
	// CheckStarted is emitted once before URL checking begins.
	CheckStarted
	// URLChecked is emitted after each leaf URL has been probed.
	URLChecked
)

var kindNames = map[Kind]string{
	FetchStarted:    "fetch_started",
	FetchFailed:     "fetch_failed",
	InvalidDocument: "invalid_document",
	NestedFound:     "nested_found",
	UnexpectedLeaf:  "unexpected_leaf",
	LeafFound:       "leaf_found",
	DocumentSkipped: "document_skipped",
	CheckStarted:    "check_started",
	URLChecked:      "url_checked",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Event reports progress for a single step of a validation run.
type Event struct {
	Kind       Kind
	URL        string
	Parent     string // sitemap document the URL was declared in
	Depth      int    // nesting depth of the document (root = 0)
	StatusCode int    // URLChecked only; 0 means unreachable
	Error      string
	Reason     string // DocumentSkipped only
	Checked    int    // URLChecked: URLs finished so far
	Total      int    // CheckStarted/URLChecked: URLs to check
	Failed     int    // URLChecked: non-200 or unreachable so far
}

// Send delivers evt on ch unless ch is nil or ctx is done.
// Callers that pass a channel must drain it until the run returns.
func Send(ctx context.Context, ch chan<- Event, evt Event) {
	if ch == nil {
		return
	}
	select {
	case ch <- evt:
	case <-ctx.Done():
	}
}
