package sitemap

import (
	"context"
	"net/url"
	"path/filepath"

	"github.com/lukemcguire/sitemapcheck/progress"
	"github.com/lukemcguire/sitemapcheck/result"
	"github.com/lukemcguire/sitemapcheck/urlutil"
)

// Skip reasons reported through progress.DocumentSkipped.
const (
	ReasonVisited       = "already visited"
	ReasonMaxDepth      = "max depth reached"
	ReasonDocumentLimit = "document limit reached"
	ReasonNonHTTP       = "not an http(s) URL"
)

// Config bounds a resolution.
type Config struct {
	MaxDepth     int  // deepest nesting level fetched; the root is depth 0 (default 10)
	MaxDocuments int  // documents fetched per resolution, root included (default 10000)
	Dedupe       bool // keep only the first occurrence of each normalized leaf URL
}

// DefaultConfig returns the limits used when a field is left at zero.
func DefaultConfig() Config {
	return Config{
		MaxDepth:     10,
		MaxDocuments: 10000,
	}
}

// SkippedDocument is a nested reference that was not fetched.
type SkippedDocument struct {
	URL    string
	Reason string
}

// Resolution is the outcome of resolving one or more sitemap roots.
type Resolution struct {
	URLs       []string // leaf URLs, depth-first in declaration order
	Documents  int      // documents fetched and parsed
	Failed     []result.DocumentFailure
	Skipped    []SkippedDocument
	Duplicates int // leaves dropped by Dedupe
}

// Stats converts the document bookkeeping for a report.
func (r *Resolution) Stats() result.SitemapStats {
	return result.SitemapStats{
		Documents: r.Documents,
		Failed:    r.Failed,
		Skipped:   len(r.Skipped),
	}
}

// Resolver turns sitemap locations into the flat list of page URLs they declare.
type Resolver struct {
	cfg     Config
	fetcher Fetcher
	events  chan<- progress.Event
}

// New creates a Resolver. The events channel is optional; pass nil to disable
// progress events. A non-nil channel must be drained by the caller.
func New(cfg Config, fetcher Fetcher, events chan<- progress.Event) *Resolver {
	defaults := DefaultConfig()
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = defaults.MaxDepth
	}
	if cfg.MaxDocuments <= 0 {
		cfg.MaxDocuments = defaults.MaxDocuments
	}
	return &Resolver{cfg: cfg, fetcher: fetcher, events: events}
}

// reference is one <loc> waiting to be processed.
type reference struct {
	loc        string
	nested     bool // points at another sitemap document
	unexpected bool // page URL found inside a <sitemap> entry
}

// frame is an opened document whose references are being walked.
type frame struct {
	location string
	depth    int
	local    bool // read from the local filesystem
	refs     []reference
	next     int
}

// walkState is shared by every root of one resolution.
type walkState struct {
	res     *Resolution
	visited *SeenSet
	leaves  *SeenSet
	opened  int
}

// Resolve fetches location and returns every leaf URL it transitively
// declares. Failures never abort the walk: a document that cannot be fetched
// or parsed contributes nothing and is recorded in Resolution.Failed.
func (r *Resolver) Resolve(ctx context.Context, location string) *Resolution {
	return r.ResolveAll(ctx, []string{location})
}

// ResolveAll resolves several roots into one sequence. Roots share the
// visited set, the document limit and, when enabled, leaf deduplication.
func (r *Resolver) ResolveAll(ctx context.Context, roots []string) *Resolution {
	st := &walkState{
		res:     &Resolution{},
		visited: NewSeenSet(uint(r.cfg.MaxDocuments)),
	}
	if r.cfg.Dedupe {
		st.leaves = NewSeenSet(0)
	}

	for _, root := range roots {
		if ctx.Err() != nil {
			break
		}
		r.walk(ctx, st, root)
	}
	return st.res
}

// walk expands one root depth-first with an explicit stack. A nested
// reference is opened and pushed as soon as it is reached, so its leaves land
// in place, exactly where a recursive expansion would put them.
func (r *Resolver) walk(ctx context.Context, st *walkState, root string) {
	var stack []*frame
	if f := r.open(ctx, st, root, "", 0, true); f != nil {
		stack = append(stack, f)
	}

	for len(stack) > 0 {
		if ctx.Err() != nil {
			return
		}

		top := stack[len(stack)-1]
		if top.next >= len(top.refs) {
			stack = stack[:len(stack)-1]
			continue
		}
		ref := top.refs[top.next]
		top.next++

		if ref.nested {
			r.emit(ctx, progress.Event{Kind: progress.NestedFound, URL: ref.loc, Parent: top.location, Depth: top.depth + 1})
			if child := r.open(ctx, st, ref.loc, top.location, top.depth+1, top.local); child != nil {
				stack = append(stack, child)
			}
			continue
		}

		if ref.unexpected {
			r.emit(ctx, progress.Event{Kind: progress.UnexpectedLeaf, URL: ref.loc, Parent: top.location, Depth: top.depth})
		}
		r.addLeaf(ctx, st, ref.loc, top)
	}
}

// open fetches and parses one document, returning nil when it contributes
// nothing. Only roots and documents declared in local files may themselves be
// local; a document fetched over HTTP can only lead to other HTTP documents.
func (r *Resolver) open(ctx context.Context, st *walkState, location, parent string, depth int, allowLocal bool) *frame {
	skip := func(reason string) *frame {
		st.res.Skipped = append(st.res.Skipped, SkippedDocument{URL: location, Reason: reason})
		r.emit(ctx, progress.Event{Kind: progress.DocumentSkipped, URL: location, Parent: parent, Depth: depth, Reason: reason})
		return nil
	}

	_, local := urlutil.LocalPath(location)
	if !urlutil.IsHTTPScheme(location) && !(local && allowLocal) {
		return skip(ReasonNonHTTP)
	}
	if depth > r.cfg.MaxDepth {
		return skip(ReasonMaxDepth)
	}
	if !st.visited.AddIfNew(location) {
		return skip(ReasonVisited)
	}
	if st.opened >= r.cfg.MaxDocuments {
		return skip(ReasonDocumentLimit)
	}
	st.opened++

	r.emit(ctx, progress.Event{Kind: progress.FetchStarted, URL: location, Parent: parent, Depth: depth})

	data, err := r.fetcher.Fetch(ctx, location)
	if err != nil {
		st.res.Failed = append(st.res.Failed, result.DocumentFailure{URL: location, Error: err.Error()})
		r.emit(ctx, progress.Event{Kind: progress.FetchFailed, URL: location, Parent: parent, Depth: depth, Error: err.Error()})
		return nil
	}

	doc, err := Parse(data)
	if err != nil {
		st.res.Failed = append(st.res.Failed, result.DocumentFailure{URL: location, Error: err.Error()})
		r.emit(ctx, progress.Event{Kind: progress.InvalidDocument, URL: location, Parent: parent, Depth: depth, Error: err.Error()})
		return nil
	}
	st.res.Documents++

	refs := make([]reference, 0, len(doc.Sitemaps)+len(doc.URLs))
	for _, loc := range doc.Sitemaps {
		loc = resolveLoc(location, loc)
		nested := urlutil.IsSitemapDocument(loc)
		refs = append(refs, reference{loc: loc, nested: nested, unexpected: !nested})
	}
	for _, loc := range doc.URLs {
		refs = append(refs, reference{loc: resolveLoc(location, loc)})
	}

	return &frame{location: location, depth: depth, local: local, refs: refs}
}

func (r *Resolver) addLeaf(ctx context.Context, st *walkState, loc string, from *frame) {
	if st.leaves != nil && !st.leaves.AddIfNew(loc) {
		st.res.Duplicates++
		return
	}
	st.res.URLs = append(st.res.URLs, loc)
	r.emit(ctx, progress.Event{Kind: progress.LeafFound, URL: loc, Parent: from.location, Depth: from.depth})
}

func (r *Resolver) emit(ctx context.Context, evt progress.Event) {
	progress.Send(ctx, r.events, evt)
}

// resolveLoc makes a relative <loc> absolute against the document it was
// declared in: a URL reference for HTTP documents, a path next to the file
// for local ones. Absolute locations pass through.
func resolveLoc(base, loc string) string {
	parsed, err := url.Parse(loc)
	if err != nil || parsed.IsAbs() {
		return loc
	}
	if !urlutil.IsHTTPScheme(base) {
		basePath, local := urlutil.LocalPath(base)
		if !local || filepath.IsAbs(loc) {
			return loc
		}
		return filepath.Join(filepath.Dir(basePath), filepath.FromSlash(loc))
	}
	resolved, err := urlutil.ResolveReference(base, loc)
	if err != nil {
		return loc
	}
	return resolved
}
