// Package validator runs a complete sitemap validation: it resolves the
// sitemap into leaf URLs, checks every URL and returns the combined report.
package validator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lukemcguire/sitemapcheck/checker"
	"github.com/lukemcguire/sitemapcheck/config"
	"github.com/lukemcguire/sitemapcheck/progress"
	"github.com/lukemcguire/sitemapcheck/result"
	"github.com/lukemcguire/sitemapcheck/sitemap"
	"github.com/lukemcguire/sitemapcheck/urlutil"
)

// ErrInvalidRoot is returned for a root that is neither an http(s) URL nor
// an existing local file.
var ErrInvalidRoot = errors.New("invalid sitemap location")

// Validator wires a resolver and a checker together for one configuration.
type Validator struct {
	cfg     config.Config
	fetcher sitemap.Fetcher
	client  *http.Client
	events  chan<- progress.Event
}

// New creates a Validator. Both stages send progress on events when it is
// non-nil; the caller must drain it until Run returns.
func New(cfg config.Config, events chan<- progress.Event) *Validator {
	httpFetcher := sitemap.NewHTTPFetcher(cfg.FetchTimeout, cfg.UserAgent)
	httpFetcher.MaxBytes = cfg.MaxDocumentBytes

	return &Validator{
		cfg: cfg,
		fetcher: &sitemap.MultiFetcher{
			HTTP: httpFetcher,
			File: &sitemap.FileFetcher{MaxBytes: cfg.MaxDocumentBytes},
		},
		client: httpFetcher.Client,
		events: events,
	}
}

// CheckRoot validates a sitemap location before any work starts.
func CheckRoot(root string, discover bool) error {
	root = strings.TrimSpace(root)
	if root == "" {
		return fmt.Errorf("%w: empty", ErrInvalidRoot)
	}
	if urlutil.IsHTTPScheme(root) {
		return nil
	}
	if discover {
		return fmt.Errorf("%w: site discovery needs an http(s) URL, got %q", ErrInvalidRoot, root)
	}
	path, ok := urlutil.LocalPath(root)
	if !ok {
		return fmt.Errorf("%w: %q must be an http(s) URL or a local file", ErrInvalidRoot, root)
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("%w: %q must be an http(s) URL or a local file: %v", ErrInvalidRoot, root, err)
	}
	return nil
}

// Run validates the sitemap at root. When the sitemap yields no URLs the
// returned report carries the run metadata and the error is
// result.ErrNoURLs. Any other error means no report was produced.
func (v *Validator) Run(ctx context.Context, root string) (*result.Report, error) {
	root = strings.TrimSpace(root)
	if err := CheckRoot(root, v.cfg.Discover); err != nil {
		return nil, err
	}
	start := time.Now()

	roots := []string{root}
	if v.cfg.Discover {
		discovered, err := sitemap.Discover(ctx, v.client, root, v.cfg.UserAgent)
		if len(discovered) == 0 {
			return nil, fmt.Errorf("discover sitemaps: %w", err)
		}
		// robots.txt problems leave the /sitemap.xml fallback.
		if err != nil {
			progress.Send(ctx, v.events, progress.Event{Kind: progress.FetchFailed, URL: root, Error: err.Error()})
		}
		roots = discovered
	}

	resolution := sitemap.New(v.cfg.Resolver(), v.fetcher, v.events).ResolveAll(ctx, roots)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("resolve sitemap: %w", err)
	}

	report, err := checker.New(v.cfg.Checker(), v.events).Analyze(ctx, resolution.URLs)
	switch {
	case errors.Is(err, result.ErrNoURLs):
		report = &result.Report{Tally: result.NewTally()}
	case err != nil:
		return nil, err
	}

	report.RunID = uuid.NewString()
	report.Sitemap = root
	report.Sitemaps = resolution.Stats()
	report.Duration = time.Since(start)

	return report, err
}
