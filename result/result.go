package result

import (
	"errors"
	"time"
)

// ErrNoURLs is returned when a sitemap resolves to zero leaf URLs.
var ErrNoURLs = errors.New("no URLs found in sitemap")

// ErrorRecord is a reachable URL whose status was not 200.
type ErrorRecord struct {
	URL        string `json:"url" yaml:"url"`
	StatusCode int    `json:"status_code" yaml:"status_code"`
}

// Failure is a URL that could not be reached at all.
type Failure struct {
	URL           string        `json:"url" yaml:"url"`
	Error         string        `json:"error" yaml:"error"`
	ErrorCategory ErrorCategory `json:"error_type" yaml:"error_type"`
}

// DocumentFailure is a sitemap document that contributed nothing because it
// could not be fetched or parsed.
type DocumentFailure struct {
	URL   string `json:"url" yaml:"url"`
	Error string `json:"error" yaml:"error"`
}

// SitemapStats summarises the resolution stage.
type SitemapStats struct {
	Documents int               `json:"documents" yaml:"documents"`
	Failed    []DocumentFailure `json:"failed,omitempty" yaml:"failed,omitempty"`
	Skipped   int               `json:"skipped" yaml:"skipped"`
}

// Report is the complete output of a sitemap validation run.
type Report struct {
	RunID       string        `json:"run_id" yaml:"run_id"`
	Sitemap     string        `json:"sitemap" yaml:"sitemap"`
	Total       int           `json:"total" yaml:"total"`
	Tally       *Tally        `json:"status_codes" yaml:"status_codes"`
	Errors      []ErrorRecord `json:"errors" yaml:"errors"`
	Unreachable []Failure     `json:"unreachable" yaml:"unreachable"`
	Sitemaps    SitemapStats  `json:"sitemaps" yaml:"sitemaps"`
	Duration    time.Duration `json:"duration_ns" yaml:"duration_ns"`
}

// HasFailures reports whether any URL returned a non-200 status or was unreachable.
func (r *Report) HasFailures() bool {
	return r != nil && (len(r.Errors) > 0 || len(r.Unreachable) > 0)
}
