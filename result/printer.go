package result

import (
	"fmt"
	"io"
)

// PrintReport writes the final plain-text report block to w.
// A nil or empty report prints the "no URLs found" notice.
func PrintReport(w io.Writer, report *Report) {
	writef := func(format string, a ...any) { _, _ = fmt.Fprintf(w, format, a...) }

	if report == nil || report.Total == 0 {
		writef("No URLs found in the sitemap.\n")
		return
	}

	writef("\nFinal Report:\n")
	writef("Total URLs analyzed: %d\n", report.Total)
	if report.Sitemaps.Documents > 0 {
		writef("Sitemap documents processed: %d (failed: %d)\n", report.Sitemaps.Documents, len(report.Sitemaps.Failed))
	}
	writef("HTTP status code distribution:\n")
	if report.Tally != nil {
		for _, bucket := range report.Tally.Buckets() {
			writef(" - %d: %d URLs\n", bucket.StatusCode, bucket.Count)
		}
		if n := report.Tally.Unreachable(); n > 0 {
			writef(" - unreachable: %d URLs\n", n)
		}
	}

	if len(report.Errors) == 0 {
		writef("\nNo errors found in the URLs.\n")
	} else {
		writef("\nURLs with errors:\n")
		for _, rec := range report.Errors {
			writef(" - %s (Error: %d)\n", rec.URL, rec.StatusCode)
		}
	}

	if len(report.Unreachable) > 0 {
		writef("\nUnreachable URLs:\n")
		for _, failure := range report.Unreachable {
			writef(" - %s (%s: %s)\n", failure.URL, FormatCategory(failure.ErrorCategory), failure.Error)
		}
	}
}
