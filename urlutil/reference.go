package urlutil

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// sitemapSuffixes mark a <loc> as another sitemap document rather than a page.
var sitemapSuffixes = []string{".xml", ".xml.gz"}

// IsSitemapDocument reports whether a sitemap reference points at another
// sitemap document. Only the URL path is inspected, so query strings such as
// "sitemap.xml?page=2" still count. The check is case-insensitive.
func IsSitemapDocument(rawURL string) bool {
	target := strings.TrimSpace(rawURL)
	if parsed, err := url.Parse(target); err == nil && parsed.Path != "" {
		target = parsed.Path
	}
	target = strings.ToLower(target)

	for _, suffix := range sitemapSuffixes {
		if strings.HasSuffix(target, suffix) {
			return true
		}
	}
	return false
}

// IsHTTPScheme returns true if the URL has an http or https scheme.
// Returns false for empty strings, non-HTTP schemes, or unparseable URLs.
func IsHTTPScheme(rawURL string) bool {
	if rawURL == "" {
		return false
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	scheme := strings.ToLower(parsed.Scheme)
	return scheme == "http" || scheme == "https"
}

// LocalPath returns the filesystem path for file:// URLs and bare paths.
// The second return value is false for anything with a network scheme.
func LocalPath(location string) (string, bool) {
	location = strings.TrimSpace(location)
	if location == "" {
		return "", false
	}

	parsed, err := url.Parse(location)
	if err != nil {
		return "", false
	}

	switch strings.ToLower(parsed.Scheme) {
	case "file":
		return path.Clean(parsed.Path), parsed.Path != ""
	case "":
		return location, true
	default:
		// Windows drive letters parse as a one-letter scheme.
		if len(parsed.Scheme) == 1 {
			return location, true
		}
		return "", false
	}
}

// ResolveReference resolves a possibly-relative ref URL against a base URL.
// If ref is absolute, it is returned as-is. Otherwise it is resolved
// relative to base using net/url.URL.ResolveReference.
func ResolveReference(base string, ref string) (string, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base URL %q: %w", base, err)
	}

	refURL, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("parse ref URL %q: %w", ref, err)
	}

	resolved := baseURL.ResolveReference(refURL)
	return resolved.String(), nil
}
