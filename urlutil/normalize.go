// Package urlutil holds the URL helpers shared by the sitemap resolver and the
// status checker: normalization for visited/dedupe keys, scheme checks, and
// sitemap reference classification.
package urlutil

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Normalize takes a raw URL string and returns a normalized version.
// Normalization includes:
// - Lowercasing the scheme and host
// - Dropping the default port for the scheme (:80 for http, :443 for https)
// - Stripping fragments (#section)
// - Stripping trailing slashes (except for root path "/")
// - Using "/" for an empty path
// - Preserving query parameters
//
// Returns an error if the input is empty or cannot be parsed as a valid URL.
func Normalize(rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", errors.New("cannot normalize empty URL")
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("normalize URL %q: %w", rawURL, err)
	}

	if parsed.Scheme == "" || parsed.Host == "" {
		return "", errors.New("URL must have both scheme and host")
	}

	parsed.Scheme = strings.ToLower(parsed.Scheme)
	parsed.Host = strings.ToLower(parsed.Host)

	switch {
	case parsed.Scheme == "http" && parsed.Port() == "80",
		parsed.Scheme == "https" && parsed.Port() == "443":
		parsed.Host = parsed.Hostname()
	}

	parsed.Fragment = ""
	parsed.RawFragment = ""

	if parsed.Path == "" {
		parsed.Path = "/"
	}
	if parsed.Path != "/" && strings.HasSuffix(parsed.Path, "/") {
		parsed.Path = strings.TrimSuffix(parsed.Path, "/")
		parsed.RawPath = ""
	}

	return parsed.String(), nil
}

// Key returns the identity used for visited and dedupe sets. URLs that cannot
// be normalized (local file paths, malformed input) are keyed on their
// trimmed raw value so they still participate in cycle detection.
func Key(rawURL string) string {
	normalized, err := Normalize(rawURL)
	if err != nil {
		return strings.TrimSpace(rawURL)
	}
	return normalized
}
