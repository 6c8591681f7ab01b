package sitemap

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/temoto/robotstxt"
)

// robotsMaxBytes caps how much of a robots.txt file is read.
const robotsMaxBytes = 512 << 10

// Discover returns the sitemap locations a site advertises through the
// Sitemap: lines of its robots.txt. When robots.txt is missing, unreadable or
// lists no sitemaps, the conventional /sitemap.xml is returned instead. The
// error is informational: the fallback is always usable.
func Discover(ctx context.Context, client *http.Client, siteURL, userAgent string) ([]string, error) {
	parsedURL, err := url.Parse(siteURL)
	if err != nil || parsedURL.Host == "" {
		return nil, fmt.Errorf("parse site URL %q: invalid URL", siteURL)
	}

	origin := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	fallback := []string{origin + "/sitemap.xml"}
	robotsURL := origin + "/robots.txt"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return fallback, fmt.Errorf("create robots.txt request for host %s: %w", parsedURL.Host, err)
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fallback, fmt.Errorf("fetch robots.txt for host %s: %w", parsedURL.Host, err)
	}

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, robotsMaxBytes))
	closeErr := resp.Body.Close()
	if readErr != nil {
		return fallback, fmt.Errorf("read robots.txt body for host %s: %w", parsedURL.Host, readErr)
	}
	if closeErr != nil {
		return fallback, fmt.Errorf("close robots.txt response body for host %s: %w", parsedURL.Host, closeErr)
	}

	// 404 and 5xx carry no Sitemap: lines worth trusting.
	if resp.StatusCode == http.StatusNotFound || resp.StatusCode >= 500 {
		return fallback, nil
	}

	robots, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		return fallback, fmt.Errorf("parse robots.txt for host %s: %w", parsedURL.Host, err)
	}
	if robots == nil || len(robots.Sitemaps) == 0 {
		return fallback, nil
	}

	sitemaps := make([]string, 0, len(robots.Sitemaps))
	for _, loc := range robots.Sitemaps {
		resolved, resolveErr := url.Parse(loc)
		if resolveErr != nil {
			continue
		}
		sitemaps = append(sitemaps, parsedURL.ResolveReference(resolved).String())
	}
	if len(sitemaps) == 0 {
		return fallback, nil
	}
	return sitemaps, nil
}
