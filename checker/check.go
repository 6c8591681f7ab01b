package checker

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/lukemcguire/sitemapcheck/result"
)

// maxDrainBytes bounds how much of a response body is read before closing,
// enough for keep-alive reuse on ordinary pages.
const maxDrainBytes = 1 << 20

// Config holds checker configuration.
type Config struct {
	Concurrency    int           // Number of concurrent workers (default 10; 1 checks sequentially)
	RequestTimeout time.Duration // Per-request timeout (default 10s)
	RateLimit      int           // Requests per second; 0 disables pacing
	TargetRTT      time.Duration // Adapt RateLimit toward this response time; 0 keeps it fixed
	UserAgent      string        // User-Agent header sent with every request
	RetryPolicy    RetryPolicy   // Zero value checks each URL exactly once
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Concurrency:    10,
		RequestTimeout: 10 * time.Second,
		UserAgent:      "sitemapcheck/1.0 (+https://github.com/lukemcguire/sitemapcheck)",
	}
}

// Outcome is the result of probing one URL.
type Outcome struct {
	Index      int                  // Position in the analyzed URL list
	URL        string               // The URL that was checked
	StatusCode int                  // Final HTTP status; 0 when unreachable
	Err        error                // Transport error when unreachable
	Category   result.ErrorCategory // Classification of Err
	Attempts   int                  // Requests made, retries included
	Duration   time.Duration        // Time spent on the last attempt
}

// Unreachable reports whether the URL produced no HTTP status at all.
func (o Outcome) Unreachable() bool {
	return o.StatusCode == 0
}

// Check issues one GET for rawURL and reports the final status code after
// redirects. Transport failures and timeouts yield an unreachable Outcome;
// Check never returns an error.
func Check(ctx context.Context, client *http.Client, rawURL string, cfg Config) Outcome {
	out := Outcome{URL: rawURL, Attempts: 1}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		out.Err = fmt.Errorf("create request: %w", err)
		out.Category = result.CategoryUnknown
		return out
	}
	if cfg.UserAgent != "" {
		req.Header.Set("User-Agent", cfg.UserAgent)
	}

	start := time.Now()
	resp, err := client.Do(req)
	out.Duration = time.Since(start)
	if err != nil {
		out.Err = err
		out.Category = result.ClassifyError(err)
		return out
	}

	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBytes))
	_ = resp.Body.Close()

	out.StatusCode = resp.StatusCode
	out.Category = result.StatusCategory(resp.StatusCode)
	return out
}
