package checker

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/lukemcguire/sitemapcheck/result"
)

// RetryPolicy configures retry behavior for failed requests.
type RetryPolicy struct {
	MaxRetries int           // Maximum number of retries (2 = 3 total attempts)
	BaseDelay  time.Duration // Initial backoff delay
	MaxDelay   time.Duration // Maximum backoff cap
}

// DefaultRetryPolicy returns the policy used when retries are switched on:
// 2 retries (3 attempts), 1s base delay, 30s max delay.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 2,
		BaseDelay:  1 * time.Second,
		MaxDelay:   30 * time.Second,
	}
}

// CheckWithRetry wraps Check with exponential backoff retry logic.
// It retries on transient failures (network errors, 5xx, 429) but not on
// permanent ones (other statuses, redirect loops). A zero policy makes
// exactly one attempt.
func CheckWithRetry(ctx context.Context, client *http.Client, rawURL string, cfg Config, policy RetryPolicy) Outcome {
	backoff := policy.BaseDelay
	if backoff <= 0 {
		backoff = time.Second
	}
	maxDelay := policy.MaxDelay
	if maxDelay <= 0 {
		maxDelay = 30 * time.Second
	}

	var last Outcome
	attempts := 0

	for attempt := 0; attempt <= policy.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				last.Attempts = attempts
				return last
			case <-time.After(backoff):
				backoff = min(backoff*2, maxDelay)
			}
		}

		attempts++
		last = Check(ctx, client, rawURL, cfg)
		last.Attempts = attempts

		if !shouldRetry(last) {
			return last
		}
	}

	if last.Err != nil && attempts > 1 {
		last.Err = fmt.Errorf("%w (after %d attempts)", last.Err, attempts)
	}
	return last
}

// shouldRetry determines if an outcome is worth another attempt.
// Returns true for network errors (timeout, connection refused, DNS failure),
// HTTP 429 and HTTP 5xx.
func shouldRetry(o Outcome) bool {
	if o.Unreachable() {
		if o.Category == result.CategoryRedirectLoop {
			return false
		}
		return isRetryableError(o.Err)
	}

	return o.StatusCode == http.StatusTooManyRequests || o.StatusCode >= 500
}

// retryablePatterns catch transient failures whose error types were lost to wrapping.
var retryablePatterns = []string{
	"timeout",
	"deadline exceeded",
	"connection refused",
	"connection reset",
	"no such host",
	"dns",
	"temporary failure",
}

// isRetryableError checks if a transport error is transient.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range retryablePatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
