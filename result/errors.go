package result

import (
	"context"
	"errors"
	"net"
	"os"
	"strings"
)

// ErrorCategory represents the classification of a failed URL check.
type ErrorCategory string

const (
	CategoryTimeout           ErrorCategory = "timeout"
	CategoryDNSFailure        ErrorCategory = "dns_failure"
	CategoryConnectionRefused ErrorCategory = "connection_refused"
	CategoryRedirectLoop      ErrorCategory = "redirect_loop"
	Category2xx               ErrorCategory = "2xx"
	Category3xx               ErrorCategory = "3xx"
	Category4xx               ErrorCategory = "4xx"
	Category5xx               ErrorCategory = "5xx"
	CategoryUnknown           ErrorCategory = "unknown"
)

// redirectLoopMarker is the text net/http uses when CheckRedirect gives up.
const redirectLoopMarker = "stopped after"

// ClassifyError determines why a URL produced no HTTP status at all.
func ClassifyError(err error) ErrorCategory {
	if err == nil {
		return CategoryUnknown
	}

	if strings.Contains(err.Error(), redirectLoopMarker) {
		return CategoryRedirectLoop
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return CategoryTimeout
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsTimeout {
			return CategoryTimeout
		}
		return CategoryDNSFailure
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Timeout() {
			return CategoryTimeout
		}
		if opErr.Op == "dial" && strings.Contains(opErr.Error(), "connection refused") {
			return CategoryConnectionRefused
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return CategoryTimeout
	}

	return CategoryUnknown
}

// StatusCategory groups an HTTP status code by class.
func StatusCategory(statusCode int) ErrorCategory {
	switch {
	case statusCode >= 200 && statusCode <= 299:
		return Category2xx
	case statusCode >= 300 && statusCode <= 399:
		return Category3xx
	case statusCode >= 400 && statusCode <= 499:
		return Category4xx
	case statusCode >= 500 && statusCode <= 599:
		return Category5xx
	default:
		return CategoryUnknown
	}
}

// FormatCategory returns a human-readable label for an error category.
func FormatCategory(cat ErrorCategory) string {
	switch cat {
	case CategoryTimeout:
		return "Timeouts"
	case CategoryDNSFailure:
		return "DNS Failures"
	case CategoryConnectionRefused:
		return "Connection Refused"
	case CategoryRedirectLoop:
		return "Redirect Loops"
	case Category2xx:
		return "Non-200 Success (2xx)"
	case Category3xx:
		return "Redirects (3xx)"
	case Category4xx:
		return "Client Errors (4xx)"
	case Category5xx:
		return "Server Errors (5xx)"
	default:
		return "Other Errors"
	}
}
