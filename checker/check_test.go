package checker

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/lukemcguire/sitemapcheck/result"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Concurrency != 10 {
		t.Errorf("Concurrency = %d, want 10", cfg.Concurrency)
	}
	if cfg.RequestTimeout != 10*time.Second {
		t.Errorf("RequestTimeout = %v, want 10s", cfg.RequestTimeout)
	}
	if cfg.RateLimit != 0 {
		t.Errorf("RateLimit = %d, want 0 (unlimited)", cfg.RateLimit)
	}
	if cfg.RetryPolicy.MaxRetries != 0 {
		t.Errorf("RetryPolicy.MaxRetries = %d, want 0", cfg.RetryPolicy.MaxRetries)
	}
}

func TestCheck_StatusCodes(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ok", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("body", 1024)))
	})
	mux.HandleFunc("/gone", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusGone)
	})
	mux.HandleFunc("/error", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	mux.HandleFunc("/redirect", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/ok", http.StatusFound)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	tests := []struct {
		path         string
		wantStatus   int
		wantCategory result.ErrorCategory
	}{
		{path: "/ok", wantStatus: 200, wantCategory: result.Category2xx},
		{path: "/gone", wantStatus: 410, wantCategory: result.Category4xx},
		{path: "/error", wantStatus: 503, wantCategory: result.Category5xx},
		{path: "/redirect", wantStatus: 200, wantCategory: result.Category2xx},
		{path: "/missing", wantStatus: 404, wantCategory: result.Category4xx},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			out := Check(context.Background(), &http.Client{}, server.URL+tt.path, DefaultConfig())
			if out.StatusCode != tt.wantStatus {
				t.Errorf("StatusCode = %d, want %d", out.StatusCode, tt.wantStatus)
			}
			if out.Category != tt.wantCategory {
				t.Errorf("Category = %q, want %q", out.Category, tt.wantCategory)
			}
			if out.Unreachable() {
				t.Error("Unreachable() = true for a reachable URL")
			}
			if out.Err != nil {
				t.Errorf("Err = %v, want nil", out.Err)
			}
		})
	}
}

func TestCheck_SendsUserAgent(t *testing.T) {
	var got string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("User-Agent")
	}))
	defer server.Close()

	cfg := DefaultConfig()
	cfg.UserAgent = "sitemapcheck-test/1.0"
	Check(context.Background(), &http.Client{}, server.URL, cfg)

	if got != "sitemapcheck-test/1.0" {
		t.Errorf("User-Agent = %q, want %q", got, "sitemapcheck-test/1.0")
	}
}

func TestCheck_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer server.Close()

	cfg := DefaultConfig()
	cfg.RequestTimeout = 50 * time.Millisecond

	out := Check(context.Background(), &http.Client{}, server.URL, cfg)
	if !out.Unreachable() {
		t.Fatalf("StatusCode = %d, want unreachable", out.StatusCode)
	}
	if out.Category != result.CategoryTimeout {
		t.Errorf("Category = %q, want %q", out.Category, result.CategoryTimeout)
	}
}

func TestCheck_ConnectionRefused(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := listener.Addr().String()
	_ = listener.Close()

	out := Check(context.Background(), &http.Client{}, "http://"+addr+"/", DefaultConfig())
	if !out.Unreachable() {
		t.Fatalf("StatusCode = %d, want unreachable", out.StatusCode)
	}
	if out.Err == nil {
		t.Fatal("Err = nil, want connection error")
	}
	if out.Category != result.CategoryConnectionRefused {
		t.Errorf("Category = %q, want %q", out.Category, result.CategoryConnectionRefused)
	}
}

func TestCheck_RedirectLoop(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, r.URL.Path, http.StatusFound)
	}))
	defer server.Close()

	out := Check(context.Background(), &http.Client{}, server.URL+"/loop", DefaultConfig())
	if !out.Unreachable() {
		t.Fatalf("StatusCode = %d, want unreachable", out.StatusCode)
	}
	if out.Category != result.CategoryRedirectLoop {
		t.Errorf("Category = %q, want %q", out.Category, result.CategoryRedirectLoop)
	}
}

func TestCheck_InvalidURL(t *testing.T) {
	out := Check(context.Background(), &http.Client{}, "http://[::1]:namedport", DefaultConfig())
	if !out.Unreachable() || out.Err == nil {
		t.Fatalf("Check() = %+v, want unreachable with error", out)
	}
	if out.Category != result.CategoryUnknown {
		t.Errorf("Category = %q, want %q", out.Category, result.CategoryUnknown)
	}
}
