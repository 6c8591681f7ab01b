package sitemap

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
)

func gzipBytes(t *testing.T, data string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write([]byte(data)); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	return buf.Bytes()
}

func TestHTTPFetcher_Fetch(t *testing.T) {
	body := urlsetXML("https://example.com/a")
	compressed := gzipBytes(t, body)

	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		switch r.URL.Path {
		case "/sitemap.xml":
			_, _ = w.Write([]byte(body))
		case "/sitemap.xml.gz":
			w.Header().Set("Content-Type", "application/x-gzip")
			_, _ = w.Write(compressed)
		case "/moved.xml":
			http.Redirect(w, r, "/sitemap.xml", http.StatusMovedPermanently)
		case "/broken.xml":
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(body))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	fetcher := NewHTTPFetcher(5*time.Second, "sitemapcheck-test")

	testCases := []struct {
		name       string
		path       string
		want       string
		wantStatus bool
	}{
		{name: "plain", path: "/sitemap.xml", want: body},
		{name: "gzip by magic bytes", path: "/sitemap.xml.gz", want: body},
		{name: "redirect followed", path: "/moved.xml", want: body},
		{name: "500 fails even with body", path: "/broken.xml", wantStatus: true},
		{name: "404 fails", path: "/missing.xml", wantStatus: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := fetcher.Fetch(context.Background(), server.URL+tc.path)
			if tc.wantStatus {
				if !errors.Is(err, ErrUnexpectedStatus) {
					t.Fatalf("Fetch() error = %v, want ErrUnexpectedStatus", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Fetch() error = %v", err)
			}
			if string(got) != tc.want {
				t.Errorf("Fetch() = %q, want %q", got, tc.want)
			}
		})
	}

	if gotUA != "sitemapcheck-test" {
		t.Errorf("User-Agent = %q, want %q", gotUA, "sitemapcheck-test")
	}
}

func TestHTTPFetcher_BodyTooLarge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 2048)))
	}))
	defer server.Close()

	fetcher := NewHTTPFetcher(5*time.Second, "")
	fetcher.MaxBytes = 1024

	_, err := fetcher.Fetch(context.Background(), server.URL+"/big.xml")
	if !errors.Is(err, ErrBodyTooLarge) {
		t.Fatalf("Fetch() error = %v, want ErrBodyTooLarge", err)
	}
}

func TestHTTPFetcher_GzipBombCapped(t *testing.T) {
	compressed := gzipBytes(t, strings.Repeat("a", 4096))
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(compressed)
	}))
	defer server.Close()

	fetcher := NewHTTPFetcher(5*time.Second, "")
	fetcher.MaxBytes = 1024

	_, err := fetcher.Fetch(context.Background(), server.URL+"/sitemap.xml.gz")
	if !errors.Is(err, ErrBodyTooLarge) {
		t.Fatalf("Fetch() error = %v, want ErrBodyTooLarge", err)
	}
}

func TestHTTPFetcher_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer server.Close()

	fetcher := NewHTTPFetcher(50*time.Millisecond, "")
	if _, err := fetcher.Fetch(context.Background(), server.URL+"/slow.xml"); err == nil {
		t.Fatal("Fetch() expected timeout error")
	}
}

func TestFileFetcher_Fetch(t *testing.T) {
	dir := t.TempDir()
	body := urlsetXML("https://example.com/a")

	plain := filepath.Join(dir, "sitemap.xml")
	if err := os.WriteFile(plain, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	compressed := filepath.Join(dir, "sitemap.xml.gz")
	if err := os.WriteFile(compressed, gzipBytes(t, body), 0o600); err != nil {
		t.Fatal(err)
	}
	empty := filepath.Join(dir, "empty.xml")
	if err := os.WriteFile(empty, nil, 0o600); err != nil {
		t.Fatal(err)
	}

	fetcher := &FileFetcher{}

	testCases := []struct {
		name     string
		location string
		want     string
		wantErr  bool
	}{
		{name: "path", location: plain, want: body},
		{name: "file url", location: "file://" + filepath.ToSlash(plain), want: body},
		{name: "gzip", location: compressed, want: body},
		{name: "empty file", location: empty, want: ""},
		{name: "missing file", location: filepath.Join(dir, "missing.xml"), wantErr: true},
		{name: "http url rejected", location: "https://example.com/sitemap.xml", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := fetcher.Fetch(context.Background(), tc.location)
			if tc.wantErr {
				if err == nil {
					t.Fatal("Fetch() expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Fetch() error = %v", err)
			}
			if string(got) != tc.want {
				t.Errorf("Fetch() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestFileFetcher_TooLarge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.xml")
	if err := os.WriteFile(path, bytes.Repeat([]byte("x"), 2048), 0o600); err != nil {
		t.Fatal(err)
	}

	_, err := (&FileFetcher{MaxBytes: 1024}).Fetch(context.Background(), path)
	if !errors.Is(err, ErrBodyTooLarge) {
		t.Fatalf("Fetch() error = %v, want ErrBodyTooLarge", err)
	}
}

type recordingFetcher struct {
	name  string
	calls []string
}

func (f *recordingFetcher) Fetch(_ context.Context, location string) ([]byte, error) {
	f.calls = append(f.calls, location)
	return []byte(f.name), nil
}

func TestMultiFetcher_Routes(t *testing.T) {
	httpFetcher := &recordingFetcher{name: "http"}
	fileFetcher := &recordingFetcher{name: "file"}
	multi := &MultiFetcher{HTTP: httpFetcher, File: fileFetcher}

	testCases := []struct {
		location string
		want     string
	}{
		{location: "https://example.com/sitemap.xml", want: "http"},
		{location: "http://example.com/sitemap.xml", want: "http"},
		{location: "file:///tmp/sitemap.xml", want: "file"},
		{location: "/tmp/sitemap.xml", want: "file"},
		{location: "sitemaps/sitemap.xml", want: "file"},
	}

	for _, tc := range testCases {
		t.Run(tc.location, func(t *testing.T) {
			got, err := multi.Fetch(context.Background(), tc.location)
			if err != nil {
				t.Fatalf("Fetch() error = %v", err)
			}
			if string(got) != tc.want {
				t.Errorf("routed to %q, want %q", got, tc.want)
			}
		})
	}
}
