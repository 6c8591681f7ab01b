package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/lukemcguire/sitemapcheck/config"
	"github.com/lukemcguire/sitemapcheck/sitemap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer() *Server {
	log := logrus.New()
	log.SetOutput(io.Discard)

	cfg := config.Default()
	cfg.RequestTimeout = 2 * time.Second
	cfg.FetchTimeout = 2 * time.Second
	return NewServer(cfg, log)
}

func newSitemapSite(t *testing.T, sitemapBody string) *httptest.Server {
	t.Helper()
	var site *httptest.Server
	site = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/sitemap.xml":
			_, _ = w.Write([]byte(strings.ReplaceAll(sitemapBody, "%BASE%", site.URL)))
		case "/ok":
			w.WriteHeader(http.StatusOK)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(site.Close)
	return site
}

func postJSON(t *testing.T, srv *Server, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer().Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"healthy"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestValidate(t *testing.T) {
	body := `<urlset xmlns="` + sitemap.Namespace + `">
  <url><loc>%BASE%/ok</loc></url>
  <url><loc>%BASE%/missing</loc></url>
</urlset>`
	site := newSitemapSite(t, body)

	rec := postJSON(t, newTestServer(), "/api/validate", fmt.Sprintf(`{"sitemap_url": %q}`, site.URL+"/sitemap.xml"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Message string `json:"message"`
		Report  struct {
			RunID       string `json:"run_id"`
			Total       int    `json:"total"`
			StatusCodes struct {
				Buckets []struct {
					StatusCode int `json:"status_code"`
					Count      int `json:"count"`
				} `json:"buckets"`
			} `json:"status_codes"`
			Errors []struct {
				URL        string `json:"url"`
				StatusCode int    `json:"status_code"`
			} `json:"errors"`
		} `json:"report"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if resp.Report.Total != 2 {
		t.Errorf("total = %d, want 2", resp.Report.Total)
	}
	if resp.Report.RunID == "" {
		t.Error("run_id is empty")
	}
	if len(resp.Report.StatusCodes.Buckets) != 2 || resp.Report.StatusCodes.Buckets[0].StatusCode != 200 {
		t.Errorf("buckets = %+v, want 200 then 404", resp.Report.StatusCodes.Buckets)
	}
	if len(resp.Report.Errors) != 1 || resp.Report.Errors[0].URL != site.URL+"/missing" {
		t.Errorf("errors = %+v", resp.Report.Errors)
	}
}

func TestValidate_NoURLs(t *testing.T) {
	site := newSitemapSite(t, "Hello, World!")

	rec := postJSON(t, newTestServer(), "/api/validate", fmt.Sprintf(`{"sitemap_url": %q}`, site.URL+"/sitemap.xml"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "No URLs found in the sitemap.") {
		t.Errorf("body = %s, want no-URLs message", rec.Body.String())
	}
}

func TestValidate_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "missing url", body: `{}`},
		{name: "malformed json", body: `{"sitemap_url":`},
		{name: "local path", body: `{"sitemap_url": "/etc/passwd"}`},
		{name: "file url", body: `{"sitemap_url": "file:///etc/passwd"}`},
		{name: "negative depth", body: `{"sitemap_url": "https://example.com/sitemap.xml", "max_depth": -1}`},
		{name: "zero depth", body: `{"sitemap_url": "https://example.com/sitemap.xml", "max_depth": 0}`},
	}

	srv := newTestServer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, srv, "/api/validate", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/validate", nil)
	req.Header.Set("Origin", "https://dashboard.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()

	newTestServer().Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
}
