package sitemap

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/edsrzf/mmap-go"
	"github.com/klauspost/compress/gzip"

	"github.com/lukemcguire/sitemapcheck/urlutil"
)

// DefaultMaxBytes is the sitemap protocol's uncompressed size limit (50 MiB).
const DefaultMaxBytes = 50 << 20

var (
	// ErrUnexpectedStatus is returned for non-2xx responses.
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")
	// ErrBodyTooLarge is returned when a document exceeds the size cap.
	ErrBodyTooLarge = errors.New("document exceeds size limit")
)

var gzipMagic = []byte{0x1f, 0x8b}

// Fetcher retrieves the raw bytes of a sitemap document.
type Fetcher interface {
	Fetch(ctx context.Context, location string) ([]byte, error)
}

// HTTPFetcher fetches sitemap documents with a plain GET.
type HTTPFetcher struct {
	Client    *http.Client
	UserAgent string
	MaxBytes  int64
}

// NewHTTPFetcher creates an HTTPFetcher with the given per-request timeout.
func NewHTTPFetcher(timeout time.Duration, userAgent string) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPFetcher{
		Client:    &http.Client{Timeout: timeout},
		UserAgent: userAgent,
		MaxBytes:  DefaultMaxBytes,
	}
}

// Fetch GETs location, following redirects, and returns the (decompressed) body.
func (f *HTTPFetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("create request for %s: %w", location, err)
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", location, err)
	}

	body, readErr := readLimited(resp.Body, f.maxBytes())
	closeErr := resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch %s: %w: %d", location, ErrUnexpectedStatus, resp.StatusCode)
	}
	if readErr != nil {
		return nil, fmt.Errorf("read body of %s: %w", location, readErr)
	}
	if closeErr != nil {
		return nil, fmt.Errorf("close response body of %s: %w", location, closeErr)
	}

	return decodeBody(body, f.maxBytes())
}

func (f *HTTPFetcher) maxBytes() int64 {
	if f.MaxBytes <= 0 {
		return DefaultMaxBytes
	}
	return f.MaxBytes
}

// FileFetcher reads sitemap documents from the local filesystem through a
// read-only memory map.
type FileFetcher struct {
	MaxBytes int64
}

// Fetch maps the file named by location (a path or file:// URL) and returns a
// copy of its (decompressed) contents.
func (f *FileFetcher) Fetch(_ context.Context, location string) ([]byte, error) {
	path, ok := urlutil.LocalPath(location)
	if !ok {
		return nil, fmt.Errorf("%s is not a local path", location)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	maxBytes := f.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if info.Size() > maxBytes {
		return nil, fmt.Errorf("%s: %w (%d bytes)", path, ErrBodyTooLarge, info.Size())
	}
	// Zero-length files cannot be mapped.
	if info.Size() == 0 {
		return []byte{}, nil
	}

	mapped, err := mmap.Map(file, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("mmap %s: %w", path, err)
	}
	defer func() { _ = mapped.Unmap() }()

	if bytes.HasPrefix(mapped, gzipMagic) {
		return decodeBody(mapped, maxBytes)
	}

	data := make([]byte, len(mapped))
	copy(data, mapped)
	return data, nil
}

// MultiFetcher routes local paths to File and everything else to HTTP.
type MultiFetcher struct {
	HTTP Fetcher
	File Fetcher
}

// Fetch implements Fetcher.
func (m *MultiFetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	if _, local := urlutil.LocalPath(location); local {
		return m.File.Fetch(ctx, location)
	}
	return m.HTTP.Fetch(ctx, location)
}

// readLimited reads at most maxBytes from r, failing if there is more.
func readLimited(r io.Reader, maxBytes int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxBytes {
		return nil, ErrBodyTooLarge
	}
	return data, nil
}

// decodeBody gunzips gzip payloads (.xml.gz sitemaps are usually served
// without Content-Encoding) and passes everything else through.
func decodeBody(data []byte, maxBytes int64) ([]byte, error) {
	if !bytes.HasPrefix(data, gzipMagic) {
		return data, nil
	}

	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open gzip stream: %w", err)
	}
	defer func() { _ = zr.Close() }()

	out, err := readLimited(zr, maxBytes)
	if err != nil {
		return nil, fmt.Errorf("decompress gzip stream: %w", err)
	}
	return out, nil
}
