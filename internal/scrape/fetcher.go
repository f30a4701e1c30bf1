package scrape

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ErrFetch marks transport failures or non-2xx answers from the dashboard.
var ErrFetch = errors.New("dashboard fetch failed")

// nextDataPattern locates the embedded JSON payload Next.js leaves in the page.
var nextDataPattern = regexp.MustCompile(`(?s)id="__NEXT_DATA__"\s*type="application/json"\s*>(.*?)</script>`)

// Document is one freshly fetched dashboard page. Tree is nil when the page
// carries no parseable embedded payload.
type Document struct {
	HTML string
	Tree any
}

// FetcherOptions parameterise the page fetcher.
type FetcherOptions struct {
	URL       string
	Timeout   time.Duration
	UserAgent string
}

// Fetcher retrieves the dashboard page.
type Fetcher struct {
	opts   FetcherOptions
	logger zerolog.Logger
	client *http.Client
}

// NewFetcher constructs a page fetcher.
func NewFetcher(opts FetcherOptions, logger zerolog.Logger) *Fetcher {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 25 * time.Second
	}

	return &Fetcher{
		opts:   opts,
		logger: logger.With().Str("component", "page_fetcher").Logger(),
		client: &http.Client{Timeout: timeout},
	}
}

// Fetch performs a single GET and parses the embedded payload when present.
// Documents are never cached; every invocation sees a fresh page.
func (f *Fetcher) Fetch(ctx context.Context) (*Document, error) {
	if f.opts.URL == "" {
		return nil, fmt.Errorf("%w: url not configured", ErrFetch)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.opts.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	if ua := strings.TrimSpace(f.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrFetch, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", ErrFetch, resp.StatusCode)
	}

	html := string(body)
	doc := &Document{HTML: html, Tree: parseEmbeddedJSON(html)}

	f.logger.Debug().Int("bytes", len(html)).Bool("structured", doc.Tree != nil).Msg("dashboard fetched")
	return doc, nil
}

// parseEmbeddedJSON pulls the script-tag payload out of the page. A missing
// tag or malformed JSON yields nil; the caller falls back to raw text.
func parseEmbeddedJSON(html string) any {
	m := nextDataPattern.FindStringSubmatch(html)
	if m == nil {
		return nil
	}

	var tree any
	if err := json.Unmarshal([]byte(m[1]), &tree); err != nil {
		return nil
	}
	return tree
}
