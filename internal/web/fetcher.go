// Package web downloads article pages and reduces them to plain text.
package web

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultUserAgent = "Mozilla/5.0 (compatible; MinistoreSummarizerBot/1.0)"

// maxPageBytes bounds how much of a response body is read.
const maxPageBytes = 10 << 20

// FetchError reports a page that could not be downloaded. StatusCode is zero
// when the request never got a response.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	switch {
	case e.Err != nil && e.StatusCode != 0:
		return fmt.Sprintf("error fetching URL %s, HTTP %d: %v", e.URL, e.StatusCode, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("error fetching URL %s: %v", e.URL, e.Err)
	default:
		return fmt.Sprintf("error fetching URL %s, HTTP %d", e.URL, e.StatusCode)
	}
}

func (e *FetchError) Unwrap() error { return e.Err }

// Fetcher downloads HTML pages.
type Fetcher struct {
	client    *http.Client
	userAgent string
}

// NewFetcher creates a fetcher whose requests time out after timeout.
func NewFetcher(timeout time.Duration) *Fetcher {
	return &Fetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: defaultUserAgent,
	}
}

// NewFetcherWithClient creates a fetcher on top of an existing HTTP client.
func NewFetcherWithClient(client *http.Client) *Fetcher {
	return &Fetcher{client: client, userAgent: defaultUserAgent}
}

// NormalizeURL trims the URL and adds an https scheme when none is given.
func NormalizeURL(raw string) string {
	u := strings.TrimSpace(raw)
	if u == "" {
		return ""
	}
	lower := strings.ToLower(u)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		u = "https://" + u
	}
	return u
}

// Fetch returns the body of the page at rawURL.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	pageURL := NormalizeURL(rawURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", &FetchError{URL: pageURL, Err: err}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "es-ES,es;q=0.9,en;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", &FetchError{URL: pageURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &FetchError{URL: pageURL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", &FetchError{URL: pageURL, Err: fmt.Errorf("failed to read response: %w", err)}
	}
	if len(body) == 0 {
		return "", &FetchError{URL: pageURL, StatusCode: resp.StatusCode, Err: fmt.Errorf("empty body")}
	}
	return string(body), nil
}

// FetchArticle downloads a page and extracts its article text.
func (f *Fetcher) FetchArticle(ctx context.Context, rawURL string, maxChars int) (string, error) {
	page, err := f.Fetch(ctx, rawURL)
	if err != nil {
		return "", err
	}
	return ExtractArticleText(page, maxChars), nil
}
