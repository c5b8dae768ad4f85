// Package search fetches shopping results for a topic from the Serper API.
package search

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// DefaultURL is the Serper search endpoint.
const DefaultURL = "https://google.serper.dev/search"

// ErrNoResults is returned when Serper answers without any usable entry.
var ErrNoResults = errors.New("search returned no usable results")

// Item is one product or page that can be placed in a ministore.
type Item struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Keywords    string `json:"keywords"`
	Language    string `json:"language"`
}

// Client calls the Serper search API.
type Client struct {
	APIKey string
	URL    string

	HTTPClient *http.Client
}

// NewClient creates a client for the given API key.
func NewClient(apiKey, url string) *Client {
	if url == "" {
		url = DefaultURL
	}
	return &Client{
		APIKey:     apiKey,
		URL:        url,
		HTTPClient: &http.Client{Timeout: 20 * time.Second},
	}
}

// Search returns shopping results for query, falling back to organic results
// when Serper has no shopping block.
func (c *Client) Search(ctx context.Context, query string, num int, lang string) ([]Item, error) {
	if c.APIKey == "" {
		return nil, fmt.Errorf("serper API key not configured")
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("search query is empty")
	}
	if num <= 0 {
		num = 10
	}

	payload, err := buildPayload(query, num, lang)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-API-KEY", c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("serper connection error: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("serper HTTP error: %d %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("serper returned invalid JSON")
	}

	return ParseItems(body, query, lang)
}

// ParseItems converts a Serper response body into items.
func ParseItems(body []byte, query, lang string) ([]Item, error) {
	doc := gjson.ParseBytes(body)

	entries := doc.Get("shopping").Array()
	if len(entries) == 0 {
		entries = doc.Get("organic").Array()
	}

	items := make([]Item, 0, len(entries))
	for idx, entry := range entries {
		title := strings.TrimSpace(entry.Get("title").String())
		description := firstNonEmpty(entry.Get("snippet").String(), entry.Get("description").String())
		link := firstNonEmpty(entry.Get("link").String(), entry.Get("productLink").String())
		if title == "" && link == "" {
			continue
		}

		id := firstNonEmpty(entry.Get("productId").String(), entry.Get("id").String())
		if id == "" {
			id = stableID(link, title, idx)
		}

		items = append(items, Item{
			ID:          id,
			Title:       title,
			Description: strings.TrimSpace(description),
			URL:         strings.TrimSpace(link),
			Keywords:    query,
			Language:    lang,
		})
	}

	if len(items) == 0 {
		return nil, ErrNoResults
	}
	return items, nil
}

func buildPayload(query string, num int, lang string) ([]byte, error) {
	payload, err := sjson.SetBytes([]byte(`{}`), "q", query)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if payload, err = sjson.SetBytes(payload, "num", num); err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if lang != "" {
		if payload, err = sjson.SetBytes(payload, "hl", lang); err != nil {
			return nil, fmt.Errorf("failed to build request: %w", err)
		}
	}
	return payload, nil
}

// stableID derives an id from the link (or title) so the same product maps
// to the same ministore_items row across searches.
func stableID(link, title string, idx int) string {
	key := link
	if key == "" {
		key = title
	}
	if key == "" {
		return strconv.Itoa(idx)
	}
	sum := sha1.Sum([]byte(key))
	return hex.EncodeToString(sum[:])
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 20 * time.Second}
}
