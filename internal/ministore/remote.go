package ministore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"go.uber.org/zap"

	"ministore/internal/logging"
)

// DefaultBookAPIURL is the endpoint that creates a book for a search term.
const DefaultBookAPIURL = "https://www.deanna2u.com/api/create_new_book"

// Resolver looks up the database id of a book by slug.
type Resolver interface {
	FindBookIDBySlug(ctx context.Context, slug string) (uint64, error)
}

// RemoteCreator asks the book platform API to build each book.
type RemoteCreator struct {
	APIURL     string
	APIKey     string
	UserID     int
	TopicCount int

	// Resolver is optional; when set, the created book id is logged.
	Resolver Resolver

	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Create requests one book per topic and returns the book URLs.
func (c *RemoteCreator) Create(ctx context.Context, topics []string) ([]string, error) {
	if c.APIKey == "" {
		return nil, fmt.Errorf("book API key is not set")
	}
	if err := checkTopics(topics, c.TopicCount); err != nil {
		return nil, err
	}

	logger := logging.OrNop(c.Logger)
	urls := make([]string, 0, len(topics))
	for _, topic := range topics {
		bookURL, err := c.createBook(ctx, strings.TrimSpace(topic))
		if err != nil {
			return nil, fmt.Errorf("topic %q: %w", topic, err)
		}
		urls = append(urls, bookURL)

		if c.Resolver == nil {
			continue
		}
		slug := ExtractSlug(bookURL)
		if slug == "" {
			logger.Warn("could not extract slug from book url", zap.String("book_url", bookURL))
			continue
		}
		id, err := c.Resolver.FindBookIDBySlug(ctx, slug)
		if err != nil {
			logger.Warn("book created but not found in database", zap.String("slug", slug), zap.Error(err))
			continue
		}
		logger.Info("remote book resolved", zap.String("slug", slug), zap.Uint64("book_id", id))
	}
	return urls, nil
}

func (c *RemoteCreator) createBook(ctx context.Context, term string) (string, error) {
	payload, err := sjson.SetBytes([]byte(`{}`), "term", term)
	if err == nil {
		payload, err = sjson.SetBytes(payload, "user_id", c.UserID)
	}
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}

	endpoint := c.APIURL
	if endpoint == "" {
		endpoint = DefaultBookAPIURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", c.APIKey)

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return "", fmt.Errorf("book API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read book API response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("book API error HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	doc := gjson.ParseBytes(body)
	bookURL := strings.TrimSpace(doc.Get("book_url").String())
	if !doc.Get("success").Bool() || bookURL == "" {
		return "", fmt.Errorf("book API returned unexpected response: %s", strings.TrimSpace(string(body)))
	}
	return bookURL, nil
}

func (c *RemoteCreator) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 25 * time.Second}
}

// ExtractSlug returns the last path segment of a book URL such as
// https://host/other/<slug>, or "" when the path is empty.
func ExtractSlug(bookURL string) string {
	u, err := url.Parse(strings.TrimSpace(bookURL))
	if err != nil {
		return ""
	}
	path := strings.Trim(u.Path, "/")
	if path == "" {
		return ""
	}
	parts := strings.Split(path, "/")
	return parts[len(parts)-1]
}
