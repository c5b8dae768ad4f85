package ministore

import (
	"context"
	"net/url"
	"strings"
)

// LinkCreator builds search-page URLs without touching any backend.
type LinkCreator struct {
	BaseURL    string
	TopicCount int
}

// Create returns "<BaseURL>?q=<topic>" for each topic.
func (c *LinkCreator) Create(_ context.Context, topics []string) ([]string, error) {
	if err := checkTopics(topics, c.TopicCount); err != nil {
		return nil, err
	}
	urls := make([]string, 0, len(topics))
	for _, t := range topics {
		urls = append(urls, c.BaseURL+"?q="+escapeQuery(t))
	}
	return urls, nil
}

// escapeQuery percent-encodes a topic for a query string, spaces as %20.
func escapeQuery(topic string) string {
	return strings.ReplaceAll(url.QueryEscape(strings.TrimSpace(topic)), "+", "%20")
}
