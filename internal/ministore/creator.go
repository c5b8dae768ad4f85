// Package ministore turns commercial topics into shoppable ministore URLs.
package ministore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ministore/internal/search"
)

var (
	// ErrEmptyTopic is returned for a blank topic.
	ErrEmptyTopic = errors.New("topic is empty")
	// ErrTopicCount is returned when a creator gets the wrong number of topics.
	ErrTopicCount = errors.New("unexpected number of topics")
)

// Creator materializes one ministore per topic and returns their URLs in
// topic order.
type Creator interface {
	Create(ctx context.Context, topics []string) ([]string, error)
}

// Searcher finds items for a topic.
type Searcher interface {
	Search(ctx context.Context, query string, num int, lang string) ([]search.Item, error)
}

func checkTopics(topics []string, want int) error {
	if want > 0 && len(topics) != want {
		return fmt.Errorf("%w: want %d, got %d", ErrTopicCount, want, len(topics))
	}
	for _, t := range topics {
		if strings.TrimSpace(t) == "" {
			return ErrEmptyTopic
		}
	}
	return nil
}
