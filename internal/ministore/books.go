package ministore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"ministore/internal/logging"
	"ministore/internal/store"
)

const (
	defaultCaption = "Producto relacionado"

	slugLayout    = "02-01-2006-150405"
	dayLayout     = "02/01/2006"
	createdLayout = "2006-01-02 15:04:05"
)

// BookStore persists books and their clippings.
type BookStore interface {
	CreateBook(ctx context.Context, book *store.Book) (uint64, error)
	CreateClippings(ctx context.Context, clippings []store.Clipping) (int64, error)
	SetClipCount(ctx context.Context, bookID uint64, n int64) error
}

// BookCreator writes one cliperest book per topic.
type BookCreator struct {
	Store    BookStore
	Searcher Searcher

	UserID       int
	CategoryID   int
	Language     string
	BaseURL      string
	TopicCount   int
	ItemsPerBook int
	NumResults   int

	Logger *zap.Logger
	Now    func() time.Time
}

// Create builds the books in topic order. The i-th topic gets the slug
// prefix "ministore-<i>".
func (c *BookCreator) Create(ctx context.Context, topics []string) ([]string, error) {
	if err := checkTopics(topics, c.TopicCount); err != nil {
		return nil, err
	}

	urls := make([]string, 0, len(topics))
	for i, topic := range topics {
		url, err := c.createBook(ctx, i+1, strings.TrimSpace(topic))
		if err != nil {
			return nil, fmt.Errorf("topic %q: %w", topic, err)
		}
		urls = append(urls, url)
	}
	return urls, nil
}

func (c *BookCreator) createBook(ctx context.Context, index int, topic string) (string, error) {
	logger := logging.OrNop(c.Logger)

	items, err := c.Searcher.Search(ctx, topic, c.NumResults, c.Language)
	if err != nil {
		return "", err
	}
	if c.ItemsPerBook > 0 && len(items) > c.ItemsPerBook {
		items = items[:c.ItemsPerBook]
	}

	now := c.now()
	created := now.Format(createdLayout)
	slug := fmt.Sprintf("ministore-%d-%s", index, now.Format(slugLayout))

	book := &store.Book{
		UserID:        c.UserID,
		Name:          fmt.Sprintf("%s - %s", topic, now.Format(dayLayout)),
		Slug:          slug,
		Version:       1,
		CategoryID:    c.CategoryID,
		Modified:      created,
		Created:       created,
		Description:   "Ministore auto-generado para: " + topic,
		Tags:          store.EmptyPHPArray,
		UserLanguage:  c.Language,
		HumanModified: created,
		CoverV3:       store.EmptyPHPArray,
		TypeFilters:   store.EmptyPHPArray,
	}
	bookID, err := c.Store.CreateBook(ctx, book)
	if err != nil {
		return "", err
	}

	clippings := make([]store.Clipping, 0, len(items))
	for i, item := range items {
		caption := strings.TrimSpace(item.Title)
		if caption == "" {
			caption = defaultCaption
		}
		clippings = append(clippings, store.Clipping{
			BookID:   bookID,
			Caption:  caption,
			Text:     strings.TrimSpace(item.Description),
			URL:      strings.TrimSpace(item.URL),
			Created:  created,
			Num:      i + 1,
			Modified: created,
		})
	}
	inserted, err := c.Store.CreateClippings(ctx, clippings)
	if err != nil {
		return "", err
	}

	if err := c.Store.SetClipCount(ctx, bookID, inserted); err != nil {
		logger.Warn("failed to update clip count", zap.Uint64("book_id", bookID), zap.Error(err))
	}

	logger.Info("book created",
		zap.String("topic", topic),
		zap.Uint64("book_id", bookID),
		zap.String("slug", slug),
		zap.Int64("clippings", inserted))

	return JoinURL(c.BaseURL, slug), nil
}

func (c *BookCreator) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// JoinURL appends a path segment to base, dropping trailing slashes of base.
func JoinURL(base, segment string) string {
	return strings.TrimRight(base, "/") + "/" + segment
}
