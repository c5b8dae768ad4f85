package ministore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ministore/internal/logging"
	"ministore/internal/search"
	"ministore/internal/store"
)

// CatalogStore persists ministores in the shared item catalog.
type CatalogStore interface {
	EnsureCatalogTables(ctx context.Context) error
	UpsertItems(ctx context.Context, items []store.MinistoreItem) (int64, error)
	CreateMinistore(ctx context.Context, m *store.Ministore) error
	LinkItems(ctx context.Context, links []store.MinistoreItemMap) error
}

// CatalogCreator writes a ministores row per topic and links catalog items
// to it.
type CatalogCreator struct {
	Store    CatalogStore
	Searcher Searcher

	Language   string
	BaseURL    string
	TopicCount int
	MaxItems   int
	NumResults int

	Logger *zap.Logger
	Now    func() time.Time
	NewID  func() string
}

// Create builds the ministores in topic order.
func (c *CatalogCreator) Create(ctx context.Context, topics []string) ([]string, error) {
	if err := checkTopics(topics, c.TopicCount); err != nil {
		return nil, err
	}
	if err := c.Store.EnsureCatalogTables(ctx); err != nil {
		return nil, err
	}

	urls := make([]string, 0, len(topics))
	for _, topic := range topics {
		id, err := c.createMinistore(ctx, strings.TrimSpace(topic))
		if err != nil {
			return nil, fmt.Errorf("topic %q: %w", topic, err)
		}
		urls = append(urls, JoinURL(c.BaseURL, id))
	}
	return urls, nil
}

func (c *CatalogCreator) createMinistore(ctx context.Context, topic string) (string, error) {
	found, err := c.Searcher.Search(ctx, topic, c.NumResults, c.Language)
	if err != nil {
		return "", err
	}

	items := toCatalogItems(found)
	if _, err := c.Store.UpsertItems(ctx, items); err != nil {
		return "", err
	}

	m := &store.Ministore{
		ID:        c.newID(),
		Topic:     topic,
		Language:  c.Language,
		CreatedAt: c.now().Unix(),
	}
	if err := c.Store.CreateMinistore(ctx, m); err != nil {
		return "", err
	}

	linked := items
	if c.MaxItems > 0 && len(linked) > c.MaxItems {
		linked = linked[:c.MaxItems]
	}
	links := make([]store.MinistoreItemMap, 0, len(linked))
	for pos, item := range linked {
		links = append(links, store.MinistoreItemMap{MinistoreID: m.ID, ItemID: item.ID, Pos: pos})
	}
	if err := c.Store.LinkItems(ctx, links); err != nil {
		return "", err
	}

	logging.OrNop(c.Logger).Info("ministore created",
		zap.String("topic", topic),
		zap.String("ministore_id", m.ID),
		zap.Int("items", len(links)))
	return m.ID, nil
}

// toCatalogItems converts search results, keeping the first occurrence of
// each id so a single upsert never touches the same row twice.
func toCatalogItems(found []search.Item) []store.MinistoreItem {
	seen := make(map[string]bool, len(found))
	items := make([]store.MinistoreItem, 0, len(found))
	for _, it := range found {
		if seen[it.ID] {
			continue
		}
		seen[it.ID] = true
		items = append(items, store.MinistoreItem{
			ID:          it.ID,
			Title:       it.Title,
			Description: it.Description,
			URL:         it.URL,
			Keywords:    it.Keywords,
			Language:    it.Language,
		})
	}
	return items
}

func (c *CatalogCreator) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c *CatalogCreator) newID() string {
	if c.NewID != nil {
		return c.NewID()
	}
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
