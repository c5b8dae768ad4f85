package ministore

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"

	"ministore/internal/search"
	"ministore/internal/store"
)

var fixedNow = time.Date(2026, 10, 18, 9, 5, 7, 0, time.UTC)

type fakeSearcher struct {
	mu      sync.Mutex
	queries []string
	items   map[string][]search.Item
	err     error
}

func (f *fakeSearcher) Search(_ context.Context, query string, _ int, lang string) ([]search.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}
	if items, ok := f.items[query]; ok {
		return items, nil
	}
	var out []search.Item
	for i := 1; i <= 6; i++ {
		out = append(out, search.Item{
			ID:          fmt.Sprintf("%s-%d", query, i),
			Title:       fmt.Sprintf("%s producto %d", query, i),
			Description: "descripción",
			URL:         fmt.Sprintf("https://shop.example/%d", i),
			Keywords:    query,
			Language:    lang,
		})
	}
	return out, nil
}

type flakyBookStore struct {
	BookStore
	clipCountErr error
}

func (f *flakyBookStore) SetClipCount(ctx context.Context, bookID uint64, n int64) error {
	if f.clipCountErr != nil {
		return f.clipCountErr
	}
	return f.BookStore.SetClipCount(ctx, bookID, n)
}

var errBoom = errors.New("boom")

func newSQLiteStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.OpenDialector(sqlite.Open(filepath.Join(t.TempDir(), "books.db")), nil)
	require.NoError(t, err)
	require.NoError(t, s.DB().AutoMigrate(&store.Book{}, &store.Clipping{}))
	t.Cleanup(func() { _ = s.Close() })
	return s
}
