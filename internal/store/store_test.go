package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenDialector(sqlite.Open(filepath.Join(t.TempDir(), "ministore.db")), nil)
	require.NoError(t, err)
	require.NoError(t, s.DB().AutoMigrate(&Book{}, &Clipping{}))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestCreateBookAndClippings(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	id, err := s.CreateBook(ctx, &Book{
		UserID:      221,
		Name:        "zapatillas running - 18/10/2026",
		Slug:        "ministore-1-18-10-2026-101500",
		Tags:        EmptyPHPArray,
		CoverV3:     EmptyPHPArray,
		TypeFilters: EmptyPHPArray,
	})
	require.NoError(t, err)
	assert.NotZero(t, id)

	n, err := s.CreateClippings(ctx, []Clipping{
		{BookID: id, Caption: "Zapatilla A", URL: "https://a.example", Num: 1},
		{BookID: id, Caption: "Zapatilla B", URL: "https://b.example", Num: 2},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	require.NoError(t, s.SetClipCount(ctx, id, n))

	var book Book
	require.NoError(t, s.DB().First(&book, id).Error)
	assert.EqualValues(t, 2, book.NumClips)
	assert.Equal(t, EmptyPHPArray, book.Tags)

	var clips []Clipping
	require.NoError(t, s.DB().Where("book_id = ?", id).Order("num").Find(&clips).Error)
	require.Len(t, clips, 2)
	assert.Equal(t, "Zapatilla A", clips[0].Caption)
}

func TestCreateClippingsEmpty(t *testing.T) {
	s := newTestStore(t)
	n, err := s.CreateClippings(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestFindBookIDBySlug(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	id, err := s.CreateBook(ctx, &Book{Slug: "viajes-baratos"})
	require.NoError(t, err)

	found, err := s.FindBookIDBySlug(ctx, "viajes-baratos")
	require.NoError(t, err)
	assert.Equal(t, id, found)

	_, err = s.FindBookIDBySlug(ctx, "missing")
	assert.True(t, errors.Is(err, ErrBookNotFound))
}

func TestCatalogUpsertAndLink(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.EnsureCatalogTables(ctx))
	// Running it twice must be harmless.
	require.NoError(t, s.EnsureCatalogTables(ctx))

	_, err := s.UpsertItems(ctx, []MinistoreItem{
		{ID: "p1", Title: "Tienda 1", URL: "https://one.example", Keywords: "camping", Language: "es"},
		{ID: "p2", Title: "Tienda 2", URL: "https://two.example", Keywords: "camping", Language: "es"},
	})
	require.NoError(t, err)

	_, err = s.UpsertItems(ctx, []MinistoreItem{
		{ID: "p1", Title: "Tienda 1 renovada", URL: "https://one.example", Keywords: "camping", Language: "es"},
	})
	require.NoError(t, err)

	var count int64
	require.NoError(t, s.DB().Model(&MinistoreItem{}).Count(&count).Error)
	assert.EqualValues(t, 2, count)

	m := &Ministore{ID: "abc123", Topic: "camping", Language: "es", CreatedAt: 1760000000}
	require.NoError(t, s.CreateMinistore(ctx, m))

	links := []MinistoreItemMap{
		{MinistoreID: m.ID, ItemID: "p2", Pos: 0},
		{MinistoreID: m.ID, ItemID: "p1", Pos: 1},
	}
	require.NoError(t, s.LinkItems(ctx, links))
	require.NoError(t, s.LinkItems(ctx, links))

	items, err := s.MinistoreItems(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "p2", items[0].ID)
	assert.Equal(t, "Tienda 1 renovada", items[1].Title)
}

func TestEnsureCatalogTablesLeavesBookTablesAlone(t *testing.T) {
	s, err := OpenDialector(sqlite.Open(filepath.Join(t.TempDir(), "catalog.db")), nil)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.EnsureCatalogTables(context.Background()))
	assert.True(t, s.DB().Migrator().HasTable("ministores"))
	assert.False(t, s.DB().Migrator().HasTable("cliperest_book"))
}

func TestPing(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.Ping(context.Background()))
}
