package ministore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ministore/internal/search"
	"ministore/internal/store"
)

func newBookCreator(s BookStore, searcher Searcher) *BookCreator {
	return &BookCreator{
		Store:        s,
		Searcher:     searcher,
		UserID:       221,
		CategoryID:   1,
		Language:     "es",
		BaseURL:      "https://books.example/other/",
		TopicCount:   3,
		ItemsPerBook: 4,
		NumResults:   10,
		Now:          func() time.Time { return fixedNow },
	}
}

func TestBookCreatorCreatesOneBookPerTopic(t *testing.T) {
	ctx := context.Background()
	db := newSQLiteStore(t)
	searcher := &fakeSearcher{}
	c := newBookCreator(db, searcher)

	urls, err := c.Create(ctx, []string{"tiendas de campaña", "sacos de dormir", "linternas frontales"})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://books.example/other/ministore-1-18-10-2026-090507",
		"https://books.example/other/ministore-2-18-10-2026-090507",
		"https://books.example/other/ministore-3-18-10-2026-090507",
	}, urls)
	assert.Equal(t, []string{"tiendas de campaña", "sacos de dormir", "linternas frontales"}, searcher.queries)

	var books []store.Book
	require.NoError(t, db.DB().Order("id").Find(&books).Error)
	require.Len(t, books, 3)

	first := books[0]
	assert.Equal(t, "tiendas de campaña - 18/10/2026", first.Name)
	assert.Equal(t, "Ministore auto-generado para: tiendas de campaña", first.Description)
	assert.Equal(t, "2026-10-18 09:05:07", first.Created)
	assert.Equal(t, first.Created, first.HumanModified)
	assert.Equal(t, store.EmptyPHPArray, first.Tags)
	assert.Equal(t, store.EmptyPHPArray, first.CoverV3)
	assert.Equal(t, store.EmptyPHPArray, first.TypeFilters)
	assert.Equal(t, 221, first.UserID)
	assert.Equal(t, "es", first.UserLanguage)
	assert.EqualValues(t, 4, first.NumClips)
	assert.Zero(t, first.NumViews)

	var clips []store.Clipping
	require.NoError(t, db.DB().Where("book_id = ?", first.ID).Order("num").Find(&clips).Error)
	require.Len(t, clips, 4)
	assert.Equal(t, 1, clips[0].Num)
	assert.Equal(t, "tiendas de campaña producto 1", clips[0].Caption)
	assert.Equal(t, 4, clips[3].Num)
}

func TestBookCreatorDefaultCaption(t *testing.T) {
	ctx := context.Background()
	db := newSQLiteStore(t)
	searcher := &fakeSearcher{items: map[string][]search.Item{
		"velas": {{ID: "x", URL: "https://velas.example"}},
	}}
	c := newBookCreator(db, searcher)
	c.TopicCount = 1

	_, err := c.Create(ctx, []string{"velas"})
	require.NoError(t, err)

	var clip store.Clipping
	require.NoError(t, db.DB().First(&clip).Error)
	assert.Equal(t, "Producto relacionado", clip.Caption)
	assert.Equal(t, "https://velas.example", clip.URL)
}

func TestBookCreatorClipCountFailureIsNotFatal(t *testing.T) {
	db := newSQLiteStore(t)
	c := newBookCreator(&flakyBookStore{BookStore: db, clipCountErr: errBoom}, &fakeSearcher{})
	c.TopicCount = 1

	urls, err := c.Create(context.Background(), []string{"mochilas"})
	require.NoError(t, err)
	assert.Len(t, urls, 1)
}

func TestBookCreatorValidation(t *testing.T) {
	c := newBookCreator(newSQLiteStore(t), &fakeSearcher{})

	_, err := c.Create(context.Background(), []string{"uno", "dos"})
	assert.True(t, errors.Is(err, ErrTopicCount))

	_, err = c.Create(context.Background(), []string{"uno", " ", "tres"})
	assert.True(t, errors.Is(err, ErrEmptyTopic))
}

func TestBookCreatorSearchError(t *testing.T) {
	c := newBookCreator(newSQLiteStore(t), &fakeSearcher{err: search.ErrNoResults})
	_, err := c.Create(context.Background(), []string{"a", "b", "c"})
	assert.True(t, errors.Is(err, search.ErrNoResults))
}

func TestJoinURL(t *testing.T) {
	assert.Equal(t, "https://x.example/a", JoinURL("https://x.example///", "a"))
	assert.Equal(t, "https://x.example/a", JoinURL("https://x.example", "a"))
}
