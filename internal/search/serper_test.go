package search

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

const shoppingResponse = `{
  "searchParameters": {"q": "botas montaña"},
  "shopping": [
    {"title": "Botas Trekking Gore-Tex", "link": "https://shop.example/botas-1", "productId": "p-1", "price": "89,99 €"},
    {"title": "", "link": ""},
    {"title": "Botas Senderismo Mujer", "productLink": "https://shop.example/botas-2", "description": "Impermeables"}
  ],
  "organic": [
    {"title": "Ignored", "link": "https://example.com"}
  ]
}`

func TestSearchShopping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "secret", r.Header.Get("X-API-KEY"))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "botas montaña", gjson.GetBytes(body, "q").String())
		assert.Equal(t, int64(10), gjson.GetBytes(body, "num").Int())
		assert.Equal(t, "es", gjson.GetBytes(body, "hl").String())
		_, _ = w.Write([]byte(shoppingResponse))
	}))
	defer srv.Close()

	c := NewClient("secret", srv.URL)
	items, err := c.Search(context.Background(), " botas montaña ", 10, "es")
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, Item{
		ID:       "p-1",
		Title:    "Botas Trekking Gore-Tex",
		URL:      "https://shop.example/botas-1",
		Keywords: "botas montaña",
		Language: "es",
	}, items[0])

	assert.Equal(t, "Botas Senderismo Mujer", items[1].Title)
	assert.Equal(t, "Impermeables", items[1].Description)
	assert.Equal(t, "https://shop.example/botas-2", items[1].URL)
	assert.Len(t, items[1].ID, 40, "missing product id falls back to a sha1 of the link")
}

func TestParseItemsFallsBackToOrganic(t *testing.T) {
	body := []byte(`{"shopping": [], "organic": [{"title": "Guía de compra", "link": "https://blog.example/guia", "snippet": "Todo sobre botas"}]}`)

	items, err := ParseItems(body, "botas", "es")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Todo sobre botas", items[0].Description)
}

func TestParseItemsStableIDs(t *testing.T) {
	body := []byte(`{"organic": [{"title": "A", "link": "https://x.example/a"}]}`)
	first, err := ParseItems(body, "q1", "es")
	require.NoError(t, err)
	second, err := ParseItems(body, "q2", "en")
	require.NoError(t, err)
	assert.Equal(t, first[0].ID, second[0].ID)
}

func TestParseItemsNoResults(t *testing.T) {
	_, err := ParseItems([]byte(`{"organic": [{"title": ""}]}`), "q", "es")
	assert.ErrorIs(t, err, ErrNoResults)

	_, err = ParseItems([]byte(`{}`), "q", "es")
	assert.ErrorIs(t, err, ErrNoResults)
}

func TestSearchHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := NewClient("bad", srv.URL).Search(context.Background(), "q", 5, "es")
	assert.ErrorContains(t, err, "serper HTTP error: 401")
}

func TestSearchRequiresKey(t *testing.T) {
	_, err := NewClient("", "").Search(context.Background(), "q", 5, "es")
	assert.ErrorContains(t, err, "API key")
}
