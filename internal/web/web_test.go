package web

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractArticleTextPrefersArticleParagraphs(t *testing.T) {
	page := `<html><head><title>x</title><script>var tracking = 1;</script></head>
	<body>
		<nav><p>Menu principal</p></nav>
		<article>
			<h1>Titular</h1>
			<p>Primer   párrafo del artículo.</p>
			<p>   </p>
			<div><p>Segundo párrafo
			con salto.</p></div>
		</article>
		<footer><p>Aviso legal</p></footer>
	</body></html>`

	text := ExtractArticleText(page, 0)
	assert.Equal(t, "Primer párrafo del artículo. Segundo párrafo con salto.", text)
}

func TestExtractArticleTextFallsBackToAllParagraphs(t *testing.T) {
	page := `<html><body><div><p>Uno.</p></div><section><p>Dos.</p></section></body></html>`
	assert.Equal(t, "Uno. Dos.", ExtractArticleText(page, 0))
}

func TestExtractArticleTextFallsBackToBody(t *testing.T) {
	page := `<html><body><style>body{}</style><div>Solo texto</div><span>suelto</span><noscript>activa js</noscript></body></html>`
	assert.Equal(t, "Solo texto suelto", ExtractArticleText(page, 0))
}

func TestExtractArticleTextTruncatesRunes(t *testing.T) {
	page := `<article><p>áéíóú áéíóú</p></article>`
	assert.Equal(t, "áéí", ExtractArticleText(page, 3))
}

func TestNormalizeURL(t *testing.T) {
	assert.Equal(t, "https://example.com/a", NormalizeURL("  example.com/a "))
	assert.Equal(t, "http://example.com", NormalizeURL("http://example.com"))
	assert.Equal(t, "HTTPS://example.com", NormalizeURL("HTTPS://example.com"))
	assert.Equal(t, "", NormalizeURL("   "))
}

func TestFetcherFetchArticle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("User-Agent"), "MinistoreSummarizerBot")
		assert.Contains(t, r.Header.Get("Accept"), "text/html")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<article><p>Las rebajas llegan a Vigo.</p></article>`))
	}))
	defer srv.Close()

	f := NewFetcher(5 * time.Second)
	text, err := f.FetchArticle(context.Background(), srv.URL, 15000)
	require.NoError(t, err)
	assert.Equal(t, "Las rebajas llegan a Vigo.", text)
}

func TestFetcherNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := NewFetcher(5*time.Second).Fetch(context.Background(), srv.URL)
	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, http.StatusForbidden, fetchErr.StatusCode)
	assert.Contains(t, err.Error(), "HTTP 403")
}

func TestFetcherEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	_, err := NewFetcher(5*time.Second).Fetch(context.Background(), srv.URL)
	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.True(t, strings.Contains(err.Error(), "empty body"))
}

func TestFetcherTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewFetcher(time.Second).Fetch(context.Background(), url)
	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Zero(t, fetchErr.StatusCode)
}
