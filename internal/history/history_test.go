package history

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndRecent(t *testing.T) {
	log, err := Open(filepath.Join(t.TempDir(), "data"))
	require.NoError(t, err)

	base := time.Date(2026, 10, 18, 8, 0, 0, 0, time.FixedZone("CEST", 2*3600))
	tick := 0
	log.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	first, err := log.Save(Record{SourceType: SourceURL, SourceName: "https://news.example/a", Summary: "uno", Topics: []string{"a"}})
	require.NoError(t, err)
	assert.Equal(t, "2026-10-18T06:00:01Z", first.CreatedAt)
	assert.Equal(t, "url-2026-10-18T06:00:01Z", first.ID)
	assert.Equal(t, "es", first.Language)

	_, err = log.Save(Record{SourceType: SourcePDF, SourceName: "informe.pdf", Summary: "dos", Language: "en"})
	require.NoError(t, err)
	_, err = log.Save(Record{SourceType: SourceText, Summary: "tres"})
	require.NoError(t, err)

	recent, err := log.Recent(2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "tres", recent[0].Summary)
	assert.Equal(t, "dos", recent[1].Summary)
	assert.Equal(t, "en", recent[1].Language)

	all, err := log.Recent(0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, []string{"a"}, all[2].Topics)
}

func TestAllMissingFile(t *testing.T) {
	log, err := Open(t.TempDir())
	require.NoError(t, err)

	records, err := log.All()
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.NotNil(t, records)
}

func TestAllSkipsBlankLines(t *testing.T) {
	dir := t.TempDir()
	content := `{"id":"pdf-1","source_type":"pdf","source_name":"a.pdf","language":"es","created_at":"1","summary":"s"}

   
{"id":"url-2","source_type":"url","source_name":"u","language":"es","created_at":"2","summary":"t"}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o644))

	log, err := Open(dir)
	require.NoError(t, err)
	records, err := log.All()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "url-2", records[1].ID)
}

func TestAllReportsCorruptLine(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("{not json}\n"), 0o644))

	log, err := Open(dir)
	require.NoError(t, err)
	_, err = log.All()
	assert.ErrorContains(t, err, "line 1")
}

func TestConcurrentSaves(t *testing.T) {
	log, err := Open(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := log.Save(Record{SourceType: SourceInbox, Summary: "concurrente"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	records, err := log.All()
	require.NoError(t, err)
	assert.Len(t, records, 20)
}

func TestSaveKeepsMarkupReadable(t *testing.T) {
	log, err := Open(t.TempDir())
	require.NoError(t, err)

	_, err = log.Save(Record{SourceType: SourceText, Summary: "Ofertas <b>Tom & Jerry</b> en Málaga"})
	require.NoError(t, err)

	raw, err := os.ReadFile(log.Path())
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"summary":"Ofertas <b>Tom & Jerry</b> en Málaga"`)
	assert.NotContains(t, string(raw), `\u003c`)
	assert.Equal(t, 1, strings.Count(string(raw), "\n"))

	records, err := log.All()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Ofertas <b>Tom & Jerry</b> en Málaga", records[0].Summary)
}
