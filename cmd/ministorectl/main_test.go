package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ministore/internal/history"
	"ministore/internal/pipeline"
)

func setStubEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("OPENAI_STUB", "true")
	t.Setenv("MINISTORE_MODE", "search")
	t.Setenv("SEARCH_BASE_URL", "https://shop.example/")
	t.Setenv("DATA_DIR", dir)
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("LOG_LEVEL", "error")
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestAnalyzeTextThenHistory(t *testing.T) {
	setStubEnv(t)

	out, err := execute(t, "analyze", "text", "Las bicicletas eléctricas ganan terreno en las ciudades. Los comercios amplían su oferta.")
	require.NoError(t, err)

	var res pipeline.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Len(t, res.Topics, 3)
	assert.Len(t, res.Ministores, 3)

	out, err = execute(t, "history", "--json", "--limit", "5")
	require.NoError(t, err)

	var records []history.Record
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	require.Len(t, records, 1)
	assert.Equal(t, history.SourceText, records[0].SourceType)
}

func TestInboxRequiresEnabled(t *testing.T) {
	setStubEnv(t)
	t.Setenv("INBOX_ENABLED", "false")

	_, err := execute(t, "inbox", "run")
	assert.ErrorContains(t, err, "INBOX_ENABLED")
}

func TestPDFTextMissingFile(t *testing.T) {
	setStubEnv(t)
	_, err := execute(t, "pdf-text", "does-not-exist.pdf")
	assert.Error(t, err)
}
