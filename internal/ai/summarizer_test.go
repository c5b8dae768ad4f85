package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completionBody(content string) string {
	resp := map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "gpt-4o-mini",
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]string{"role": "assistant", "content": content},
			"finish_reason": "stop",
		}},
	}
	b, _ := json.Marshal(resp)
	return string(b)
}

func newTestSummarizer(t *testing.T, handler http.HandlerFunc, opts Options) *OpenAISummarizer {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	opts.APIKey = "sk-test"
	opts.BaseURL = srv.URL + "/v1"
	if opts.InitialBackoff == 0 {
		opts.InitialBackoff = time.Millisecond
	}
	s, err := NewOpenAISummarizer(opts)
	require.NoError(t, err)
	return s
}

func TestNewOpenAISummarizerRequiresKey(t *testing.T) {
	_, err := NewOpenAISummarizer(Options{})
	assert.Error(t, err)
}

func TestSummarize(t *testing.T) {
	var got openai.ChatCompletionRequest
	s := newTestSummarizer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionBody("  El ayuntamiento aprobó el nuevo parque.  ")))
	}, Options{MaxInputChars: 10})

	summary, err := s.Summarize(context.Background(), "  abcdefghijklmnop  ")
	require.NoError(t, err)
	assert.Equal(t, "El ayuntamiento aprobó el nuevo parque.", summary)

	require.Len(t, got.Messages, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, got.Messages[0].Role)
	assert.True(t, strings.HasSuffix(got.Messages[1].Content, "abcdefghij"), "input must be truncated")
	assert.InDelta(t, 0.3, got.Temperature, 0.001)
	assert.Equal(t, "gpt-4o-mini", got.Model)
}

func TestSummarizeLimitsLength(t *testing.T) {
	s := newTestSummarizer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(completionBody("uno dos tres cuatro")))
	}, Options{MaxSummaryChars: 10})

	summary, err := s.Summarize(context.Background(), "texto")
	require.NoError(t, err)
	assert.Equal(t, "uno dos...", summary)
}

func TestSummarizeEmptyText(t *testing.T) {
	s := newTestSummarizer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	}, Options{})

	_, err := s.Summarize(context.Background(), " \n\t ")
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestCommercialTopics(t *testing.T) {
	var got openai.ChatCompletionRequest
	s := newTestSummarizer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(completionBody("1. rutas senderismo Picos Europa\n2. botas montaña impermeables hombre mujer\n")))
	}, Options{FallbackTopics: []string{"material de acampada"}})

	topics, err := s.CommercialTopics(context.Background(), "Artículo sobre senderismo.", 3)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"rutas senderismo Picos Europa",
		"botas montaña impermeables hombre mujer",
		"material de acampada",
	}, topics)
	assert.InDelta(t, 0.4, got.Temperature, 0.001)
	assert.Contains(t, got.Messages[0].Content, "EXACTAMENTE 3")
}

func TestCommercialTopicsRetriesRateLimit(t *testing.T) {
	var calls int32
	s := newTestSummarizer(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":{"message":"Rate limit reached","type":"requests","code":"rate_limit_exceeded"}}`))
			return
		}
		_, _ = w.Write([]byte(completionBody("a\nb")))
	}, Options{})

	topics, err := s.CommercialTopics(context.Background(), "texto", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, topics)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestCompleteGivesUpAfterMaxRetries(t *testing.T) {
	var calls int32
	s := newTestSummarizer(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"Rate limit reached","type":"requests"}}`))
	}, Options{MaxRetries: 2})

	_, err := s.Summarize(context.Background(), "texto")
	assert.ErrorContains(t, err, "rate limit exceeded after 2 attempts")
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestCompleteDoesNotRetryOtherErrors(t *testing.T) {
	var calls int32
	s := newTestSummarizer(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key","type":"invalid_request_error"}}`))
	}, Options{})

	_, err := s.Summarize(context.Background(), "texto")
	assert.ErrorContains(t, err, "failed to get chat completion")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestCompleteNoChoices(t *testing.T) {
	s := newTestSummarizer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[]}`))
	}, Options{})

	_, err := s.Summarize(context.Background(), "texto")
	assert.ErrorContains(t, err, "no response from OpenAI")
}

func TestIsRateLimited(t *testing.T) {
	assert.True(t, isRateLimited(&openai.APIError{HTTPStatusCode: http.StatusTooManyRequests}))
	assert.True(t, isRateLimited(errors.New("Too Many Requests")))
	assert.False(t, isRateLimited(errors.New("connection reset")))
}
