package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"ministore/internal/logging"
)

// ErrEmptyText is returned when there is nothing to summarize.
var ErrEmptyText = errors.New("article text is empty")

// Summarizer produces a summary and commercial topics for an article.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
	CommercialTopics(ctx context.Context, text string, n int) ([]string, error)
}

// Options configures an OpenAISummarizer.
type Options struct {
	APIKey  string
	BaseURL string
	Model   string

	MaxInputChars   int
	MaxSummaryChars int
	MaxTopicWords   int
	FallbackTopics  []string

	MaxRetries     int
	InitialBackoff time.Duration

	HTTPClient *http.Client
	Logger     *zap.Logger
}

// OpenAISummarizer talks to the chat completions API.
type OpenAISummarizer struct {
	client *openai.Client
	opts   Options
	logger *zap.Logger
}

// NewOpenAISummarizer creates a summarizer; zero-valued options get defaults.
func NewOpenAISummarizer(opts Options) (*OpenAISummarizer, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	if opts.Model == "" {
		opts.Model = "gpt-4o-mini"
	}
	if opts.MaxInputChars <= 0 {
		opts.MaxInputChars = 15000
	}
	if opts.MaxTopicWords <= 0 {
		opts.MaxTopicWords = 5
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = time.Second
	}

	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	if opts.HTTPClient != nil {
		cfg.HTTPClient = opts.HTTPClient
	}

	return &OpenAISummarizer{
		client: openai.NewClientWithConfig(cfg),
		opts:   opts,
		logger: logging.OrNop(opts.Logger),
	}, nil
}

// Summarize returns a Spanish prose summary of text.
func (s *OpenAISummarizer) Summarize(ctx context.Context, text string) (string, error) {
	trimmed, err := s.prepare(text)
	if err != nil {
		return "", err
	}

	answer, err := s.complete(ctx, 0.3, summarySystemPrompt, summaryUserPrompt(trimmed))
	if err != nil {
		return "", err
	}

	return LimitSummary(strings.TrimSpace(answer), s.opts.MaxSummaryChars), nil
}

// CommercialTopics returns exactly n short shopping-style queries for text.
func (s *OpenAISummarizer) CommercialTopics(ctx context.Context, text string, n int) ([]string, error) {
	if n < 1 {
		return nil, fmt.Errorf("topic count must be positive, got %d", n)
	}
	trimmed, err := s.prepare(text)
	if err != nil {
		return nil, err
	}

	answer, err := s.complete(ctx, 0.4, topicsSystemPrompt(n, s.opts.MaxTopicWords), topicsUserPrompt(trimmed, n, s.opts.MaxTopicWords))
	if err != nil {
		return nil, err
	}

	topics := NormalizeTopics(answer, n, s.opts.MaxTopicWords, s.opts.FallbackTopics)
	s.logger.Debug("extracted commercial topics", zap.Strings("topics", topics))
	return topics, nil
}

func (s *OpenAISummarizer) prepare(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", ErrEmptyText
	}
	runes := []rune(trimmed)
	if len(runes) > s.opts.MaxInputChars {
		trimmed = string(runes[:s.opts.MaxInputChars])
	}
	return trimmed, nil
}

// complete sends one chat completion, retrying rate-limited calls with
// exponential backoff capped at one minute.
func (s *OpenAISummarizer) complete(ctx context.Context, temperature float32, system, user string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: s.opts.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: temperature,
	}

	delay := s.opts.InitialBackoff
	for attempt := 0; attempt < s.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			s.logger.Info("retrying chat completion",
				zap.Int("attempt", attempt+1),
				zap.Int("max_attempts", s.opts.MaxRetries),
				zap.Duration("delay", delay))
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
			if delay > 60*time.Second {
				delay = 60 * time.Second
			}
		}

		resp, err := s.client.CreateChatCompletion(ctx, req)
		if err != nil {
			if isRateLimited(err) {
				s.logger.Warn("chat completion rate limited", zap.Int("attempt", attempt+1), zap.Error(err))
				if attempt < s.opts.MaxRetries-1 {
					continue
				}
				return "", fmt.Errorf("rate limit exceeded after %d attempts: %w", s.opts.MaxRetries, err)
			}
			return "", fmt.Errorf("failed to get chat completion: %w", err)
		}

		if len(resp.Choices) == 0 {
			return "", fmt.Errorf("no response from OpenAI")
		}
		return resp.Choices[0].Message.Content, nil
	}

	return "", fmt.Errorf("failed to get chat completion after %d attempts", s.opts.MaxRetries)
}

func isRateLimited(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
		return true
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode == http.StatusTooManyRequests {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") || strings.Contains(msg, "rate limit") || strings.Contains(msg, "too many requests")
}

// LimitSummary cuts summary to maxChars runes at a word boundary and marks
// the cut with "...". maxChars <= 0 disables the limit.
func LimitSummary(summary string, maxChars int) string {
	runes := []rune(summary)
	if maxChars <= 0 || len(runes) <= maxChars {
		return summary
	}
	cut := string(runes[:maxChars])
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return cut + "..."
}
