package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"ministore/internal/logging"
)

// StubSummarizer provides fake but realistic responses for offline runs
type StubSummarizer struct {
	fallbacks []string
	maxWords  int
	delay     time.Duration
	logger    *zap.Logger
}

// NewStubSummarizer creates a stub summarizer
func NewStubSummarizer(fallbacks []string, logger *zap.Logger) *StubSummarizer {
	return &StubSummarizer{
		fallbacks: fallbacks,
		maxWords:  5,
		delay:     50 * time.Millisecond,
		logger:    logging.OrNop(logger),
	}
}

// Summarize returns the first sentences of the text as a summary
func (s *StubSummarizer) Summarize(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyText
	}
	s.logger.Debug("STUB: summarizing text", zap.Int("chars", len(text)))
	if err := s.wait(ctx); err != nil {
		return "", err
	}

	sentences := strings.SplitAfter(strings.Join(strings.Fields(text), " "), ". ")
	if len(sentences) > 2 {
		sentences = sentences[:2]
	}
	return fmt.Sprintf("Resumen: %s", strings.TrimSpace(strings.Join(sentences, ""))), nil
}

// CommercialTopics derives topics from the most frequent long words
func (s *StubSummarizer) CommercialTopics(ctx context.Context, text string, n int) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	if n < 1 {
		return nil, fmt.Errorf("topic count must be positive, got %d", n)
	}
	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	var order []string
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, ".,;:!?¡¿\"'()[]")
		if len([]rune(w)) < 6 {
			continue
		}
		if counts[w] == 0 {
			order = append(order, w)
		}
		counts[w]++
	}

	var lines []string
	for len(lines) < n && len(order) > 0 {
		best := 0
		for i, w := range order {
			if counts[w] > counts[order[best]] {
				best = i
			}
		}
		lines = append(lines, "comprar "+order[best])
		order = append(order[:best], order[best+1:]...)
	}

	topics := NormalizeTopics(strings.Join(lines, "\n"), n, s.maxWords, s.fallbacks)
	s.logger.Debug("STUB: generated topics", zap.Strings("topics", topics))
	return topics, nil
}

func (s *StubSummarizer) wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.delay):
		return nil
	}
}
