// Package pipeline runs the article → summary → topics → ministores flow
// for text, web pages and PDF documents.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"ministore/internal/ai"
	"ministore/internal/history"
	"ministore/internal/logging"
	"ministore/internal/ministore"
	"ministore/internal/pdf"
	"ministore/internal/web"
)

var (
	// ErrEmptyInput is returned for blank text or URL input.
	ErrEmptyInput = errors.New("empty input")
	// ErrNoText is returned when no text could be extracted from a source.
	ErrNoText = errors.New("no se ha podido extraer texto del documento")
	// ErrTopicCount is returned when the summarizer yields the wrong number of topics.
	ErrTopicCount = errors.New("failed to extract the expected number of topics")
	// ErrMinistoreCount is returned when the creator yields the wrong number of URLs.
	ErrMinistoreCount = errors.New("failed to create the expected number of ministores")
)

// Result is the outcome of one analysis.
type Result struct {
	Summary    string   `json:"summary"`
	Topics     []string `json:"topics"`
	Ministores []string `json:"ministores"`
}

// ArticleFetcher downloads a page and reduces it to article text.
type ArticleFetcher interface {
	FetchArticle(ctx context.Context, url string, maxChars int) (string, error)
}

// Recorder persists analysis records.
type Recorder interface {
	Save(rec history.Record) (history.Record, error)
}

// Options wires an Analyzer.
type Options struct {
	Summarizer ai.Summarizer
	Creator    ministore.Creator
	Fetcher    ArticleFetcher
	History    Recorder

	// ExtractPDF defaults to pdf.ExtractText.
	ExtractPDF func(io.Reader) (string, error)

	TopicCount    int
	MaxInputChars int
	Language      string

	Logger *zap.Logger
}

// Analyzer composes the summarizer, the ministore creator and the sources.
type Analyzer struct {
	opts   Options
	logger *zap.Logger
}

// NewAnalyzer creates an Analyzer.
func NewAnalyzer(opts Options) *Analyzer {
	if opts.TopicCount <= 0 {
		opts.TopicCount = 3
	}
	if opts.ExtractPDF == nil {
		opts.ExtractPDF = pdf.ExtractText
	}
	if opts.Language == "" {
		opts.Language = "es"
	}
	return &Analyzer{opts: opts, logger: logging.OrNop(opts.Logger)}
}

// TopicCount is the number of topics and ministores every result carries.
func (a *Analyzer) TopicCount() int {
	return a.opts.TopicCount
}

// AnalyzeText analyzes raw article text.
func (a *Analyzer) AnalyzeText(ctx context.Context, text string) (*Result, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: text", ErrEmptyInput)
	}
	return a.run(ctx, history.SourceText, "", text)
}

// AnalyzeURL fetches a page and analyzes its article text.
func (a *Analyzer) AnalyzeURL(ctx context.Context, url string) (*Result, error) {
	url = web.NormalizeURL(url)
	if url == "" {
		return nil, fmt.Errorf("%w: url", ErrEmptyInput)
	}
	if a.opts.Fetcher == nil {
		return nil, fmt.Errorf("no page fetcher configured")
	}

	text, err := a.opts.Fetcher.FetchArticle(ctx, url, a.opts.MaxInputChars)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrNoText
	}
	return a.run(ctx, history.SourceURL, url, text)
}

// AnalyzePDF extracts the text of a PDF document and analyzes it.
func (a *Analyzer) AnalyzePDF(ctx context.Context, r io.Reader, filename string) (*Result, error) {
	return a.AnalyzeDocument(ctx, r, filename, history.SourcePDF)
}

// AnalyzeDocument is AnalyzePDF with an explicit history source type.
func (a *Analyzer) AnalyzeDocument(ctx context.Context, r io.Reader, filename, sourceType string) (*Result, error) {
	text, err := a.opts.ExtractPDF(r)
	if err != nil {
		return nil, fmt.Errorf("failed to extract text from %s: %w", filename, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrNoText
	}
	a.logger.Debug("extracted document text", zap.String("filename", filename), zap.Int("chars", len(text)))
	return a.run(ctx, sourceType, filename, text)
}

func (a *Analyzer) run(ctx context.Context, sourceType, sourceName, text string) (*Result, error) {
	n := a.opts.TopicCount

	var summary string
	var topics []string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		summary, err = a.opts.Summarizer.Summarize(gctx, text)
		if err != nil {
			return fmt.Errorf("failed to summarize: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		topics, err = a.opts.Summarizer.CommercialTopics(gctx, text, n)
		if err != nil {
			return fmt.Errorf("failed to extract topics: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(topics) != n {
		return nil, fmt.Errorf("%w: want %d, got %d", ErrTopicCount, n, len(topics))
	}

	urls, err := a.opts.Creator.Create(ctx, topics)
	if err != nil {
		return nil, fmt.Errorf("failed to create ministores: %w", err)
	}
	if len(urls) != n {
		return nil, fmt.Errorf("%w: want %d, got %d", ErrMinistoreCount, n, len(urls))
	}

	result := &Result{Summary: summary, Topics: topics, Ministores: urls}
	a.record(sourceType, sourceName, result)

	a.logger.Info("analysis complete",
		zap.String("source_type", sourceType),
		zap.String("source_name", sourceName),
		zap.Strings("topics", topics))
	return result, nil
}

func (a *Analyzer) record(sourceType, sourceName string, result *Result) {
	if a.opts.History == nil {
		return
	}
	_, err := a.opts.History.Save(history.Record{
		SourceType: sourceType,
		SourceName: sourceName,
		Language:   a.opts.Language,
		Summary:    result.Summary,
		Topics:     result.Topics,
		Ministores: result.Ministores,
	})
	if err != nil {
		a.logger.Warn("failed to save history record", zap.String("source_type", sourceType), zap.Error(err))
	}
}
