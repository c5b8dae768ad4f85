// Package processor turns PDF newsletters from the inbox into ministores and
// mails a digest of the results.
package processor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"ministore/internal/email"
	"ministore/internal/history"
	"ministore/internal/logging"
	"ministore/internal/pipeline"
)

// EmailFetcher lists recent emails with PDF attachments.
type EmailFetcher interface {
	FetchPDFEmails(ctx context.Context) ([]email.Message, error)
}

// EmailSender delivers digests and failure reports.
type EmailSender interface {
	SendDigest(results []email.AnalysisResult) error
	SendErrorNotification(errorMsg string) error
}

// DocumentAnalyzer runs the pipeline on one document.
type DocumentAnalyzer interface {
	AnalyzeDocument(ctx context.Context, r io.Reader, filename, sourceType string) (*pipeline.Result, error)
}

// Config controls retries and per-attachment time limits.
type Config struct {
	MaxRetries        int
	RetryDelay        time.Duration
	AttachmentTimeout time.Duration
}

// Processor orchestrates email fetching, PDF analysis and digest sending.
type Processor struct {
	config   Config
	fetcher  EmailFetcher
	sender   EmailSender
	analyzer DocumentAnalyzer
	logger   *zap.Logger
}

// NewProcessor creates a new inbox processor.
func NewProcessor(config Config, fetcher EmailFetcher, sender EmailSender, analyzer DocumentAnalyzer, logger *zap.Logger) *Processor {
	if config.MaxRetries < 1 {
		config.MaxRetries = 1
	}
	if config.AttachmentTimeout <= 0 {
		config.AttachmentTimeout = 5 * time.Minute
	}
	return &Processor{
		config:   config,
		fetcher:  fetcher,
		sender:   sender,
		analyzer: analyzer,
		logger:   logging.OrNop(logger),
	}
}

// ProcessEmails fetches emails, analyzes every PDF attachment and sends the
// digest. Attachment failures are reported in the digest, not returned.
func (p *Processor) ProcessEmails(ctx context.Context) error {
	results, err := p.analyzeInbox(ctx)
	if err != nil {
		p.reportPartial(results)
		return err
	}
	return p.sendDigest(results)
}

// analyzeInbox fetches emails and analyzes their attachments. When ctx ends
// mid-run it returns the results built so far together with ctx.Err().
func (p *Processor) analyzeInbox(ctx context.Context) ([]email.AnalysisResult, error) {
	p.logger.Info("starting inbox processing")

	messages, err := p.fetcher.FetchPDFEmails(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch emails: %w", err)
	}
	if len(messages) == 0 {
		p.logger.Info("no emails with PDF attachments found")
		return nil, nil
	}

	var results []email.AnalysisResult
	for _, msg := range messages {
		p.logger.Info("processing email", zap.String("subject", msg.Subject), zap.String("from", msg.From))
		for _, att := range msg.Attachments {
			if err := ctx.Err(); err != nil {
				return results, err
			}
			results = append(results, p.processAttachment(ctx, msg, att))
		}
	}
	return results, nil
}

func (p *Processor) sendDigest(results []email.AnalysisResult) error {
	if len(results) == 0 {
		return nil
	}
	if err := p.sender.SendDigest(results); err != nil {
		return fmt.Errorf("failed to send digest: %w", err)
	}
	p.logger.Info("digest sent", zap.Int("results", len(results)))
	return nil
}

// reportPartial logs the ministores an interrupted run created and mails
// its results.
func (p *Processor) reportPartial(results []email.AnalysisResult) {
	if len(results) == 0 {
		return
	}
	for _, r := range results {
		if len(r.Ministores) > 0 {
			p.logger.Warn("inbox run interrupted after creating ministores",
				zap.String("filename", r.Filename),
				zap.Strings("ministores", r.Ministores))
		}
	}
	if err := p.sendDigest(results); err != nil {
		p.logger.Error("failed to send partial digest", zap.Error(err))
	}
}

func (p *Processor) processAttachment(ctx context.Context, msg email.Message, att email.Attachment) email.AnalysisResult {
	result := email.AnalysisResult{
		Filename:     att.Filename,
		EmailSubject: msg.Subject,
		EmailFrom:    msg.From,
		EmailDate:    msg.Date,
	}

	ctx, cancel := context.WithTimeout(ctx, p.config.AttachmentTimeout)
	defer cancel()

	res, err := p.analyzer.AnalyzeDocument(ctx, bytes.NewReader(att.Data), att.Filename, history.SourceInbox)
	if err != nil {
		p.logger.Warn("attachment analysis failed", zap.String("filename", att.Filename), zap.Error(err))
		result.Error = err.Error()
		return result
	}

	result.Summary = res.Summary
	result.Topics = res.Topics
	result.Ministores = res.Ministores
	return result
}

// ProcessWithRetry runs the inbox job up to MaxRetries times, waiting
// RetryDelay between attempts. Attachments are analyzed at most once per
// call; after that only the digest is resent. When every attempt fails an
// error notification is mailed.
func (p *Processor) ProcessWithRetry(ctx context.Context) error {
	var (
		results  []email.AnalysisResult
		analyzed bool
		lastErr  error
	)
	for attempt := 1; attempt <= p.config.MaxRetries; attempt++ {
		var err error
		if !analyzed {
			results, err = p.analyzeInbox(ctx)
			if err != nil {
				p.reportPartial(results)
			}
			analyzed = err == nil
		}
		if analyzed {
			if err = p.sendDigest(results); err == nil {
				return nil
			}
		}

		lastErr = err
		p.logger.Warn("processing attempt failed",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", p.config.MaxRetries),
			zap.Bool("analyzed", analyzed),
			zap.Error(err))

		if ctx.Err() != nil {
			break
		}
		if attempt < p.config.MaxRetries {
			select {
			case <-ctx.Done():
			case <-time.After(p.config.RetryDelay):
			}
		}
	}

	p.logger.Error("all processing attempts failed, sending error notification", zap.Error(lastErr))
	if err := p.sender.SendErrorNotification(lastErr.Error()); err != nil {
		p.logger.Error("failed to send error notification", zap.Error(err))
	}
	return fmt.Errorf("all %d processing attempts failed: %w", p.config.MaxRetries, lastErr)
}
