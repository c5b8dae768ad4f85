// Package app builds the components shared by the server and the CLI and
// exposes them as an fx module.
package app

import (
	"context"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"ministore/internal/ai"
	"ministore/internal/config"
	"ministore/internal/email"
	"ministore/internal/history"
	"ministore/internal/logging"
	"ministore/internal/ministore"
	"ministore/internal/pipeline"
	"ministore/internal/processor"
	"ministore/internal/scheduler"
	"ministore/internal/search"
	"ministore/internal/store"
	"ministore/internal/web"
)

// Module provides every component from the loaded configuration.
var Module = fx.Options(
	fx.Provide(
		config.Load,
		NewLogger,
		provideStore,
		NewSummarizer,
		NewCreator,
		NewHistory,
		NewFetcher,
		NewAnalyzer,
		NewInbox,
		NewScheduler,
	),
)

// NewLogger builds the zap logger from LOG_LEVEL and LOG_FORMAT.
func NewLogger(cfg *config.Config) (*zap.Logger, error) {
	return logging.New(cfg.LogLevel, cfg.LogFormat)
}

// OpenStore connects to MySQL, or returns nil when no DB is configured.
func OpenStore(cfg *config.Config, logger *zap.Logger) (*store.Store, error) {
	if !cfg.HasDB() {
		return nil, nil
	}
	return store.Open(cfg.DSN(), logger)
}

func provideStore(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) (*store.Store, error) {
	st, err := OpenStore(cfg, logger)
	if err != nil || st == nil {
		return st, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error { return st.Close() },
	})
	return st, nil
}

// NewSummarizer returns the OpenAI summarizer, or canned answers when
// OPENAI_STUB is set.
func NewSummarizer(cfg *config.Config, logger *zap.Logger) (ai.Summarizer, error) {
	if cfg.OpenAIStub {
		logger.Info("using stubbed summarizer")
		return ai.NewStubSummarizer(cfg.FallbackTopics, logger), nil
	}
	s, err := ai.NewOpenAISummarizer(ai.Options{
		APIKey:          cfg.OpenAIAPIKey,
		BaseURL:         cfg.OpenAIBaseURL,
		Model:           cfg.OpenAIModel,
		MaxInputChars:   cfg.MaxInputChars,
		MaxSummaryChars: cfg.MaxSummaryChars,
		MaxTopicWords:   cfg.TopicMaxWords,
		FallbackTopics:  cfg.FallbackTopics,
		Logger:          logger,
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// NewCreator returns the ministore creator selected by MINISTORE_MODE.
// st may be nil unless the mode writes to the database.
func NewCreator(cfg *config.Config, st *store.Store, logger *zap.Logger) (ministore.Creator, error) {
	searcher := search.NewClient(cfg.SerperAPIKey, cfg.SerperURL)

	switch cfg.MinistoreMode {
	case config.ModeBooks:
		if st == nil {
			return nil, fmt.Errorf("ministore mode %q needs a database", cfg.MinistoreMode)
		}
		return &ministore.BookCreator{
			Store:        st,
			Searcher:     searcher,
			UserID:       cfg.UserID,
			CategoryID:   cfg.CategoryID,
			Language:     cfg.Language,
			BaseURL:      cfg.BookBaseURL,
			TopicCount:   cfg.TopicCount,
			ItemsPerBook: cfg.ItemsPerBook,
			NumResults:   cfg.SearchNumResults,
			Logger:       logger,
		}, nil
	case config.ModeCatalog:
		if st == nil {
			return nil, fmt.Errorf("ministore mode %q needs a database", cfg.MinistoreMode)
		}
		return &ministore.CatalogCreator{
			Store:      st,
			Searcher:   searcher,
			Language:   cfg.Language,
			BaseURL:    cfg.CatalogBaseURL,
			TopicCount: cfg.TopicCount,
			MaxItems:   cfg.CatalogItems,
			NumResults: cfg.SearchNumResults,
			Logger:     logger,
		}, nil
	case config.ModeAPI:
		c := &ministore.RemoteCreator{
			APIURL:     cfg.BookAPIURL,
			APIKey:     cfg.BookAPIKey,
			UserID:     cfg.UserID,
			TopicCount: cfg.TopicCount,
			Logger:     logger,
		}
		if st != nil {
			c.Resolver = st
		}
		return c, nil
	case config.ModeSearch:
		return &ministore.LinkCreator{BaseURL: cfg.SearchBaseURL, TopicCount: cfg.TopicCount}, nil
	}
	return nil, fmt.Errorf("unknown ministore mode %q", cfg.MinistoreMode)
}

// NewHistory opens the JSONL history in DATA_DIR.
func NewHistory(cfg *config.Config) (*history.Log, error) {
	return history.Open(cfg.DataDir)
}

// NewFetcher returns the article page fetcher.
func NewFetcher(cfg *config.Config) *web.Fetcher {
	return web.NewFetcher(cfg.FetchTimeout)
}

// NewAnalyzer wires the pipeline.
func NewAnalyzer(cfg *config.Config, s ai.Summarizer, c ministore.Creator, f *web.Fetcher, h *history.Log, logger *zap.Logger) *pipeline.Analyzer {
	return pipeline.NewAnalyzer(pipeline.Options{
		Summarizer:    s,
		Creator:       c,
		Fetcher:       f,
		History:       h,
		TopicCount:    cfg.TopicCount,
		MaxInputChars: cfg.MaxInputChars,
		Language:      cfg.Language,
		Logger:        logger,
	})
}

// NewInbox builds the inbox processor, or nil when INBOX_ENABLED is off.
func NewInbox(cfg *config.Config, analyzer *pipeline.Analyzer, logger *zap.Logger) *processor.Processor {
	if !cfg.InboxEnabled {
		return nil
	}
	fetcher := email.NewFetcher(email.FetcherConfig{
		Server:   cfg.IMAPServer,
		Port:     cfg.IMAPPort,
		Username: cfg.IMAPUsername,
		Password: cfg.IMAPPassword,
		Folder:   cfg.IMAPFolder,
	}, logger)
	sender := email.NewSender(email.SenderConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		To:       cfg.SMTPTo,
	}, logger)
	return processor.NewProcessor(processor.Config{
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
	}, fetcher, sender, analyzer, logger)
}

// NewScheduler schedules the inbox processor, or returns nil when the inbox
// is disabled.
func NewScheduler(cfg *config.Config, proc *processor.Processor, logger *zap.Logger) *scheduler.Scheduler {
	if proc == nil {
		return nil
	}
	return scheduler.NewScheduler(proc, scheduler.Config{CronSchedule: cfg.ScheduleCron}, logger)
}
