package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"ministore/internal/app"
	"ministore/internal/pipeline"
	"ministore/internal/store"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze an article and create its ministores",
}

var analyzeTextCmd = &cobra.Command{
	Use:   "text [text...]",
	Short: "Analyze article text given as arguments or on stdin",
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args, " ")
		if len(args) == 0 || text == "-" {
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("failed to read stdin: %w", err)
			}
			text = string(data)
		}
		return withAnalyzer(cmd, func(ctx context.Context, a *pipeline.Analyzer) (*pipeline.Result, error) {
			return a.AnalyzeText(ctx, text)
		})
	},
}

var analyzeURLCmd = &cobra.Command{
	Use:   "url <url>",
	Short: "Fetch an article page and analyze it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAnalyzer(cmd, func(ctx context.Context, a *pipeline.Analyzer) (*pipeline.Result, error) {
			return a.AnalyzeURL(ctx, args[0])
		})
	},
}

var analyzePDFCmd = &cobra.Command{
	Use:   "pdf <file>",
	Short: "Extract the text of a PDF and analyze it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", args[0], err)
		}
		defer f.Close()
		return withAnalyzer(cmd, func(ctx context.Context, a *pipeline.Analyzer) (*pipeline.Result, error) {
			return a.AnalyzePDF(ctx, f, filepath.Base(args[0]))
		})
	},
}

func withAnalyzer(cmd *cobra.Command, run func(context.Context, *pipeline.Analyzer) (*pipeline.Result, error)) error {
	ctx, cancel := commandContext()
	defer cancel()

	analyzer, st, err := buildAnalyzer()
	if err != nil {
		return err
	}
	if st != nil {
		defer st.Close()
	}

	result, err := run(ctx, analyzer)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), result)
}

func buildAnalyzer() (*pipeline.Analyzer, *store.Store, error) {
	st, err := app.OpenStore(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if st != nil {
			_ = st.Close()
		}
	}

	summarizer, err := app.NewSummarizer(cfg, logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	creator, err := app.NewCreator(cfg, st, logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	hist, err := app.NewHistory(cfg)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return app.NewAnalyzer(cfg, summarizer, creator, app.NewFetcher(cfg), hist, logger), st, nil
}

// commandContext is cancelled by SIGINT/SIGTERM or after --timeout.
func commandContext() (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
