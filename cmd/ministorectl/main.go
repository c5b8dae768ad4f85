package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ministore/internal/app"
	"ministore/internal/config"
)

var (
	verbose bool
	timeout time.Duration

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "ministorectl",
	Short: "Summarize articles and build ministores from the command line",
	Long: `ministorectl runs the ministore pipeline without the HTTP server.

Articles can be given as text, a URL or a PDF file. Each one is summarized,
reduced to commercial topics and turned into one ministore per topic using
the mode configured in MINISTORE_MODE.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if verbose {
			cfg.LogLevel = "debug"
			cfg.LogFormat = "console"
		}
		logger, err = app.NewLogger(cfg)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Minute, "Operation timeout")

	analyzeCmd.AddCommand(analyzeTextCmd, analyzeURLCmd, analyzePDFCmd)
	inboxCmd.AddCommand(inboxRunCmd, inboxScheduleCmd, inboxTestEmailCmd)
	rootCmd.AddCommand(analyzeCmd, historyCmd, inboxCmd, pdfTextCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
