package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ministore/internal/app"
	"ministore/internal/processor"
	"ministore/internal/scheduler"
)

var scheduleInfoOnly bool

var inboxCmd = &cobra.Command{
	Use:   "inbox",
	Short: "Process PDF newsletters from the IMAP inbox",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := rootCmd.PersistentPreRunE(cmd, args); err != nil {
			return err
		}
		if !cfg.InboxEnabled {
			return fmt.Errorf("inbox processing is disabled, set INBOX_ENABLED=true")
		}
		return nil
	},
}

var inboxRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Process the inbox once and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		proc, cleanup, err := buildProcessor()
		if err != nil {
			return err
		}
		defer cleanup()

		ctx, cancel := commandContext()
		defer cancel()

		start := time.Now()
		if err := proc.ProcessWithRetry(ctx); err != nil {
			return fmt.Errorf("processing failed: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Processing completed in %v\n", time.Since(start).Round(time.Millisecond))
		return nil
	},
}

var inboxScheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the inbox processor on SCHEDULE_CRON until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		proc, cleanup, err := buildProcessor()
		if err != nil {
			return err
		}
		defer cleanup()

		sched := app.NewScheduler(cfg, proc, logger)
		if err := sched.Start(); err != nil {
			return err
		}
		showScheduleInfo(cmd, sched.Info())
		if scheduleInfoOnly {
			return sched.Stop(context.Background())
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		fmt.Fprintln(cmd.OutOrStdout(), "Inbox processor is running, press Ctrl+C to stop")
		<-ctx.Done()

		logger.Info("shutting down inbox processor")
		stopCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		return sched.Stop(stopCtx)
	},
}

func init() {
	inboxScheduleCmd.Flags().BoolVar(&scheduleInfoOnly, "info", false, "Print the schedule and exit")
}

func buildProcessor() (*processor.Processor, func(), error) {
	analyzer, st, err := buildAnalyzer()
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if st != nil {
			if err := st.Close(); err != nil {
				logger.Warn("failed to close database", zap.Error(err))
			}
		}
	}
	return app.NewInbox(cfg, analyzer, logger), cleanup, nil
}

func showScheduleInfo(cmd *cobra.Command, info scheduler.Info) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Inbox schedule")
	fmt.Fprintln(out, "==============")
	if info.Status == "no_jobs_scheduled" {
		fmt.Fprintln(out, "No jobs currently scheduled")
		return
	}
	fmt.Fprintf(out, "Schedule: %s\n", info.Schedule)
	if info.NextRun != "" {
		fmt.Fprintf(out, "Next run: %s\n", info.NextRun)
	}
	if info.LastRun != "" {
		fmt.Fprintf(out, "Last run: %s\n", info.LastRun)
	}
	fmt.Fprintf(out, "Jobs:     %d\n", info.JobCount)
}
