// Package scheduler runs the inbox job on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"ministore/internal/logging"
)

const timeLayout = "2006-01-02 15:04:05"

// DefaultTimeout bounds a single scheduled run.
const DefaultTimeout = 30 * time.Minute

// Job is the work triggered by the schedule.
type Job interface {
	ProcessWithRetry(ctx context.Context) error
}

// Config holds scheduler configuration
type Config struct {
	CronSchedule string
	Timeout      time.Duration
}

// Info describes the schedule for status endpoints.
type Info struct {
	Schedule   string `json:"schedule"`
	Status     string `json:"status"`
	NextRun    string `json:"next_run,omitempty"`
	LastRun    string `json:"last_run,omitempty"`
	Running    bool   `json:"running"`
	JobCount   int    `json:"job_count"`
	LastResult string `json:"last_result,omitempty"`
}

// Scheduler manages scheduled jobs using cron
type Scheduler struct {
	cron   *cron.Cron
	job    Job
	config Config
	logger *zap.Logger

	mu         sync.Mutex
	running    bool
	lastResult string
}

// NewScheduler creates a new scheduler. Schedules use the six-field cron
// format with seconds; overlapping runs are skipped.
func NewScheduler(job Job, config Config, logger *zap.Logger) *Scheduler {
	logger = logging.OrNop(logger)
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	cl := cronLogger{logger.Sugar()}
	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		job:    job,
		config: config,
		logger: logger,
	}
}

// Start registers the job and starts the cron loop.
func (s *Scheduler) Start() error {
	entryID, err := s.cron.AddFunc(s.config.CronSchedule, s.runScheduledJob)
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}
	s.cron.Start()
	s.logger.Info("scheduler started",
		zap.String("schedule", s.config.CronSchedule),
		zap.Int("entry_id", int(entryID)))
	return nil
}

// Stop stops the cron loop and waits for a running job until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.logger.Info("stopping scheduler")
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler stop: %w", ctx.Err())
	}
}

func (s *Scheduler) runScheduledJob() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Timeout)
	defer cancel()

	start := time.Now()
	s.logger.Info("scheduled job triggered")
	if err := s.RunOnce(ctx); err != nil {
		s.logger.Error("scheduled job failed", zap.Duration("elapsed", time.Since(start)), zap.Error(err))
		return
	}
	s.logger.Info("scheduled job completed", zap.Duration("elapsed", time.Since(start)))
}

// RunOnce runs the job immediately.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	s.mu.Lock()
	s.running = true
	s.mu.Unlock()

	err := s.job.ProcessWithRetry(ctx)

	s.mu.Lock()
	s.running = false
	if err != nil {
		s.lastResult = "error: " + err.Error()
	} else {
		s.lastResult = "ok"
	}
	s.mu.Unlock()
	return err
}

// NextRun returns the next scheduled run time
func (s *Scheduler) NextRun() (time.Time, error) {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}, fmt.Errorf("no scheduled jobs found")
	}
	return entries[0].Next, nil
}

// Info returns information about the current schedule
func (s *Scheduler) Info() Info {
	s.mu.Lock()
	info := Info{
		Schedule:   s.config.CronSchedule,
		Running:    s.running,
		LastResult: s.lastResult,
	}
	s.mu.Unlock()

	entries := s.cron.Entries()
	info.JobCount = len(entries)
	if len(entries) == 0 {
		info.Status = "no_jobs_scheduled"
		return info
	}

	info.Status = "scheduled"
	entry := entries[0]
	if !entry.Next.IsZero() {
		info.NextRun = entry.Next.Format(timeLayout)
	}
	if !entry.Prev.IsZero() {
		info.LastRun = entry.Prev.Format(timeLayout)
	}
	return info
}

// cronLogger routes cron's own logging through zap.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw("cron: "+msg, append(keysAndValues, "error", err)...)
}
