package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"repo-digest/internal/observability/logging"
)

// ErrRunInProgress is returned by RunOnce when the previous run has not
// finished yet.
var ErrRunInProgress = errors.New("worker: previous run still in progress")

// Job runs one digest and reports how many entries it produced.
type Job func(ctx context.Context) (entries int, err error)

// Scheduler triggers Job on the configured cron schedule. Runs never
// overlap: a tick that fires while a run is active is skipped.
type Scheduler struct {
	cfg     WorkerConfig
	job     Job
	metrics *WorkerMetrics
	health  *HealthServer
	logger  *slog.Logger

	running atomic.Bool
	clock   func() time.Time
}

// NewScheduler creates a scheduler. metrics and health are optional.
func NewScheduler(cfg WorkerConfig, job Job, metrics *WorkerMetrics, health *HealthServer, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cfg:     cfg,
		job:     job,
		metrics: metrics,
		health:  health,
		logger:  logger,
		clock:   time.Now,
	}
}

// Run starts the cron scheduler and blocks until ctx is done. Readiness is
// reported once the schedule is registered. In-flight runs are allowed to
// finish before Run returns.
func (s *Scheduler) Run(ctx context.Context) error {
	c := cron.New(
		cron.WithLocation(s.cfg.Location()),
		cron.WithChain(cron.Recover(cronLogger{s.logger})),
	)

	if _, err := c.AddFunc(s.cfg.CronSchedule, func() {
		_ = s.RunOnce(ctx)
	}); err != nil {
		return fmt.Errorf("add cron job: %w", err)
	}
	c.Start()

	if s.health != nil {
		s.health.SetReady(true)
	}
	s.logger.Info("worker started",
		slog.String("schedule", s.cfg.CronSchedule),
		slog.String("timezone", s.cfg.Timezone))

	var startup sync.WaitGroup
	if s.cfg.RunOnStart {
		startup.Add(1)
		go func() {
			defer startup.Done()
			_ = s.RunOnce(ctx)
		}()
	}

	<-ctx.Done()

	if s.health != nil {
		s.health.SetReady(false)
	}
	s.logger.Info("worker stopping, waiting for running jobs")
	<-c.Stop().Done()
	startup.Wait()
	s.logger.Info("worker stopped")
	return nil
}

// RunOnce executes the job with the configured timeout and records the
// outcome in metrics and on the health probes.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Warn("skipping scheduled run, previous run still in progress")
		return ErrRunInProgress
	}
	defer s.running.Store(false)

	start := s.clock()
	if s.metrics != nil {
		s.metrics.RecordJobRun("started")
	}

	runCtx, cancel := context.WithTimeout(ctx, s.cfg.RunTimeout)
	defer cancel()
	runCtx, logger := logging.WithRunID(runCtx, s.logger)
	logger.Info("digest run started")

	entries, err := s.job(runCtx)
	duration := s.clock().Sub(start)

	if s.metrics != nil {
		s.metrics.RecordJobDuration(duration.Seconds())
		s.metrics.RecordEntries(entries)
		if err != nil {
			s.metrics.RecordJobRun("failure")
		} else {
			s.metrics.RecordJobRun("success")
			s.metrics.RecordLastSuccess()
		}
	}
	if s.health != nil {
		s.health.RecordRun(start, err)
	}

	if err != nil {
		logger.Error("digest run failed",
			slog.String("error", logging.SanitizeError(err)),
			slog.Int("entries", entries),
			slog.Duration("duration", duration))
		return err
	}
	logger.Info("digest run completed",
		slog.Int("entries", entries),
		slog.Duration("duration", duration))
	return nil
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append([]interface{}{slog.Any("error", err)}, keysAndValues...)...)
}
