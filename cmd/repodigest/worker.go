package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/spf13/cobra"

	"repo-digest/internal/domain/entity"
	"repo-digest/internal/infra/worker"
	pkgconfig "repo-digest/internal/pkg/config"
)

// Metrics register with the default registry, so they are created once per
// process.
var (
	workerMetrics = sync.OnceValue(worker.NewWorkerMetrics)
	digestMetrics = sync.OnceValue(func() *pkgconfig.ConfigMetrics {
		return pkgconfig.NewConfigMetrics("repodigest_digest")
	})
)

type workerOptions struct {
	schedule   string
	timezone   string
	healthPort int
	runOnStart bool
}

func workerCmd(opts *options) *cobra.Command {
	var wopts workerOptions
	defaults := worker.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "worker [owner/name...]",
		Short: "Run both digests on a cron schedule",
		Long: `Run both digests for the same repositories on a cron schedule.

Each run fetches every repository once and writes releases/ and
issues-and-pull-requests/ subdirectories under the output directory.
Liveness, readiness and Prometheus metrics are served on the health port
(/health, /health/ready, /metrics).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorker(cmd, args, opts, wopts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&wopts.schedule, "schedule", defaults.CronSchedule, "cron schedule (minute hour dom month dow)")
	flags.StringVar(&wopts.timezone, "timezone", defaults.Timezone, "IANA timezone the schedule is evaluated in")
	flags.IntVar(&wopts.healthPort, "health-port", defaults.HealthPort, "port serving /health and /metrics")
	flags.BoolVar(&wopts.runOnStart, "run-on-start", defaults.RunOnStart, "run once immediately after starting")

	return cmd
}

func runWorker(cmd *cobra.Command, args []string, opts *options, wopts workerOptions) error {
	logger := opts.logger

	cfg, err := loadConfig(cmd, opts, &pkgconfig.Tracker{Logger: logger, Metrics: digestMetrics()})
	if err != nil {
		return err
	}
	targets, err := resolveTargets(args, cfg)
	if err != nil {
		return err
	}

	metrics := workerMetrics()
	wcfg := worker.LoadConfigFromEnv(logger, metrics)
	flags := cmd.Flags()
	if flags.Changed("schedule") {
		wcfg.CronSchedule = wopts.schedule
	}
	if flags.Changed("timezone") {
		wcfg.Timezone = wopts.timezone
	}
	if flags.Changed("health-port") {
		wcfg.HealthPort = wopts.healthPort
	}
	if flags.Changed("run-on-start") {
		wcfg.RunOnStart = wopts.runOnStart
	}
	if err := wcfg.Validate(); err != nil {
		return fmt.Errorf("invalid worker configuration: %w", err)
	}
	logger.Info("worker configuration loaded",
		slog.String("cron_schedule", wcfg.CronSchedule),
		slog.String("timezone", wcfg.Timezone),
		slog.Duration("run_timeout", wcfg.RunTimeout),
		slog.Int("health_port", wcfg.HealthPort),
		slog.Int("targets", len(targets)))

	svc, err := newDigestService(cfg, logger)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	health := worker.NewHealthServer(fmt.Sprintf(":%d", wcfg.HealthPort), nil, logger)
	go func() {
		if err := health.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("health server failed", slog.Any("error", err))
		}
	}()

	kinds := []entity.DigestKind{entity.KindReleases, entity.KindIssuesAndPullRequests}
	job := func(ctx context.Context) (int, error) {
		results, err := svc.RunAll(ctx, kinds, targets, opts.clock())
		entries := 0
		for _, result := range results {
			entries += result.Entries()
		}
		return entries, err
	}

	return worker.NewScheduler(wcfg, job, metrics, health, logger).Run(ctx)
}
