// Package worker runs the digest on a cron schedule and serves liveness,
// readiness and Prometheus endpoints while it waits.
package worker

import (
	"fmt"
	"log/slog"
	"time"

	"repo-digest/internal/pkg/config"
)

// Environment variables read by LoadConfigFromEnv.
const (
	EnvSchedule   = "REPODIGEST_SCHEDULE"
	EnvTimezone   = "REPODIGEST_TIMEZONE"
	EnvRunTimeout = "REPODIGEST_RUN_TIMEOUT"
	EnvHealthPort = "REPODIGEST_HEALTH_PORT"
	EnvRunOnStart = "REPODIGEST_RUN_ON_START"
)

// WorkerConfig holds the scheduler settings.
//
// Example usage:
//
//	metrics := NewWorkerMetrics()
//	cfg := LoadConfigFromEnv(logger, metrics)
//	if err := cfg.Validate(); err != nil {
//	    return err
//	}
type WorkerConfig struct {
	// CronSchedule is a five field cron expression.
	// Default: "5 0 * * *" (every day at 00:05, just after the UTC day closes)
	CronSchedule string

	// Timezone is the IANA name the schedule is evaluated in.
	// Default: "UTC"
	Timezone string

	// RunTimeout bounds a single scheduled run. Range: 1m-4h
	// Default: 30 minutes
	RunTimeout time.Duration

	// HealthPort serves /health, /health/ready and /metrics.
	// Range: 1024-65535
	// Default: 9091
	HealthPort int

	// RunOnStart triggers one run immediately after the scheduler starts.
	// Default: false
	RunOnStart bool
}

// DefaultConfig returns the default worker settings.
func DefaultConfig() WorkerConfig {
	return WorkerConfig{
		CronSchedule: "5 0 * * *",
		Timezone:     "UTC",
		RunTimeout:   30 * time.Minute,
		HealthPort:   9091,
	}
}

// Validate checks every field and reports all failures together.
func (c *WorkerConfig) Validate() error {
	var errs []error

	if err := config.ValidateCronSchedule(c.CronSchedule); err != nil {
		errs = append(errs, fmt.Errorf("cron schedule: %w", err))
	}
	if err := config.ValidateTimezone(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}
	if err := config.ValidateDuration(c.RunTimeout, time.Minute, 4*time.Hour); err != nil {
		errs = append(errs, fmt.Errorf("run timeout: %w", err))
	}
	if err := config.ValidateIntRange(c.HealthPort, 1024, 65535); err != nil {
		errs = append(errs, fmt.Errorf("health port: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed: %v", errs)
	}
	return nil
}

// Location returns the configured timezone, or UTC when it cannot be loaded.
func (c *WorkerConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// LoadConfigFromEnv applies environment overrides to DefaultConfig.
//
// Invalid values keep the default, log a warning and increment the
// fallback metrics. The result always passes Validate.
//
// Environment variables:
//   - REPODIGEST_SCHEDULE: cron expression (default: "5 0 * * *")
//   - REPODIGEST_TIMEZONE: IANA timezone name (default: "UTC")
//   - REPODIGEST_RUN_TIMEOUT: duration, e.g. "30m" (default: 30 minutes)
//   - REPODIGEST_HEALTH_PORT: integer 1024-65535 (default: 9091)
//   - REPODIGEST_RUN_ON_START: boolean (default: false)
func LoadConfigFromEnv(logger *slog.Logger, metrics *WorkerMetrics) WorkerConfig {
	return loadConfig(DefaultConfig(), logger, metrics)
}

// LoadConfigFromEnvWith is LoadConfigFromEnv over base instead of the
// defaults, for callers that already set fields from flags.
func LoadConfigFromEnvWith(base WorkerConfig, logger *slog.Logger, metrics *WorkerMetrics) WorkerConfig {
	return loadConfig(base, logger, metrics)
}

func loadConfig(cfg WorkerConfig, logger *slog.Logger, metrics *WorkerMetrics) WorkerConfig {
	tracker := &config.Tracker{Logger: logger}
	if metrics != nil {
		tracker.Metrics = metrics.ConfigMetrics
	}

	cfg.CronSchedule = config.Track(tracker, "cron_schedule",
		config.LoadEnvWithFallback(EnvSchedule, cfg.CronSchedule, config.ValidateCronSchedule))
	cfg.Timezone = config.Track(tracker, "timezone",
		config.LoadEnvWithFallback(EnvTimezone, cfg.Timezone, config.ValidateTimezone))
	cfg.RunTimeout = config.Track(tracker, "run_timeout",
		config.LoadEnvDuration(EnvRunTimeout, cfg.RunTimeout, func(d time.Duration) error {
			return config.ValidateDuration(d, time.Minute, 4*time.Hour)
		}))
	cfg.HealthPort = config.Track(tracker, "health_port",
		config.LoadEnvInt(EnvHealthPort, cfg.HealthPort, func(v int) error {
			return config.ValidateIntRange(v, 1024, 65535)
		}))
	cfg.RunOnStart = config.Track(tracker, "run_on_start",
		config.LoadEnvBool(EnvRunOnStart, cfg.RunOnStart))

	tracker.Finish()
	return cfg
}
