package config

import (
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ConfigMetrics tracks configuration loading for one component. Metric
// names are prefixed with the component name, e.g.
// "worker_config_fallbacks_total".
type ConfigMetrics struct {
	// LoadTimestamp is the Unix time of the last load.
	LoadTimestamp prometheus.Gauge

	// ValidationErrorsTotal counts invalid values per field.
	ValidationErrorsTotal *prometheus.CounterVec

	// FallbacksTotal counts defaults applied per field.
	FallbacksTotal *prometheus.CounterVec

	// FallbackActive is 1 while any field runs on a fallback value.
	FallbackActive prometheus.Gauge

	componentName string
}

// NewConfigMetrics registers the component's metrics with the default
// registry. Registering the same component twice panics.
func NewConfigMetrics(componentName string) *ConfigMetrics {
	return NewConfigMetricsWith(prometheus.DefaultRegisterer, componentName)
}

// NewConfigMetricsWith registers the component's metrics with reg.
func NewConfigMetricsWith(reg prometheus.Registerer, componentName string) *ConfigMetrics {
	factory := promauto.With(reg)
	return &ConfigMetrics{
		LoadTimestamp: factory.NewGauge(prometheus.GaugeOpts{
			Name: fmt.Sprintf("%s_config_load_timestamp", componentName),
			Help: fmt.Sprintf("Unix timestamp of last %s configuration load", componentName),
		}),
		ValidationErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_config_validation_errors_total", componentName),
			Help: fmt.Sprintf("Total number of %s configuration validation errors", componentName),
		}, []string{"field"}),
		FallbacksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_config_fallbacks_total", componentName),
			Help: fmt.Sprintf("Total number of %s configuration fallback operations", componentName),
		}, []string{"field"}),
		FallbackActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: fmt.Sprintf("%s_config_fallback_active", componentName),
			Help: fmt.Sprintf("1 if any %s configuration fallback is active, 0 otherwise", componentName),
		}),
		componentName: componentName,
	}
}

// RecordLoadTimestamp sets the load timestamp to now.
func (m *ConfigMetrics) RecordLoadTimestamp() {
	m.LoadTimestamp.SetToCurrentTime()
}

// RecordValidationError counts an invalid value for field.
func (m *ConfigMetrics) RecordValidationError(field string) {
	m.ValidationErrorsTotal.WithLabelValues(field).Inc()
}

// RecordFallback counts a default applied to field.
func (m *ConfigMetrics) RecordFallback(field string) {
	m.FallbacksTotal.WithLabelValues(field).Inc()
}

// SetFallbackActive flips the fallback gauge.
func (m *ConfigMetrics) SetFallbackActive(active bool) {
	if active {
		m.FallbackActive.Set(1)
	} else {
		m.FallbackActive.Set(0)
	}
}

// Tracker folds load results into logs and metrics. Both Logger and Metrics
// are optional.
//
// Example:
//
//	tracker := &config.Tracker{Logger: logger, Metrics: metrics}
//	cfg.CronSchedule = config.Track(tracker, "cron_schedule",
//	    config.LoadEnvWithFallback("CRON_SCHEDULE", cfg.CronSchedule, config.ValidateCronSchedule))
//	tracker.Finish()
type Tracker struct {
	Logger  *slog.Logger
	Metrics *ConfigMetrics

	applied bool
}

// Track records result under field and returns its value.
func Track[T any](t *Tracker, field string, result LoadResult[T]) T {
	if !result.FallbackApplied {
		return result.Value
	}
	t.applied = true
	if t.Metrics != nil {
		t.Metrics.RecordValidationError(field)
		t.Metrics.RecordFallback(field)
	}
	if t.Logger != nil {
		for _, warning := range result.Warnings {
			t.Logger.Warn("Configuration fallback applied",
				slog.String("field", field),
				slog.String("warning", warning))
		}
	}
	return result.Value
}

// FallbackApplied reports whether any tracked field fell back.
func (t *Tracker) FallbackApplied() bool {
	return t.applied
}

// Finish publishes the fallback gauge and the load timestamp.
func (t *Tracker) Finish() {
	if t.Metrics == nil {
		return
	}
	t.Metrics.SetFallbackActive(t.applied)
	t.Metrics.RecordLoadTimestamp()
}
