package telemetry

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// Metrics provides Prometheus metrics for catalog compilation and
// configuration enforcement.
type Metrics struct {
	config MetricsConfig

	// Compile metrics
	compiles        *prometheus.CounterVec
	compileDuration *prometheus.HistogramVec

	// Catalog metrics
	assertionsEmitted *prometheus.CounterVec
	sentinelEntries   prometheus.Gauge

	// Validation and policy metrics
	validationErrors *prometheus.CounterVec
	policyViolations *prometheus.CounterVec

	// Config file metrics
	configChanges *prometheus.CounterVec

	// Error metrics
	errorsByClass *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetrics creates a new metrics collector with the given configuration.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		return &Metrics{config: cfg}, nil
	}

	namespace := cfg.Namespace
	buckets := cfg.DefaultHistogramBuckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}

	registry := prometheus.NewRegistry()

	m := &Metrics{
		config:   cfg,
		registry: registry,

		compiles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "compiles_total",
				Help:      "Total number of catalog compilations",
			},
			[]string{"os_family", "status"},
		),
		compileDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "compile_duration_seconds",
				Help:      "Duration of catalog compilation in seconds",
				Buckets:   buckets,
			},
			[]string{"status"},
		),

		assertionsEmitted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "assertions_emitted_total",
				Help:      "Total number of assertions emitted by kind",
			},
			[]string{"kind"},
		),
		sentinelEntries: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "service_default_entries",
				Help:      "Config entries left at the service default in the last catalog",
			},
		),

		validationErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "validation_errors_total",
				Help:      "Total number of parameter validation errors by code",
			},
			[]string{"code"},
		),
		policyViolations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "policy_violations_total",
				Help:      "Total number of policy violations by severity",
			},
			[]string{"policy", "severity"},
		),

		configChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "config_changes_total",
				Help:      "Total number of config file changes by action",
			},
			[]string{"action", "applied"},
		),

		errorsByClass: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_by_class_total",
				Help:      "Total number of errors by error class",
			},
			[]string{"class"},
		),
	}

	registry.MustRegister(
		m.compiles,
		m.compileDuration,
		m.assertionsEmitted,
		m.sentinelEntries,
		m.validationErrors,
		m.policyViolations,
		m.configChanges,
		m.errorsByClass,
	)

	return m, nil
}

// Compile Metrics

// RecordCompile records a finished compilation with its status and duration.
func (m *Metrics) RecordCompile(osFamily, status string, duration time.Duration) {
	if m.compiles == nil {
		return
	}
	m.compiles.WithLabelValues(osFamily, status).Inc()
	m.compileDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// RecordAssertions adds n emitted assertions of the given kind.
func (m *Metrics) RecordAssertions(kind string, n int) {
	if m.assertionsEmitted == nil {
		return
	}
	m.assertionsEmitted.WithLabelValues(kind).Add(float64(n))
}

// SetServiceDefaultEntries sets how many entries carry the sentinel.
func (m *Metrics) SetServiceDefaultEntries(n int) {
	if m.sentinelEntries == nil {
		return
	}
	m.sentinelEntries.Set(float64(n))
}

// Validation and Policy Metrics

// RecordValidationError records a parameter validation failure by code.
func (m *Metrics) RecordValidationError(code string) {
	if m.validationErrors == nil {
		return
	}
	m.validationErrors.WithLabelValues(code).Inc()
}

// RecordPolicyViolation records a policy violation.
func (m *Metrics) RecordPolicyViolation(policy, severity string) {
	if m.policyViolations == nil {
		return
	}
	m.policyViolations.WithLabelValues(policy, severity).Inc()
}

// Config File Metrics

// RecordConfigChange records a planned or applied config change.
func (m *Metrics) RecordConfigChange(action string, applied bool) {
	if m.configChanges == nil {
		return
	}
	m.configChanges.WithLabelValues(action, fmt.Sprintf("%t", applied)).Inc()
}

// Error Metrics

// RecordError records an error by class.
func (m *Metrics) RecordError(errorClass string) {
	if m.errorsByClass == nil {
		return
	}
	m.errorsByClass.WithLabelValues(errorClass).Inc()
}

// Timer provides a convenient way to time operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Duration returns the elapsed time since the timer was created.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// Gather returns the current metric families.
func (m *Metrics) Gather() ([]*dto.MetricFamily, error) {
	if m.registry == nil {
		return nil, nil
	}
	return m.registry.Gather()
}

// WriteTextfile writes the current metrics to the configured textfile path.
// It does nothing when metrics are disabled or no path is set.
func (m *Metrics) WriteTextfile() error {
	if m.registry == nil || m.config.TextfilePath == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(m.config.TextfilePath), 0755); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	return prometheus.WriteToTextfile(m.config.TextfilePath, m.registry)
}
