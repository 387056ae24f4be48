// Package metrics provides the Prometheus implementation of the
// engine's metrics collection port.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ahrav/go-slate/internal/ports"
)

// PrometheusMetrics implements the MetricsCollector interface using
// Prometheus. It provides real-time monitoring of instance generation
// outcomes, retry pressure, grading volume, and sandbox rejections.
type PrometheusMetrics struct {
	generationTotal    *prometheus.CounterVec
	generationAttempts *prometheus.HistogramVec
	gradingTotal       *prometheus.CounterVec
	sandboxViolations  *prometheus.CounterVec
	operationLatency   *prometheus.HistogramVec
	operationCounter   *prometheus.CounterVec
}

var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)

// NewPrometheusMetrics creates a PrometheusMetrics instance and
// registers all metrics in the global Prometheus registry. Call it at
// most once per process; a second call panics on duplicate
// registration.
func NewPrometheusMetrics() *PrometheusMetrics {
	return &PrometheusMetrics{
		generationTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "slate_generation_total",
				Help: "Instance generation outcomes by family and status.",
			},
			[]string{"family", "status"},
		),
		generationAttempts: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "slate_generation_attempts",
				Help:    "Sampling attempts an accepted instance needed.",
				Buckets: []float64{1, 2, 3, 5, 8, 13, 21, 34, 50},
			},
			[]string{"family"},
		),
		gradingTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "slate_grading_total",
				Help: "Graded submissions by family and correctness.",
			},
			[]string{"family", "correct"},
		),
		sandboxViolations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "slate_sandbox_violations_total",
				Help: "Expressions rejected by the sandbox allowlist.",
			},
			[]string{"family"},
		),
		operationLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "slate_operation_duration_seconds",
				Help:    "Execution time of service operations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "family"},
		),
		operationCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "slate_operations_total",
				Help: "Counter events without a dedicated metric.",
			},
			[]string{"metric", "family"},
		),
	}
}

// RecordLatency implements the MetricsCollector interface by recording
// operation latency in a Prometheus histogram.
func (pm *PrometheusMetrics) RecordLatency(
	operation string, duration time.Duration, labels map[string]string,
) {
	pm.operationLatency.WithLabelValues(operation, labelOr(labels, "family")).
		Observe(duration.Seconds())
}

// RecordCounter implements the MetricsCollector interface by
// incrementing Prometheus counters. Known engine metrics map to their
// dedicated vectors; anything else lands in the generic operations
// counter under its metric name.
func (pm *PrometheusMetrics) RecordCounter(
	metric string, value float64, labels map[string]string,
) {
	family := labelOr(labels, "family")

	switch metric {
	case "generation_total":
		pm.generationTotal.WithLabelValues(family, labelOr(labels, "status")).Add(value)
	case "grading_total":
		pm.gradingTotal.WithLabelValues(family, labelOr(labels, "correct")).Add(value)
	case "sandbox_violations":
		pm.sandboxViolations.WithLabelValues(family).Add(value)
	default:
		pm.operationCounter.WithLabelValues(metric, family).Add(value)
	}
}

// RecordHistogram implements the MetricsCollector interface by
// observing values in Prometheus histograms.
func (pm *PrometheusMetrics) RecordHistogram(
	metric string, value float64, labels map[string]string,
) {
	switch metric {
	case "generation_attempts":
		pm.generationAttempts.WithLabelValues(labelOr(labels, "family")).Observe(value)
	default:
		pm.operationLatency.WithLabelValues(metric, labelOr(labels, "family")).Observe(value)
	}
}

func labelOr(labels map[string]string, key string) string {
	if v, ok := labels[key]; ok && v != "" {
		return v
	}
	return "unknown"
}
