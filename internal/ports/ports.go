// Package ports defines the interfaces that form the contract between the
// domain/application layers and the infrastructure layer. These
// interfaces enable dependency inversion and make the engine testable
// without pulling metrics or rendering dependencies into the core.
package ports

import (
	"time"

	"github.com/ahrav/go-slate/internal/domain"
)

// InstanceStore holds generated instances for the life of the process.
// The store is append-only: instances are never mutated after Put and no
// deletion is defined. Implementations exposed to concurrent callers must
// guard insertion and lookup, since Put and Get may interleave.
type InstanceStore interface {
	// Put records a newly accepted instance under its ID.
	Put(inst *domain.Instance)

	// Get returns the instance with the given ID, or false when the ID
	// has never been stored.
	Get(id string) (*domain.Instance, bool)

	// Len reports the number of stored instances.
	Len() int
}

// Renderer substitutes a resolved environment into prompt template text.
// The engine only supplies the environment; how placeholders are written
// and replaced is the renderer's concern.
type Renderer interface {
	// Render replaces every placeholder in template with the value bound
	// to its name in env.
	Render(template string, env map[string]float64) string
}

// MetricsCollector defines the interface for collecting operational
// metrics. Implementations should integrate with observability platforms
// like Prometheus, OpenTelemetry, or custom monitoring solutions.
type MetricsCollector interface {
	// RecordLatency records the execution time of an operation.
	// The labels map provides additional context for the metric.
	RecordLatency(operation string, duration time.Duration, labels map[string]string)

	// RecordCounter increments a counter metric.
	// Useful for tracking events like accepted instances, retry
	// exhaustion, and sandbox violations.
	RecordCounter(metric string, value float64, labels map[string]string)

	// RecordHistogram records a value in a histogram, such as the number
	// of sampling attempts an accepted instance needed.
	RecordHistogram(metric string, value float64, labels map[string]string)
}

// NopMetrics is a MetricsCollector that discards everything. It stands in
// wherever metrics are not wired, keeping nil checks out of the engine.
type NopMetrics struct{}

// RecordLatency implements MetricsCollector.
func (NopMetrics) RecordLatency(string, time.Duration, map[string]string) {}

// RecordCounter implements MetricsCollector.
func (NopMetrics) RecordCounter(string, float64, map[string]string) {}

// RecordHistogram implements MetricsCollector.
func (NopMetrics) RecordHistogram(string, float64, map[string]string) {}
