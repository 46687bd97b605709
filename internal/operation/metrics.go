package operation

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Metrics tracks operation execution metrics for observability.
type Metrics struct {
	// Request counters by operation name and status
	RequestsByOperation map[string]int64
	RequestsByStatus    map[string]map[int]int64 // operation -> status code -> count

	// Duration tracking for calculating percentiles
	DurationsByOperation map[string][]time.Duration

	// Last event timestamp
	LastEventTime time.Time
}

// MetricsCollector collects and exports operation metrics.
type MetricsCollector struct {
	mu      sync.RWMutex
	metrics *Metrics
}

// NewMetricsCollector creates a new metrics collector.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		metrics: &Metrics{
			RequestsByOperation:  make(map[string]int64),
			RequestsByStatus:     make(map[string]map[int]int64),
			DurationsByOperation: make(map[string][]time.Duration),
			LastEventTime:        time.Now(),
		},
	}
}

// RecordRequest records an operation execution.
func (m *MetricsCollector) RecordRequest(operation string, statusCode int, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.metrics.LastEventTime = time.Now()
	m.metrics.RequestsByOperation[operation]++

	if m.metrics.RequestsByStatus[operation] == nil {
		m.metrics.RequestsByStatus[operation] = make(map[int]int64)
	}
	m.metrics.RequestsByStatus[operation][statusCode]++

	m.metrics.DurationsByOperation[operation] = append(m.metrics.DurationsByOperation[operation], duration)
}

// RequestCount returns the number of recorded requests for an operation.
func (m *MetricsCollector) RequestCount(operation string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.metrics.RequestsByOperation[operation]
}

// StatusCount returns the number of requests for an operation with a status code.
func (m *MetricsCollector) StatusCount(operation string, statusCode int) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if byStatus, ok := m.metrics.RequestsByStatus[operation]; ok {
		return byStatus[statusCode]
	}
	return 0
}

// DurationPercentile returns the given percentile (0-100) of recorded
// durations for an operation, or zero when nothing was recorded.
func (m *MetricsCollector) DurationPercentile(operation string, percentile float64) time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()

	durations := m.metrics.DurationsByOperation[operation]
	if len(durations) == 0 {
		return 0
	}

	sorted := make([]time.Duration, len(durations))
	copy(sorted, durations)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	idx := int(float64(len(sorted)-1) * percentile / 100.0)
	return sorted[idx]
}

// Summary returns a human-readable summary of collected metrics.
func (m *MetricsCollector) Summary() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ops := make([]string, 0, len(m.metrics.RequestsByOperation))
	for op := range m.metrics.RequestsByOperation {
		ops = append(ops, op)
	}
	sort.Strings(ops)

	summary := ""
	for _, op := range ops {
		summary += fmt.Sprintf("%s: %d requests\n", op, m.metrics.RequestsByOperation[op])
	}
	return summary
}
