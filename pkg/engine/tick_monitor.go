package engine

import (
	"sync"
	"time"
)

// TickStats summarises observed tick durations.
type TickStats struct {
	Samples int
	Average time.Duration
	Max     time.Duration
	Last    time.Duration
}

// AverageRate is the ticks-per-second the average duration would allow
func (s TickStats) AverageRate() float64 {
	if s.Average <= 0 {
		return 0
	}
	return float64(time.Second) / float64(s.Average)
}

// TickMonitor accumulates timing statistics for the tick loop.
type TickMonitor struct {
	mu      sync.Mutex
	samples int
	total   time.Duration
	max     time.Duration
	last    time.Duration
}

// NewTickMonitor creates an empty monitor
func NewTickMonitor() *TickMonitor {
	return &TickMonitor{}
}

// Observe records the duration of one completed tick. Non-positive
// durations are ignored.
func (m *TickMonitor) Observe(d time.Duration) {
	if m == nil || d <= 0 {
		return
	}
	m.mu.Lock()
	m.samples++
	m.total += d
	if d > m.max {
		m.max = d
	}
	m.last = d
	m.mu.Unlock()
}

// Snapshot returns a copy of the aggregated statistics
func (m *TickMonitor) Snapshot() TickStats {
	if m == nil {
		return TickStats{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := TickStats{Samples: m.samples, Max: m.max, Last: m.last}
	if m.samples > 0 {
		stats.Average = m.total / time.Duration(m.samples)
	}
	return stats
}

// Reset clears the statistics
func (m *TickMonitor) Reset() {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.samples, m.total, m.max, m.last = 0, 0, 0, 0
	m.mu.Unlock()
}
