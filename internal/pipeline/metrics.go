package pipeline

import (
	"sync"
	"time"
)

// Metrics accumulates running aggregate statistics across the life of a
// pipeline instance. It is injected at construction — never a hidden
// package-level singleton — so each test (or service instance) owns a
// fresh accumulator. Accumulation is monotonic; there is no reset.
type Metrics struct {
	mu            sync.Mutex
	runs          int64
	failures      int64
	cacheHits     int64
	totalDuration time.Duration
}

// NewMetrics returns an empty accumulator.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// Record accumulates one completed run.
func (m *Metrics) Record(d time.Duration, failed, cacheHit bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs++
	m.totalDuration += d
	if failed {
		m.failures++
	}
	if cacheHit {
		m.cacheHits++
	}
}

// Snapshot is a point-in-time view of the accumulated metrics.
type Snapshot struct {
	Runs          int64   `json:"runs"`
	Failures      int64   `json:"failures"`
	CacheHits     int64   `json:"cache_hits"`
	AvgDurationMs int64   `json:"avg_duration_ms"`
	SuccessRate   float64 `json:"success_rate"`
}

// Snapshot returns the current aggregate view.
func (m *Metrics) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Snapshot{Runs: m.runs, Failures: m.failures, CacheHits: m.cacheHits}
	if m.runs > 0 {
		s.AvgDurationMs = (m.totalDuration / time.Duration(m.runs)).Milliseconds()
		s.SuccessRate = float64(m.runs-m.failures) / float64(m.runs)
	}
	return s
}
