package metrics

import "sync/atomic"

// Metrics captures shared operational counters for the ingest pipeline.
type Metrics struct {
	sourcesLoaded  int64
	sourcesFailed  int64
	recordsDropped int64
	runsCompleted  int64
	runsFailed     int64
}

// Snapshot provides a consistent view of the current counters.
type Snapshot struct {
	SourcesLoaded  int64
	SourcesFailed  int64
	RecordsDropped int64
	RunsCompleted  int64
	RunsFailed     int64
}

// New creates a zeroed Metrics instance.
func New() *Metrics {
	return &Metrics{}
}

// RecordIngest accumulates one run's ingest outcome.
func (m *Metrics) RecordIngest(loaded, failed, dropped int) {
	atomic.AddInt64(&m.sourcesLoaded, int64(loaded))
	atomic.AddInt64(&m.sourcesFailed, int64(failed))
	atomic.AddInt64(&m.recordsDropped, int64(dropped))
}

// RecordRunCompletion increments run counters based on outcome.
func (m *Metrics) RecordRunCompletion(err error) {
	if err != nil {
		atomic.AddInt64(&m.runsFailed, 1)
		return
	}
	atomic.AddInt64(&m.runsCompleted, 1)
}

// Snapshot returns a read-only view of the counters.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		SourcesLoaded:  atomic.LoadInt64(&m.sourcesLoaded),
		SourcesFailed:  atomic.LoadInt64(&m.sourcesFailed),
		RecordsDropped: atomic.LoadInt64(&m.recordsDropped),
		RunsCompleted:  atomic.LoadInt64(&m.runsCompleted),
		RunsFailed:     atomic.LoadInt64(&m.runsFailed),
	}
}
