package itemqueue

import (
	"sync/atomic"
)

// MetricsPolicy defines hooks used by the queue to report
// queueing and execution activity.
//
// Implementations must be safe for concurrent use.
// All methods are expected to be lightweight and non-blocking.
type MetricsPolicy interface {

	// IncQueued increments the pending items counter.
	IncQueued()

	// BatchDecQueued decrements the pending counter by n.
	//
	// This is used when a dispatch pass removes items from the
	// pending queue, or when the pending queue is replaced.
	BatchDecQueued(n int64)

	// IncExecuted increments the completed items counter
	// (successful or failed).
	IncExecuted()

	// IncFailed increments the failed items counter.
	IncFailed()

	// IncOverdue adds n to the overdue reports counter.
	IncOverdue(n int64)
}

// AtomicMetrics is a lock-free metrics implementation backed by atomics.
//
// Writes are optimized for hot paths.
// Reads are intended for cold-path observation.
type AtomicMetrics struct {
	// executed is the total number of items processed.
	executed atomic.Uint64

	_ [56]byte // padding to avoid false sharing

	// queued is the current number of items waiting for dispatch.
	queued atomic.Int64

	failed  atomic.Uint64
	overdue atomic.Uint64
}

// Executed returns the total number of completed items.
func (m *AtomicMetrics) Executed() uint64 {
	return m.executed.Load()
}

// Queued returns the current number of pending items.
func (m *AtomicMetrics) Queued() int64 {
	return m.queued.Load()
}

// Failed returns the total number of failed items.
func (m *AtomicMetrics) Failed() uint64 {
	return m.failed.Load()
}

// Overdue returns how many overdue item reports the watchdog has made.
func (m *AtomicMetrics) Overdue() uint64 {
	return m.overdue.Load()
}

func (m *AtomicMetrics) IncExecuted() { m.executed.Add(1) }

func (m *AtomicMetrics) IncQueued() { m.queued.Add(1) }

func (m *AtomicMetrics) BatchDecQueued(n int64) { m.queued.Add(-n) }

func (m *AtomicMetrics) IncFailed() { m.failed.Add(1) }

func (m *AtomicMetrics) IncOverdue(n int64) {
	if n > 0 {
		m.overdue.Add(uint64(n))
	}
}

//------------- NoopMetrics ----------------------------------

// NoopMetrics is a MetricsPolicy implementation that discards
// all metric updates.
type NoopMetrics struct{}

func (m *NoopMetrics) IncQueued()             {}
func (m *NoopMetrics) BatchDecQueued(n int64) {}
func (m *NoopMetrics) IncExecuted()           {}
func (m *NoopMetrics) IncFailed()             {}
func (m *NoopMetrics) IncOverdue(n int64)     {}
