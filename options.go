package itemqueue

import (
	"context"
	"time"
)

const (
	// DefaultConcurrency is the number of items processed at once when
	// Options.Concurrency is zero.
	DefaultConcurrency = 15

	// DefaultWatchPeriod is how often the watchdog looks for overdue items.
	DefaultWatchPeriod = 500 * time.Millisecond
)

// Options configure a Queue.
//
// All zero values are replaced with defaults in FillDefaults.
type Options struct {
	// Concurrency is the maximum number of items in flight.
	Concurrency int

	// StopOnError halts the queue permanently on the first item failure.
	StopOnError bool

	// WatchPeriod is the watchdog tick interval.
	WatchPeriod time.Duration

	// WatchTime is how long an item may run before the watchdog reports it.
	// Zero disables the watchdog.
	WatchTime time.Duration

	// Timeout is reserved. Items are never cancelled by the queue.
	Timeout time.Duration
}

func (o *Options) FillDefaults() {
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	if o.WatchPeriod <= 0 {
		o.WatchPeriod = DefaultWatchPeriod
	}
}

// Validate rejects negative settings. Call it before FillDefaults to catch
// values that would otherwise be silently replaced.
func (o Options) Validate() error {
	if o.Concurrency < 0 {
		return errInvalidConfig("concurrency must be >= 0")
	}
	if o.WatchPeriod < 0 {
		return errInvalidConfig("watch period must be >= 0")
	}
	if o.WatchTime < 0 {
		return errInvalidConfig("watch time must be >= 0")
	}
	if o.Timeout < 0 {
		return errInvalidConfig("timeout must be >= 0")
	}
	return nil
}

// ProcessFunc handles one item. id is the sequence number the queue assigned
// to this dispatch. A returned error or a panic marks the item failed.
type ProcessFunc[T any] func(ctx context.Context, item T, id uint64) (any, error)

// Config is everything New needs to build a Queue.
type Config[T any] struct {
	Options

	// ProcessItem is required.
	ProcessItem ProcessFunc[T]

	// ItemQ seeds the pending queue. Processing starts on Start or on the
	// next add.
	ItemQ []T

	Handlers Handlers[T]

	// Launcher runs ProcessItem calls. Defaults to a goroutine per item.
	Launcher Launcher

	// Metrics defaults to NoopMetrics.
	Metrics MetricsPolicy

	// Context is passed to ProcessItem and carries the logger.
	Context context.Context

	// OnInternalError receives errors that are not item failures.
	OnInternalError func(error)
}
