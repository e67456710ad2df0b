package itemqueue

import "time"

// ItemResult is the payload of the DoneItem, FailItem and Fail events.
type ItemResult[T any] struct {
	ID     uint64
	Item   T
	Result any   // value returned by ProcessItem; nil on failure
	Err    error // nil on success
}

// DoneInfo is the payload of the Done event.
type DoneInfo struct {
	StartTime time.Time
	EndTime   time.Time
	TotalTime time.Duration
}

// WatchEntry describes one overdue in-flight item.
type WatchEntry[T any] struct {
	ID   uint64
	Item T
	// Time is how long the item has been running.
	Time time.Duration
}

// WatchInfo is the payload of the Watch event.
//
// Watched holds items that crossed WatchTime for the first time, or again,
// since they were last checked. Still holds items already overdue that have
// not crossed WatchTime again yet. A report with Total zero follows the last
// report that had overdue items, so observers can clear their state.
type WatchInfo[T any] struct {
	Total     int
	Watched   []WatchEntry[T]
	Still     []WatchEntry[T]
	WatchTime time.Duration
}

// Handlers are the queue's event callbacks. Any of them may be nil.
//
// Handlers run on the queue's event loop goroutine, one at a time and in the
// order the events occur. They may call back into the queue, Close included,
// but a handler that blocks stalls the whole queue; Shutdown from a handler
// can only return by its ctx.
type Handlers[T any] struct {
	// DoneItem fires when an item succeeds.
	DoneItem func(ItemResult[T])

	// FailItem fires when an item fails.
	FailItem func(ItemResult[T])

	// Fail fires once when a failure halts the queue under StopOnError.
	// No further events follow it.
	Fail func(ItemResult[T])

	// Empty fires once each time the pending queue drains to zero.
	Empty func()

	// Pause fires when the queue is paused and nothing is in flight.
	Pause func()

	// Done fires when nothing is pending or in flight and the queue is not paused.
	Done func(DoneInfo)

	// Watch reports overdue items. Only active when Options.WatchTime is set.
	Watch func(WatchInfo[T])
}
