// Package itemqueue runs work items through a caller-supplied worker with
// bounded concurrency and reports progress through typed events.
//
// Design goals
//
// The package is designed around the following principles:
//
//   - Appending never blocks; backpressure is queue depth, not waiting
//   - Strict FIFO dispatch; completions may arrive in any order
//   - Every scheduling decision happens on one goroutine, so the state
//     machine needs no reasoning about interleavings
//   - Events fire under exact, idempotent conditions
//
// Architecture overview
//
// A queue is composed of four loosely coupled parts:
//
//  1. Pending queue
//     A growable FIFO ring of entries. An entry is either an item or a
//     control marker (pause, resume). Markers never reach the worker. A
//     pause point takes no concurrency slot; a resume marker holds one
//     until the loop settles it on the same turn.
//
//  2. Dispatch engine (Queue)
//     Pops entries while fewer than Options.Concurrency items are in flight,
//     hands them to the Launcher, and on each completion decides whether to
//     keep dispatching, pause, finish, or stop on error.
//
//  3. In-flight tracker (package inflight)
//     Start and last-check times for every dispatched id.
//
//  4. Watchdog
//     When Options.WatchTime is set, a timer scans the tracker every
//     Options.WatchPeriod and reports items that have been running too long.
//
// Event loop
//
// New starts one goroutine per queue. It runs dispatch passes, handles
// completions, ticks the watchdog and invokes every event handler. Caller
// operations (AddItem, Pause, Resume, ...) only update the pending queue
// under a mutex and post a wake-up. Several appends in a row cost a single
// dispatch pass, which also lets a caller finish queueing a batch before any
// work begins.
//
// Lifecycle
//
// A queue reaches Done when nothing is pending or in flight and it is not
// paused. It reaches Pause when a pause point has been dispatched and the
// items ahead of it have settled; Resume continues it. With
// Options.StopOnError the first failed item halts it for good: Fail fires,
// Wait returns the item error, and nothing more is dispatched.
//
// Error handling
//
// The package distinguishes between two classes of errors:
//
//   - Item errors: returned by ProcessItem or produced by panic recovery.
//     Reported through FailItem and, under StopOnError, Fail and Wait.
//   - Internal errors: bookkeeping violations or panicking handlers.
//     Logged and passed to Config.OnInternalError.
//
// Failed items are never retried.
//
// Timeouts
//
// Options.Timeout is reserved. The queue never cancels a running item;
// Pause only stops new dispatch and Close only stops the event loop.
package itemqueue
