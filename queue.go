package itemqueue

import (
	"context"
	"sync"
	"time"

	lg "github.com/Andrej220/go-utils/zlog"
	"github.com/google/uuid"

	"github.com/azargarov/itemqueue/inflight"
)

// completion is a settled dispatch on its way back to the event loop.
// id 0 is a synthetic completion that only drives the quiescence checks.
type completion[T any] struct {
	id     uint64
	entry  Entry[T]
	result any
	err    error
}

// Queue dispatches items to a worker with bounded concurrency.
//
// All scheduling decisions, completions, watchdog ticks and event callbacks
// run on a single event loop goroutine started by New. Caller operations only
// touch the pending queue and flags under mu and then wake the loop.
type Queue[T any] struct {
	id              string
	ctx             context.Context
	opts            Options
	processItem     ProcessFunc[T]
	handlers        Handlers[T]
	launcher        Launcher
	metrics         MetricsPolicy
	onInternalError func(error)

	mu         sync.Mutex
	pending    *fifoQueue[T]
	inflight   *inflight.Tracker[uint64, Entry[T]]
	nextID     uint64
	paused     bool
	processing bool
	failed     error
	emptied    bool
	deferred   bool
	watchArmed bool
	watched    bool
	startTime  time.Time
	synthetic  []completion[T]
	waiters    []chan error
	closed     bool

	// owned by the event loop
	watchTimer *time.Timer
	watchC     <-chan time.Time

	wake      chan struct{}
	results   chan completion[T]
	stop      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
}

// New builds a queue and starts its event loop. Call Close when done with it.
//
// Items in cfg.ItemQ are queued but not started; call Start, or add more items.
func New[T any](cfg Config[T]) (*Queue[T], error) {
	if cfg.ProcessItem == nil {
		return nil, ErrNoProcessItem
	}
	opts := cfg.Options
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	opts.FillDefaults()

	ctx := cfg.Context
	if ctx == nil {
		ctx = context.Background()
	}
	launcher := cfg.Launcher
	if launcher == nil {
		launcher = GoLauncher{Ctx: ctx}
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = &NoopMetrics{}
	}

	q := &Queue[T]{
		id:              uuid.NewString(),
		ctx:             ctx,
		opts:            opts,
		processItem:     cfg.ProcessItem,
		handlers:        cfg.Handlers,
		launcher:        launcher,
		metrics:         metrics,
		onInternalError: cfg.OnInternalError,
		pending:         newFifoQueue[T](initialFifoCapacity),
		inflight:        inflight.New[uint64, Entry[T]](),
		wake:            make(chan struct{}, 1),
		// every in-flight id settles at most once, so workers never block here
		results: make(chan completion[T], opts.Concurrency),
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
	}

	if cfg.ItemQ != nil {
		_ = q.AddItems(cfg.ItemQ, true)
	}

	lg.FromContext(ctx).Info("item queue created",
		lg.String("queue", q.id),
		lg.Int("concurrency", opts.Concurrency),
		lg.Any("stop_on_error", opts.StopOnError),
		lg.String("watch_time", opts.WatchTime.String()),
	)

	go q.run()
	return q, nil
}

// ID returns the queue's instance id as it appears in log fields.
func (q *Queue[T]) ID() string { return q.id }

// AddItem appends item and schedules a dispatch pass.
func (q *Queue[T]) AddItem(item T) {
	q.AddItemWith(item, ItemOptions{})
}

// AddItemWith appends item with per-item options.
func (q *Queue[T]) AddItemWith(item T, o ItemOptions) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pushLocked(ItemWith(item, o))
	if !o.NoStart {
		q.scheduleLocked()
	}
}

// AddItems appends every item in order. It fails only for a nil slice.
func (q *Queue[T]) AddItems(items []T, noStart bool) error {
	if items == nil {
		return ErrNotSequence
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, it := range items {
		q.pushLocked(Item(it))
	}
	if !noStart {
		q.scheduleLocked()
	}
	return nil
}

// AddEntries appends items and pause points in order.
func (q *Queue[T]) AddEntries(entries []Entry[T], noStart bool) error {
	if entries == nil {
		return ErrNotSequence
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, e := range entries {
		q.pushLocked(e)
	}
	if !noStart {
		q.scheduleLocked()
	}
	return nil
}

// SetItemQ replaces everything pending with items.
func (q *Queue[T]) SetItemQ(items []T, noStart bool) error {
	if items == nil {
		return ErrNotSequence
	}
	entries := make([]Entry[T], len(items))
	for i, it := range items {
		entries[i] = Item(it)
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	q.metrics.BatchDecQueued(int64(q.pending.ItemCount()))
	q.pending.Reset(entries)
	for range entries {
		q.metrics.IncQueued()
	}
	q.emptied = len(items) == 0
	if !noStart {
		q.scheduleLocked()
	}
	return nil
}

// Pause puts a pause point at the front of the queue. Items already in flight
// finish normally; the Pause event fires once they have.
func (q *Queue[T]) Pause() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending.PushFront(PausePoint[T]())
}

// Unpause clears the paused state without starting a dispatch pass.
func (q *Queue[T]) Unpause() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.paused = false
}

// Resume clears the paused state and dispatches on the next loop turn. It
// always produces at least one pass, so a resumed queue with nothing pending
// still reaches Done.
func (q *Queue[T]) Resume() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.paused = false
	if q.pending.Len() == 0 {
		q.pending.Push(resumeMarker[T]())
	}
	lg.FromContext(q.ctx).Info("queue resumed", lg.String("queue", q.id), lg.Int("pending", q.pending.Len()))
	q.scheduleLocked()
}

// Start is the same as Resume.
func (q *Queue[T]) Start() { q.Resume() }

// Wait blocks until the queue next reaches Done, returning nil, or fails,
// returning the item error that halted it. It returns at once when nothing
// is pending, or when the queue has already failed. Cancelling ctx only stops
// the wait.
func (q *Queue[T]) Wait(ctx context.Context) error {
	q.mu.Lock()
	if q.failed != nil {
		err := q.failed
		q.mu.Unlock()
		return err
	}
	if !q.isPendingLocked() {
		q.mu.Unlock()
		return nil
	}
	if q.closed {
		q.mu.Unlock()
		return ErrClosed
	}
	ch := make(chan error, 1)
	q.waiters = append(q.waiters, ch)
	q.mu.Unlock()

	select {
	case err := <-ch:
		return err
	case <-ctx.Done():
		q.mu.Lock()
		for i, w := range q.waiters {
			if w == ch {
				q.waiters = append(q.waiters[:i], q.waiters[i+1:]...)
				break
			}
		}
		q.mu.Unlock()
		return ctx.Err()
	}
}

// Count returns the number of entries pending plus the number in flight.
func (q *Queue[T]) Count() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pending.Len() + q.inflight.Count()
}

// IsPending reports whether anything is pending or in flight.
func (q *Queue[T]) IsPending() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.isPendingLocked()
}

// IsPause reports whether the queue is paused.
func (q *Queue[T]) IsPause() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.paused
}

// IsFailed reports whether a failure has halted the queue.
func (q *Queue[T]) IsFailed() bool { return q.Err() != nil }

// Err returns the error that halted the queue, or nil.
func (q *Queue[T]) Err() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.failed
}

// Close stops the event loop without waiting for it to exit. In-flight items
// keep running but their results are discarded; pending Wait calls return
// ErrClosed. It is safe to call from an event handler.
func (q *Queue[T]) Close() { q.signalStop() }

// Shutdown is Close that also waits for the event loop to exit or for ctx to
// end. Calling it from an event handler can only end by ctx, since the loop
// is busy running that handler.
func (q *Queue[T]) Shutdown(ctx context.Context) error {
	q.signalStop()
	select {
	case <-q.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *Queue[T]) signalStop() {
	q.closeOnce.Do(func() {
		q.mu.Lock()
		q.closed = true
		waiters := q.takeWaitersLocked()
		q.mu.Unlock()
		close(q.stop)
		notifyWaiters(waiters, ErrClosed)
	})
}

func (q *Queue[T]) pushLocked(e Entry[T]) {
	q.emptied = false
	q.pending.Push(e)
	if !e.IsControl() {
		q.metrics.IncQueued()
	}
	if q.failed != nil && !e.IsControl() {
		lg.FromContext(q.ctx).Warn("item queued after failure will not be dispatched",
			lg.String("queue", q.id), lg.Any("item", e.item))
	}
}

// scheduleLocked posts one dispatch pass to the event loop. Further calls
// before the loop picks it up are absorbed.
func (q *Queue[T]) scheduleLocked() {
	if q.deferred {
		return
	}
	q.deferred = true
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *Queue[T]) isPendingLocked() bool {
	return !q.inflight.IsEmpty() || q.pending.Len() != 0
}

func (q *Queue[T]) takeWaitersLocked() []chan error {
	w := q.waiters
	q.waiters = nil
	return w
}

func notifyWaiters(waiters []chan error, err error) {
	for _, w := range waiters {
		w <- err
	}
}

// run is the event loop.
func (q *Queue[T]) run() {
	defer close(q.stopped)
	for {
		// a Close from a handler wins over work that is already waiting
		select {
		case <-q.stop:
			q.stopWatch()
			return
		default:
		}
		select {
		case <-q.stop:
			q.stopWatch()
			return
		case <-q.wake:
			q.mu.Lock()
			q.deferred = false
			q.mu.Unlock()
			q.process()
		case c := <-q.results:
			q.handleDone(c)
		case <-q.watchC:
			q.watchTick()
		}
		q.drainSynthetic()
	}
}

// drainSynthetic settles completions that were produced on the loop itself:
// resume markers, pause quiescence checks and launch failures.
func (q *Queue[T]) drainSynthetic() {
	for {
		q.mu.Lock()
		if len(q.synthetic) == 0 {
			q.mu.Unlock()
			return
		}
		c := q.synthetic[0]
		q.synthetic = q.synthetic[1:]
		q.mu.Unlock()
		q.handleDone(c)
	}
}
