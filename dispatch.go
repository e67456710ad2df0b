package itemqueue

import (
	"runtime/debug"
	"time"

	lg "github.com/Andrej220/go-utils/zlog"
)

// dispatch is an item popped by a pass and waiting to be launched.
type dispatch[T any] struct {
	id    uint64
	entry Entry[T]
}

// process runs one dispatch pass and returns how many entries it dispatched.
//
// It pops entries in FIFO order while a concurrency slot is free. A pause
// point stops the pass; a resume marker takes an id and settles immediately.
// Launching happens after the lock is released, in pop order.
func (q *Queue[T]) process() int {
	q.mu.Lock()
	if q.startTime.IsZero() {
		q.startTime = time.Now()
	}
	if q.processing || q.paused || q.failed != nil || q.pending.Len() == 0 {
		q.mu.Unlock()
		return 0
	}
	q.processing = true

	var launches []dispatch[T]
	count := 0
	items := int64(0)
	for q.pending.Len() > 0 && q.inflight.Count() < q.opts.Concurrency {
		e, _ := q.pending.Pop()
		if e.kind == kindPause {
			q.paused = true
			// nothing in flight will complete to notice the pause, so post a
			// synthetic completion that reaches the quiescence check
			if q.inflight.IsEmpty() {
				q.synthetic = append(q.synthetic, completion[T]{id: 0, entry: noopMarker[T]()})
			}
			lg.FromContext(q.ctx).Info("queue paused",
				lg.String("queue", q.id),
				lg.String("entry", e.kind.String()),
				lg.Int("in_flight", q.inflight.Count()),
			)
			break
		}

		count++
		q.nextID++
		id := q.nextID
		if err := q.inflight.Add(id, e, time.Time{}); err != nil {
			q.processing = false
			q.mu.Unlock()
			q.reportInternalError(errInternal("track dispatch", err))
			return count
		}

		if e.kind == kindResume {
			q.synthetic = append(q.synthetic, completion[T]{id: id, entry: e, result: struct{}{}})
			continue
		}
		items++
		launches = append(launches, dispatch[T]{id: id, entry: e})
	}
	q.processing = false
	q.metrics.BatchDecQueued(items)

	armWatch := q.opts.WatchTime > 0 && !q.watchArmed
	if armWatch {
		q.watchArmed = true
	}
	q.mu.Unlock()

	for _, d := range launches {
		q.launch(d)
	}
	if armWatch {
		q.armWatch()
	}
	return count
}

// launch hands one item to the launcher. The task reports back over the
// results channel whatever the worker does.
func (q *Queue[T]) launch(d dispatch[T]) {
	lg.FromContext(q.ctx).Info("item dispatched",
		lg.String("queue", q.id),
		lg.Any("id", d.id),
		lg.Any("item", d.entry.item),
	)

	err := q.launcher.Launch(func() {
		res, err := q.invoke(d.entry.item, d.id)
		q.results <- completion[T]{id: d.id, entry: d.entry, result: res, err: err}
	})
	if err != nil {
		q.mu.Lock()
		q.synthetic = append(q.synthetic, completion[T]{id: d.id, entry: d.entry, err: err})
		q.mu.Unlock()
	}
}

// invoke calls ProcessItem, turning a panic into a *PanicError.
func (q *Queue[T]) invoke(item T, id uint64) (res any, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return q.processItem(q.ctx, item, id)
}

// handleDone is called once per settled id, or for a synthetic completion
// with id 0. It reports the item, then either continues dispatching or
// detects pause, done or failure.
func (q *Queue[T]) handleDone(c completion[T]) {
	q.mu.Lock()
	if c.id > 0 {
		if err := q.inflight.Remove(c.id); err != nil {
			q.mu.Unlock()
			q.reportInternalError(errInternal("settle dispatch", err))
			return
		}
	}
	if q.failed != nil {
		q.mu.Unlock()
		return
	}
	q.mu.Unlock()

	if c.id > 0 && !c.entry.IsControl() {
		q.metrics.IncExecuted()
		res := ItemResult[T]{ID: c.id, Item: c.entry.item, Result: c.result, Err: c.err}
		if c.err != nil {
			q.reportItemError(c.id, c.entry.item, c.err)
			q.emit(func() { callItem(q.handlers.FailItem, res) })
			if !c.entry.continueOnError && q.opts.StopOnError {
				q.fail(res)
				return
			}
		} else {
			lg.FromContext(q.ctx).Info("item finished", lg.String("queue", q.id), lg.Any("id", c.id))
			q.emit(func() { callItem(q.handlers.DoneItem, res) })
		}
	}

	q.emitEmpty()

	q.mu.Lock()
	if !q.paused && q.pending.Len() > 0 {
		q.mu.Unlock()
		q.process()
		return
	}
	if !q.inflight.IsEmpty() {
		q.mu.Unlock()
		return
	}
	paused := q.paused
	q.mu.Unlock()

	if paused {
		q.emit(q.handlers.Pause)
		return
	}
	q.emitDone()
}

// fail halts the queue for good.
func (q *Queue[T]) fail(res ItemResult[T]) {
	q.mu.Lock()
	q.failed = res.Err
	waiters := q.takeWaitersLocked()
	q.mu.Unlock()

	lg.FromContext(q.ctx).Error("queue stopped on error",
		lg.String("queue", q.id),
		lg.Any("id", res.ID),
		lg.Any("error", res.Err),
	)
	q.emit(func() { callItem(q.handlers.Fail, res) })
	notifyWaiters(waiters, res.Err)
}

// emitEmpty fires Empty once per drain of the pending queue.
func (q *Queue[T]) emitEmpty() {
	q.mu.Lock()
	if q.pending.Len() != 0 || q.emptied {
		q.mu.Unlock()
		return
	}
	q.emptied = true
	q.mu.Unlock()
	q.emit(q.handlers.Empty)
}

func (q *Queue[T]) emitDone() {
	q.mu.Lock()
	end := time.Now()
	info := DoneInfo{StartTime: q.startTime, EndTime: end, TotalTime: end.Sub(q.startTime)}
	waiters := q.takeWaitersLocked()
	q.mu.Unlock()

	// flush a pending overdue report before announcing completion
	q.watchTick()

	lg.FromContext(q.ctx).Info("queue done", lg.String("queue", q.id), lg.String("total_time", info.TotalTime.String()))
	q.emit(func() {
		if q.handlers.Done != nil {
			q.handlers.Done(info)
		}
	})
	notifyWaiters(waiters, nil)
}

// emit runs an event handler. A panicking handler is reported as an internal
// error and does not stop the event loop.
func (q *Queue[T]) emit(fn func()) {
	if fn == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			q.reportInternalError(errInternal("event handler panicked", &PanicError{Value: r, Stack: debug.Stack()}))
		}
	}()
	fn()
}

func callItem[T any](h func(ItemResult[T]), res ItemResult[T]) {
	if h != nil {
		h(res)
	}
}
