package itemqueue

import (
	"context"
	"runtime"
	"sync"
	"testing"
	"time"
)

func newTestQueue[T any](t *testing.T, cfg Config[T]) *Queue[T] {
	t.Helper()

	q, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := q.Shutdown(ctx); err != nil {
			t.Errorf("shutdown: %v", err)
		}
	})
	return q
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func waitUntil(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		runtime.Gosched()
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not satisfied before timeout")
}

func recvWithin[V any](t *testing.T, ch <-chan V, d time.Duration) V {
	t.Helper()

	select {
	case v := <-ch:
		return v
	case <-time.After(d):
		t.Fatalf("nothing received within %v", d)
	}
	var zero V
	return zero
}

// recorder captures every event a queue emits.
type recorder[T any] struct {
	mu        sync.Mutex
	doneItems []ItemResult[T]
	failItems []ItemResult[T]
	fails     []ItemResult[T]
	empties   int
	pauses    int
	dones     []DoneInfo
	watches   []WatchInfo[T]

	onPause func()
	onEmpty func()
}

func (r *recorder[T]) handlers() Handlers[T] {
	return Handlers[T]{
		DoneItem: func(res ItemResult[T]) {
			r.mu.Lock()
			r.doneItems = append(r.doneItems, res)
			r.mu.Unlock()
		},
		FailItem: func(res ItemResult[T]) {
			r.mu.Lock()
			r.failItems = append(r.failItems, res)
			r.mu.Unlock()
		},
		Fail: func(res ItemResult[T]) {
			r.mu.Lock()
			r.fails = append(r.fails, res)
			r.mu.Unlock()
		},
		Empty: func() {
			r.mu.Lock()
			r.empties++
			fn := r.onEmpty
			r.mu.Unlock()
			if fn != nil {
				fn()
			}
		},
		Pause: func() {
			r.mu.Lock()
			r.pauses++
			fn := r.onPause
			r.mu.Unlock()
			if fn != nil {
				fn()
			}
		},
		Done: func(info DoneInfo) {
			r.mu.Lock()
			r.dones = append(r.dones, info)
			r.mu.Unlock()
		},
		Watch: func(info WatchInfo[T]) {
			r.mu.Lock()
			r.watches = append(r.watches, info)
			r.mu.Unlock()
		},
	}
}

func (r *recorder[T]) counts() (doneItems, failItems, fails, empties, pauses, dones int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.doneItems), len(r.failItems), len(r.fails), r.empties, r.pauses, len(r.dones)
}

func (r *recorder[T]) watchEvents() []WatchInfo[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]WatchInfo[T](nil), r.watches...)
}
