package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	boff "github.com/Andrej220/go-utils/backoff"

	"github.com/azargarov/itemqueue"
)

var errSimulated = errors.New("simulated failure")

type demoConfig struct {
	itemqueue.Options

	Items     int
	Initial   int
	PauseFor  time.Duration
	MinDelay  time.Duration
	MaxDelay  time.Duration
	FailEvery int
	Seed      int64
	Workers   int
	PinCPUs   bool
}

// job is one simulated unit of work.
type job struct {
	N     int
	Delay time.Duration
}

func (j job) String() string { return fmt.Sprintf("job-%d(%s)", j.N, j.Delay) }

type itemRow struct {
	id     uint64
	job    job
	status string
	err    error
}

type summary struct {
	rows      []itemRow
	succeeded int
	failed    int
	pauses    int
	overdue   int
	total     time.Duration
	err       error
}

// workload hands out jobs with delays drawn from a jittered backoff sequence.
// A fresh sequence starts whenever the previous one reaches its cap.
type workload struct {
	min, max time.Duration
	seed     int64
	bo       interface{ Next() time.Duration }
	made     int
}

func newWorkload(min, max time.Duration, seed int64) *workload {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if max < min {
		max = min
	}
	w := &workload{min: min, max: max, seed: seed}
	w.restart()
	return w
}

func (w *workload) restart() {
	w.bo = boff.New(w.min, w.max, w.seed+int64(w.made))
}

func (w *workload) next() job {
	d := w.bo.Next()
	if d >= w.max {
		w.restart()
	}
	w.made++
	return job{N: w.made, Delay: d}
}

func simulate(failEvery int) itemqueue.ProcessFunc[job] {
	return func(ctx context.Context, j job, _ uint64) (any, error) {
		timer := time.NewTimer(j.Delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if failEvery > 0 && j.N%failEvery == 0 {
			return nil, fmt.Errorf("%s: %w", j, errSimulated)
		}
		return j.Delay, nil
	}
}

// runDemo processes cfg.Items jobs and reports what happened. Handlers write
// progress lines to out; they all run on the queue's event loop.
func runDemo(ctx context.Context, cfg demoConfig, out io.Writer) (summary, error) {
	var sum summary
	if cfg.Items <= 0 {
		return sum, nil
	}

	w := newWorkload(cfg.MinDelay, cfg.MaxDelay, cfg.Seed)
	queued := 0

	var launcher itemqueue.Launcher
	if cfg.Workers > 0 {
		var popts []itemqueue.PoolOption
		if cfg.PinCPUs {
			popts = append(popts, itemqueue.WithCPUPinning())
		}
		pool := itemqueue.NewWorkerPool(ctx, cfg.Workers, popts...)
		defer pool.Stop()
		launcher = pool
	}

	var q *itemqueue.Queue[job]
	handlers := itemqueue.Handlers[job]{
		DoneItem: func(res itemqueue.ItemResult[job]) {
			sum.succeeded++
			sum.rows = append(sum.rows, itemRow{id: res.ID, job: res.Item, status: "done"})
		},
		FailItem: func(res itemqueue.ItemResult[job]) {
			sum.failed++
			sum.rows = append(sum.rows, itemRow{id: res.ID, job: res.Item, status: "failed", err: res.Err})
		},
		Fail: func(res itemqueue.ItemResult[job]) {
			fmt.Fprintf(out, "queue stopped: %v\n", res.Err)
		},
		Empty: func() {
			n := 0
			for q.Count() < cfg.Concurrency && queued < cfg.Items {
				q.AddItem(w.next())
				queued++
				n++
			}
			if n > 0 {
				fmt.Fprintf(out, "queue empty, added %d new items\n", n)
			}
		},
		Pause: func() {
			sum.pauses++
			fmt.Fprintf(out, "queue paused, resuming in %s\n", cfg.PauseFor)
			time.AfterFunc(cfg.PauseFor, q.Resume)
		},
		Watch: func(info itemqueue.WatchInfo[job]) {
			if info.Total == 0 {
				fmt.Fprintln(out, "no items overdue")
				return
			}
			sum.overdue += len(info.Watched)
			all := append(append([]itemqueue.WatchEntry[job](nil), info.Watched...), info.Still...)
			parts := make([]string, 0, len(all))
			for _, e := range all {
				parts = append(parts, fmt.Sprintf("%s (%s)", e.Item, e.Time.Round(time.Millisecond)))
			}
			fmt.Fprintf(out, "items pending: %s\n", strings.Join(parts, " "))
		},
		Done: func(info itemqueue.DoneInfo) {
			sum.total = info.TotalTime
			fmt.Fprintln(out, "done, bye")
		},
	}

	var err error
	q, err = itemqueue.New(itemqueue.Config[job]{
		Options:     cfg.Options,
		ProcessItem: simulate(cfg.FailEvery),
		Handlers:    handlers,
		Launcher:    launcher,
		Context:     ctx,
	})
	if err != nil {
		return sum, err
	}
	defer q.Close()

	initial := min(max(cfg.Initial, 0), cfg.Items)
	entries := make([]itemqueue.Entry[job], 0, initial+1)
	for i := 0; i < initial; i++ {
		entries = append(entries, itemqueue.Item(w.next()))
	}
	queued = initial
	entries = append(entries, itemqueue.PausePoint[job]())

	fmt.Fprintf(out, "processing %d items, concurrency %d\n", cfg.Items, cfg.Concurrency)
	if err := q.AddEntries(entries, true); err != nil {
		return sum, err
	}
	q.Start()

	waitErr := q.Wait(ctx)
	// stop the event loop before reading what the handlers recorded
	_ = q.Shutdown(context.Background())
	sum.err = waitErr
	return sum, sum.err
}
