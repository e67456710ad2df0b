package itemqueue

import (
	"cmp"
	"slices"
	"time"

	lg "github.com/Andrej220/go-utils/zlog"

	"github.com/azargarov/itemqueue/inflight"
)

// armWatch schedules the first watchdog tick for the next loop turn.
// Must run on the event loop.
func (q *Queue[T]) armWatch() {
	if q.watchTimer == nil {
		q.watchTimer = time.NewTimer(0)
	} else {
		q.watchTimer.Reset(0)
	}
	q.watchC = q.watchTimer.C
}

// stopWatch stops the timer. Must run on the event loop.
func (q *Queue[T]) stopWatch() {
	if q.watchTimer != nil {
		q.watchTimer.Stop()
	}
	q.watchC = nil
}

// watchTick runs one watchdog pass and reschedules it, or disarms the
// watchdog when nothing is in flight and nothing was reported last time.
func (q *Queue[T]) watchTick() {
	info, report, active := q.scanOverdue(time.Now())
	if !active {
		q.mu.Lock()
		q.watchArmed = false
		q.mu.Unlock()
		q.stopWatch()
		return
	}
	if report {
		if info.Total > 0 {
			q.metrics.IncOverdue(int64(info.Total))
			lg.FromContext(q.ctx).Warn("items overdue",
				lg.String("queue", q.id),
				lg.Int("watched", len(info.Watched)),
				lg.Int("still", len(info.Still)),
				lg.String("watch_time", info.WatchTime.String()),
			)
		}
		q.emit(func() {
			if q.handlers.Watch != nil {
				q.handlers.Watch(info)
			}
		})
	}
	if q.watchTimer == nil {
		q.watchTimer = time.NewTimer(q.opts.WatchPeriod)
	} else {
		q.watchTimer.Reset(q.opts.WatchPeriod)
	}
	q.watchC = q.watchTimer.C
}

// scanOverdue classifies in-flight items against WatchTime. Items that have
// gone WatchTime since their last check are Watched and get their check time
// reset; items overdue in total but checked recently are Still.
//
// report is true when there are overdue items, or when the previous scan had
// some and this one has none.
func (q *Queue[T]) scanOverdue(now time.Time) (info WatchInfo[T], report, active bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	info.WatchTime = q.opts.WatchTime
	if q.inflight.IsEmpty() && !q.watched {
		return info, false, false
	}

	type overdue struct {
		id  uint64
		rec inflight.Record[Entry[T]]
	}
	var records []overdue
	q.inflight.Range(func(id uint64, rec inflight.Record[Entry[T]]) bool {
		records = append(records, overdue{id: id, rec: rec})
		return true
	})
	slices.SortFunc(records, func(a, b overdue) int { return cmp.Compare(a.id, b.id) })

	for _, r := range records {
		elapsed := now.Sub(r.rec.Start)
		sinceCheck := now.Sub(r.rec.LastCheck)
		entry := WatchEntry[T]{ID: r.id, Item: r.rec.Value.item, Time: elapsed}
		switch {
		case sinceCheck >= q.opts.WatchTime:
			info.Watched = append(info.Watched, entry)
			q.inflight.ResetCheckTime(r.id, now)
		case elapsed >= q.opts.WatchTime:
			info.Still = append(info.Still, entry)
		}
	}

	info.Total = len(info.Watched) + len(info.Still)
	switch {
	case info.Total > 0:
		q.watched = true
		report = true
	case q.watched:
		q.watched = false
		report = true
	}
	return info, report, true
}
