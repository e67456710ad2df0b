package itemqueue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sleepProcess(_ context.Context, ms int, _ uint64) (any, error) {
	time.Sleep(time.Duration(ms) * time.Millisecond)
	return ms, nil
}

func TestWatch_ReportsOverdueItem(t *testing.T) {
	rec := &recorder[int]{}
	m := &AtomicMetrics{}
	q := newTestQueue(t, Config[int]{
		Options: Options{
			Concurrency: 2,
			WatchTime:   60 * time.Millisecond,
			WatchPeriod: 10 * time.Millisecond,
		},
		ProcessItem: sleepProcess,
		Handlers:    rec.handlers(),
		Metrics:     m,
	})

	require.NoError(t, q.AddItems([]int{1, 100, 20, 30, 40}, false))
	require.NoError(t, q.Wait(waitCtx(t)))

	events := rec.watchEvents()
	require.GreaterOrEqual(t, len(events), 2)

	first := events[0]
	assert.Equal(t, 1, first.Total)
	require.Len(t, first.Watched, 1)
	assert.Equal(t, 100, first.Watched[0].Item)
	assert.Equal(t, uint64(2), first.Watched[0].ID)
	assert.GreaterOrEqual(t, first.Watched[0].Time, 60*time.Millisecond)
	assert.Empty(t, first.Still)
	assert.Equal(t, 60*time.Millisecond, first.WatchTime)

	var still int
	for _, ev := range events[1 : len(events)-1] {
		assert.Empty(t, ev.Watched)
		if assert.Len(t, ev.Still, 1) {
			assert.Equal(t, 100, ev.Still[0].Item)
			still++
		}
	}
	assert.Positive(t, still, "expected follow-up reports while the item keeps running")

	last := events[len(events)-1]
	assert.Zero(t, last.Total)
	assert.Empty(t, last.Watched)
	assert.Empty(t, last.Still)

	// the all-clear is reported once and then the watchdog disarms
	waitUntil(t, time.Second, func() bool {
		q.mu.Lock()
		defer q.mu.Unlock()
		return !q.watchArmed
	})
	time.Sleep(30 * time.Millisecond)
	assert.Len(t, rec.watchEvents(), len(events))
	assert.Positive(t, m.Overdue())
}

func TestWatch_RearmsForNextBatch(t *testing.T) {
	rec := &recorder[int]{}
	q := newTestQueue(t, Config[int]{
		Options: Options{
			Concurrency: 1,
			WatchTime:   20 * time.Millisecond,
			WatchPeriod: 5 * time.Millisecond,
		},
		ProcessItem: sleepProcess,
		Handlers:    rec.handlers(),
	})

	q.AddItem(50)
	require.NoError(t, q.Wait(waitCtx(t)))
	firstBatch := len(rec.watchEvents())
	require.Positive(t, firstBatch)

	waitUntil(t, time.Second, func() bool {
		q.mu.Lock()
		defer q.mu.Unlock()
		return !q.watchArmed
	})

	q.AddItem(50)
	require.NoError(t, q.Wait(waitCtx(t)))
	events := rec.watchEvents()
	require.Greater(t, len(events), firstBatch)
	assert.Equal(t, 1, events[firstBatch].Total)
	assert.Zero(t, events[len(events)-1].Total)
}

func TestWatch_DisabledWithoutWatchTime(t *testing.T) {
	rec := &recorder[int]{}
	q, err := New(Config[int]{
		Options:     Options{Concurrency: 2, WatchPeriod: time.Millisecond},
		ProcessItem: sleepProcess,
		Handlers:    rec.handlers(),
	})
	require.NoError(t, err)

	require.NoError(t, q.AddItems([]int{10, 20, 10}, false))
	require.NoError(t, q.Wait(waitCtx(t)))
	require.NoError(t, q.Shutdown(waitCtx(t)))

	assert.Empty(t, rec.watchEvents())
	assert.Nil(t, q.watchTimer)
}

func TestScanOverdue(t *testing.T) {
	const watchTime = 50 * time.Millisecond
	q := newTestQueue(t, Config[string]{
		Options:     Options{WatchTime: watchTime},
		ProcessItem: nopProcess[string],
	})

	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	q.mu.Lock()
	require.NoError(t, q.inflight.Add(1, Item("slow"), base.Add(-70*time.Millisecond)))
	require.NoError(t, q.inflight.Add(2, Item("fast"), base.Add(-10*time.Millisecond)))
	q.mu.Unlock()

	info, report, active := q.scanOverdue(base)
	assert.True(t, active)
	assert.True(t, report)
	assert.Equal(t, 1, info.Total)
	require.Len(t, info.Watched, 1)
	assert.Equal(t, "slow", info.Watched[0].Item)
	assert.Equal(t, 70*time.Millisecond, info.Watched[0].Time)
	assert.Empty(t, info.Still)

	// checked 20ms ago, overdue in total
	info, report, _ = q.scanOverdue(base.Add(20 * time.Millisecond))
	assert.True(t, report)
	assert.Empty(t, info.Watched)
	require.Len(t, info.Still, 1)
	assert.Equal(t, uint64(1), info.Still[0].ID)
	assert.Equal(t, 90*time.Millisecond, info.Still[0].Time)

	// both cross WatchTime since their last check; ordered by id
	info, _, _ = q.scanOverdue(base.Add(60 * time.Millisecond))
	assert.Equal(t, 2, info.Total)
	require.Len(t, info.Watched, 2)
	assert.Equal(t, "slow", info.Watched[0].Item)
	assert.Equal(t, "fast", info.Watched[1].Item)

	q.mu.Lock()
	require.NoError(t, q.inflight.Remove(1))
	require.NoError(t, q.inflight.Remove(2))
	q.mu.Unlock()

	info, report, active = q.scanOverdue(base.Add(70 * time.Millisecond))
	assert.True(t, active)
	assert.True(t, report, "all-clear follows the last overdue report")
	assert.Zero(t, info.Total)

	_, report, active = q.scanOverdue(base.Add(80 * time.Millisecond))
	assert.False(t, report)
	assert.False(t, active)
}

func TestScanOverdue_NothingOverdue(t *testing.T) {
	q := newTestQueue(t, Config[int]{
		Options:     Options{WatchTime: time.Second},
		ProcessItem: nopProcess[int],
	})

	now := time.Now()
	q.mu.Lock()
	require.NoError(t, q.inflight.Add(7, Item(7), now))
	q.mu.Unlock()

	info, report, active := q.scanOverdue(now.Add(100 * time.Millisecond))
	assert.True(t, active)
	assert.False(t, report)
	assert.Zero(t, info.Total)
}
