package inflight

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddSetsStartAndCheckTimeFromNow(t *testing.T) {
	now := time.Now()
	tr := New[string, string]()

	require.NoError(t, tr.Add("test", "hello", time.Time{}))

	v, ok := tr.Get("test")
	require.True(t, ok)
	assert.Equal(t, "hello", v)

	assert.False(t, tr.StartTime("test").Before(now), "start time should be now or after")
	assert.False(t, tr.CheckTime("test").Before(now), "check time should be now or after")
	assert.True(t, tr.StartTime("foo").IsZero())
	assert.True(t, tr.CheckTime("foo").IsZero())
}

func TestAddDuplicate(t *testing.T) {
	tr := New[int, string]()
	require.NoError(t, tr.Add(1, "a", time.Time{}))

	err := tr.Add(1, "b", time.Time{})
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.Equal(t, 1, tr.Count())

	v, _ := tr.Get(1)
	assert.Equal(t, "a", v)
}

func TestElapsed(t *testing.T) {
	tr := New[string, string]()

	assert.Equal(t, time.Duration(-1), tr.Elapsed("missing", time.Time{}))

	now := time.Now()
	require.NoError(t, tr.Add("test", "hello", now.Add(-5*time.Millisecond)))
	assert.Equal(t, 5*time.Millisecond, tr.Elapsed("test", now))

	require.NoError(t, tr.Add("foo", "bar", time.Time{}))
	time.Sleep(10 * time.Millisecond)
	assert.GreaterOrEqual(t, tr.Elapsed("foo", time.Time{}), 10*time.Millisecond)
}

func TestRemove(t *testing.T) {
	tr := New[string, string]()
	assert.True(t, tr.IsEmpty())

	require.NoError(t, tr.Add("foo", "bar", time.Time{}))
	assert.False(t, tr.IsEmpty())
	require.NoError(t, tr.Add("test", "hello", time.Time{}))
	assert.Equal(t, 2, tr.Count())

	require.NoError(t, tr.Remove("test"))
	assert.Equal(t, 1, tr.Count())
	_, ok := tr.Get("test")
	assert.False(t, ok)

	require.NoError(t, tr.Remove("foo"))
	_, ok = tr.Get("foo")
	assert.False(t, ok)
	assert.Equal(t, 0, tr.Count())
	assert.True(t, tr.IsEmpty())

	assert.ErrorIs(t, tr.Remove("foo"), ErrMissing)
}

func TestLastCheckElapsed(t *testing.T) {
	tr := New[string, string]()
	require.NoError(t, tr.Add("test", "hello", time.Time{}))

	time.Sleep(10 * time.Millisecond)
	assert.GreaterOrEqual(t, tr.LastCheckElapsed("test", time.Time{}), 10*time.Millisecond)
	assert.Equal(t, time.Duration(-1), tr.LastCheckElapsed("foo", time.Time{}))

	now := time.Now()
	tr.ResetCheckTime("foo", time.Time{}).ResetCheckTime("test", now.Add(-5*time.Millisecond))
	assert.Equal(t, 5*time.Millisecond, tr.LastCheckElapsed("test", now))

	// start time is untouched by a check reset
	assert.GreaterOrEqual(t, tr.Elapsed("test", now), 10*time.Millisecond)
}

func TestWithClock(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	now := base
	tr := New[int, struct{}](WithClock(func() time.Time { return now }))

	require.NoError(t, tr.Add(7, struct{}{}, time.Time{}))
	now = base.Add(3 * time.Second)

	assert.Equal(t, 3*time.Second, tr.Elapsed(7, time.Time{}))
	tr.ResetCheckTime(7, time.Time{})
	assert.Equal(t, time.Duration(0), tr.LastCheckElapsed(7, time.Time{}))

	rec, ok := tr.Record(7)
	require.True(t, ok)
	assert.Equal(t, base, rec.Start)
	assert.Equal(t, now, rec.LastCheck)
}

func TestRange(t *testing.T) {
	tr := New[int, string]()
	for i, v := range []string{"a", "b", "c"} {
		require.NoError(t, tr.Add(i+1, v, time.Time{}))
	}

	seen := map[int]string{}
	tr.Range(func(k int, rec Record[string]) bool {
		seen[k] = rec.Value
		return true
	})
	assert.Equal(t, map[int]string{1: "a", 2: "b", 3: "c"}, seen)

	calls := 0
	tr.Range(func(int, Record[string]) bool {
		calls++
		return false
	})
	assert.Equal(t, 1, calls)
}
