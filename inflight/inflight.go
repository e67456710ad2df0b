// Package inflight records operations that are currently in progress.
//
// A Tracker maps a key to the time the operation started, the time it was
// last checked by a watcher, and an arbitrary value. It owns no timers and
// does no locking: callers must confine a Tracker to a single goroutine or
// guard it themselves.
package inflight

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrDuplicate is returned by Add when the key is already tracked.
	ErrDuplicate = errors.New("inflight: key already tracked")

	// ErrMissing is returned by Remove when the key is not tracked.
	ErrMissing = errors.New("inflight: key not tracked")
)

// Record is the bookkeeping kept for one in-flight operation.
type Record[V any] struct {
	Start     time.Time
	LastCheck time.Time
	Value     V
}

// Tracker holds the set of in-flight records.
//
// Every method that takes a now argument treats the zero time as
// "the current time" as reported by the tracker clock.
type Tracker[K comparable, V any] struct {
	records map[K]*Record[V]
	count   int
	clock   func() time.Time
}

// Option configures a Tracker.
type Option func(*options)

type options struct {
	clock func() time.Time
}

// WithClock replaces time.Now as the source of the current time.
func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// New returns an empty Tracker.
func New[K comparable, V any](opts ...Option) *Tracker[K, V] {
	o := options{clock: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Tracker[K, V]{
		records: make(map[K]*Record[V]),
		clock:   o.clock,
	}
}

func (t *Tracker[K, V]) at(now time.Time) time.Time {
	if now.IsZero() {
		return t.clock()
	}
	return now
}

// Add starts tracking key with value. Start and last-check times are both set to now.
func (t *Tracker[K, V]) Add(key K, value V, now time.Time) error {
	if _, ok := t.records[key]; ok {
		return fmt.Errorf("%w: %v", ErrDuplicate, key)
	}
	now = t.at(now)
	t.records[key] = &Record[V]{Start: now, LastCheck: now, Value: value}
	t.count++
	return nil
}

// Remove stops tracking key. Once the tracker drains to zero its storage is
// released.
func (t *Tracker[K, V]) Remove(key K) error {
	if _, ok := t.records[key]; !ok {
		return fmt.Errorf("%w: %v", ErrMissing, key)
	}
	if t.count <= 0 {
		return fmt.Errorf("%w: %v (count is %d)", ErrMissing, key, t.count)
	}
	t.count--
	if t.count == 0 {
		t.records = make(map[K]*Record[V])
		return nil
	}
	delete(t.records, key)
	return nil
}

// Get returns the value tracked under key.
func (t *Tracker[K, V]) Get(key K) (V, bool) {
	r, ok := t.records[key]
	if !ok {
		var zero V
		return zero, false
	}
	return r.Value, true
}

// Record returns a copy of the full record for key.
func (t *Tracker[K, V]) Record(key K) (Record[V], bool) {
	r, ok := t.records[key]
	if !ok {
		return Record[V]{}, false
	}
	return *r, true
}

// StartTime returns when key started, or the zero time if it is not tracked.
func (t *Tracker[K, V]) StartTime(key K) time.Time {
	if r, ok := t.records[key]; ok {
		return r.Start
	}
	return time.Time{}
}

// CheckTime returns when key was last checked, or the zero time if it is not tracked.
func (t *Tracker[K, V]) CheckTime(key K) time.Time {
	if r, ok := t.records[key]; ok {
		return r.LastCheck
	}
	return time.Time{}
}

// Elapsed returns now minus the start time of key, or -1 if key is not tracked.
func (t *Tracker[K, V]) Elapsed(key K, now time.Time) time.Duration {
	r, ok := t.records[key]
	if !ok {
		return -1
	}
	return t.at(now).Sub(r.Start)
}

// LastCheckElapsed returns now minus the last-check time of key, or -1 if key
// is not tracked.
func (t *Tracker[K, V]) LastCheckElapsed(key K, now time.Time) time.Duration {
	r, ok := t.records[key]
	if !ok {
		return -1
	}
	return t.at(now).Sub(r.LastCheck)
}

// ResetCheckTime sets the last-check time of key to now. Unknown keys are ignored.
func (t *Tracker[K, V]) ResetCheckTime(key K, now time.Time) *Tracker[K, V] {
	if r, ok := t.records[key]; ok {
		r.LastCheck = t.at(now)
	}
	return t
}

// Range calls fn for every tracked record until fn returns false.
// Iteration order is unspecified.
func (t *Tracker[K, V]) Range(fn func(key K, rec Record[V]) bool) {
	for k, r := range t.records {
		if !fn(k, *r) {
			return
		}
	}
}

// IsEmpty reports whether nothing is in flight.
func (t *Tracker[K, V]) IsEmpty() bool { return t.count == 0 }

// Count returns the number of in-flight records.
func (t *Tracker[K, V]) Count() int { return t.count }
