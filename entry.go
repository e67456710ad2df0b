package itemqueue

// entryKind tags what an Entry carries.
type entryKind uint8

const (
	kindItem entryKind = iota
	kindPause
	kindResume
	kindNoop
)

func (k entryKind) String() string {
	switch k {
	case kindItem:
		return "item"
	case kindPause:
		return "pause"
	case kindResume:
		return "resume"
	case kindNoop:
		return "noop"
	default:
		return "unknown"
	}
}

// ItemOptions adjust how a single item is queued.
type ItemOptions struct {
	// NoStart appends the item without scheduling a dispatch pass.
	NoStart bool

	// ContinueOnError exempts this item from Options.StopOnError: its failure
	// is reported through FailItem but never halts the queue.
	ContinueOnError bool
}

// Entry is one slot of the pending queue: either a caller item or a control
// marker. Control markers are never handed to the worker. A pause point takes
// no concurrency slot; a resume marker is given an id and settles on the
// dispatch turn that popped it.
type Entry[T any] struct {
	kind            entryKind
	item            T
	continueOnError bool
}

// Item wraps v as a regular entry.
func Item[T any](v T) Entry[T] {
	return Entry[T]{kind: kindItem, item: v}
}

// ItemWith wraps v with per-item options. Only ContinueOnError is kept on the
// entry; NoStart applies to the enqueue call.
func ItemWith[T any](v T, o ItemOptions) Entry[T] {
	return Entry[T]{kind: kindItem, item: v, continueOnError: o.ContinueOnError}
}

// PausePoint returns the marker that pauses the queue when it reaches the
// front. Items queued after it wait until Resume.
func PausePoint[T any]() Entry[T] {
	return Entry[T]{kind: kindPause}
}

func resumeMarker[T any]() Entry[T] { return Entry[T]{kind: kindResume} }
func noopMarker[T any]() Entry[T]   { return Entry[T]{kind: kindNoop} }

// IsControl reports whether e is a control marker rather than an item.
func (e Entry[T]) IsControl() bool { return e.kind != kindItem }

// IsPause reports whether e is a pause point.
func (e Entry[T]) IsPause() bool { return e.kind == kindPause }

// Value returns the wrapped item. ok is false for control markers.
func (e Entry[T]) Value() (v T, ok bool) {
	return e.item, e.kind == kindItem
}
