package itemqueue

import "fmt"

// Precondition errors. These are caller programming errors and are returned
// synchronously from the violating call.
var (
	// ErrNoProcessItem is returned by New when Config.ProcessItem is nil.
	ErrNoProcessItem = &QueueError{msg: "must provide ProcessItem callback"}

	// ErrNotSequence is returned by the batch operations when given a nil slice.
	ErrNotSequence = &QueueError{msg: "must pass a slice of items"}

	// ErrClosed is returned by Wait when the queue is closed while waiting,
	// and by Launch on a stopped WorkerPool.
	ErrClosed = &QueueError{msg: "queue is closed"}
)

// QueueError is an error raised by the queue itself rather than by an item.
type QueueError struct {
	msg string
	err error
}

func (e *QueueError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("itemqueue: %s: %v", e.msg, e.err)
	}
	return fmt.Sprintf("itemqueue: %s", e.msg)
}

func (e *QueueError) Unwrap() error { return e.err }

func errInvalidConfig(msg string) error {
	return &QueueError{msg: "invalid config: " + msg}
}

func errInternal(op string, err error) error {
	return &QueueError{msg: op, err: err}
}

// PanicError is the error recorded when ProcessItem or an event handler
// panics.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("itemqueue: panic: %v", e.Value)
}
