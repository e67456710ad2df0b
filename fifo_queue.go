// fifo_queue.go
package itemqueue

const (
	initialFifoCapacity = 64
)

// fifoQueue is a growable ring buffer of pending entries.
//
// Entries leave strictly in insertion order, except that PushFront puts an
// entry ahead of everything already queued (used for pause). It is not safe
// for concurrent use; the queue lock guards it.
type fifoQueue[T any] struct {
	buf        []Entry[T] // circular buffer
	head, tail int        // read/write indices
	size       int        // number of entries currently buffered
	capacity   int
}

// newFifoQueue creates a FIFO queue with the given initial capacity.
func newFifoQueue[T any](cap int) *fifoQueue[T] {
	if cap <= 0 {
		cap = initialFifoCapacity
	}
	return &fifoQueue[T]{
		buf:      make([]Entry[T], cap),
		capacity: cap,
	}
}

// Len returns the number of entries currently waiting.
func (q *fifoQueue[T]) Len() int { return q.size }

// Push appends e at the tail, growing the buffer when full.
func (q *fifoQueue[T]) Push(e Entry[T]) {
	if q.size == q.capacity {
		q.grow()
	}
	q.buf[q.tail] = e
	q.tail++
	if q.tail == q.capacity {
		q.tail = 0
	}
	q.size++
}

// PushFront inserts e ahead of every queued entry.
func (q *fifoQueue[T]) PushFront(e Entry[T]) {
	if q.size == q.capacity {
		q.grow()
	}
	q.head--
	if q.head < 0 {
		q.head = q.capacity - 1
	}
	q.buf[q.head] = e
	q.size++
}

// Pop removes and returns the oldest entry.
//
// If the queue is empty, returns the zero Entry and false.
func (q *fifoQueue[T]) Pop() (Entry[T], bool) {
	if q.size == 0 {
		return Entry[T]{}, false
	}
	e := q.buf[q.head]
	var zero Entry[T]
	q.buf[q.head] = zero // drop the reference to the item
	q.head++
	if q.head == q.capacity {
		q.head = 0
	}
	q.size--
	return e, true
}

// ItemCount returns how many queued entries are items rather than control
// markers.
func (q *fifoQueue[T]) ItemCount() int {
	n := 0
	for i, idx := 0, q.head; i < q.size; i++ {
		if !q.buf[idx].IsControl() {
			n++
		}
		idx++
		if idx == q.capacity {
			idx = 0
		}
	}
	return n
}

// Reset discards every entry and refills the queue with entries.
func (q *fifoQueue[T]) Reset(entries []Entry[T]) {
	capacity := initialFifoCapacity
	for capacity < len(entries) {
		capacity *= 2
	}
	q.buf = make([]Entry[T], capacity)
	q.capacity = capacity
	q.head = 0
	q.size = copy(q.buf, entries)
	q.tail = q.size % capacity
}

// grow doubles the buffer and unwraps the entries to start at index 0.
func (q *fifoQueue[T]) grow() {
	newCap := q.capacity * 2
	buf := make([]Entry[T], newCap)
	if q.head < q.tail {
		copy(buf, q.buf[q.head:q.tail])
	} else if q.size > 0 {
		n := copy(buf, q.buf[q.head:])
		copy(buf[n:], q.buf[:q.tail])
	}
	q.buf = buf
	q.head = 0
	q.tail = q.size
	q.capacity = newCap
}
