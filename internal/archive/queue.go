package archive

import (
	"sync"
)

// Queue is a thread-safe bounded FIFO. When full, Push overwrites the
// oldest item and counts it as dropped.
type Queue[T any] struct {
	mu     sync.Mutex
	cond   *sync.Cond
	buf    []T
	head   int // read position
	count  int
	closed bool

	dropped int64
}

// NewQueue creates a queue holding at most capacity items.
func NewQueue[T any](capacity int) *Queue[T] {
	if capacity < 1 {
		capacity = 1
	}
	q := &Queue[T]{buf: make([]T, capacity)}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push adds an item. Returns false if the queue is closed.
func (q *Queue[T]) Push(item T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	if q.count == len(q.buf) {
		q.head = (q.head + 1) % len(q.buf)
		q.count--
		q.dropped++
	}

	q.buf[(q.head+q.count)%len(q.buf)] = item
	q.count++

	q.cond.Signal()
	return true
}

// Pop removes the oldest item, blocking until one is available.
// Returns false once the queue is closed and drained.
func (q *Queue[T]) Pop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.count == 0 && !q.closed {
		q.cond.Wait()
	}
	return q.take()
}

// TryPop removes the oldest item without blocking.
func (q *Queue[T]) TryPop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.take()
}

func (q *Queue[T]) take() (T, bool) {
	var zero T
	if q.count == 0 {
		return zero, false
	}
	item := q.buf[q.head]
	q.buf[q.head] = zero // release for GC
	q.head = (q.head + 1) % len(q.buf)
	q.count--
	return item, true
}

// Close closes the queue. Pending items can still be popped.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
	q.cond.Broadcast()
}

// Len returns the number of pending items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// Dropped returns how many items were overwritten.
func (q *Queue[T]) Dropped() int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}
