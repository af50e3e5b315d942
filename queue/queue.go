package queue

import "sync"

// Queue is a generic FIFO queue that can hold any type. It is safe for
// concurrent use. A bounded queue drops its oldest element when full.
type Queue[T any] struct {
	mu       sync.Mutex
	items    []T
	capacity int
	signal   chan struct{}
}

// New creates and returns a new unbounded Queue instance.
func New[T any]() *Queue[T] {
	return &Queue[T]{items: []T{}, signal: make(chan struct{}, 1)}
}

// NewBounded creates a queue that keeps at most capacity elements.
func NewBounded[T any](capacity int) *Queue[T] {
	q := New[T]()
	if capacity > 0 {
		q.capacity = capacity
	}
	return q
}

// Enqueue adds an element to the end of the queue. It never blocks.
func (q *Queue[T]) Enqueue(item T) {
	q.mu.Lock()
	q.items = append(q.items, item)
	if q.capacity > 0 && len(q.items) > q.capacity {
		q.items = q.items[len(q.items)-q.capacity:]
	}
	q.mu.Unlock()

	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// Dequeue removes and returns the front element of the queue.
// The boolean indicates whether an element was dequeued (false if the queue was empty).
func (q *Queue[T]) Dequeue() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		var zero T
		return zero, false
	}
	item := q.items[0]
	var zero T
	q.items[0] = zero
	q.items = q.items[1:]
	return item, true
}

// Peek returns the front element without removing it from the queue.
// The boolean indicates whether an element was found (false if the queue is empty).
func (q *Queue[T]) Peek() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		var zero T
		return zero, false
	}
	return q.items[0], true
}

// Len returns the number of elements in the queue.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// IsEmpty returns true if the queue is empty.
func (q *Queue[T]) IsEmpty() bool {
	return q.Len() == 0
}

// Items returns a copy of the queued elements, front first.
func (q *Queue[T]) Items() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]T, len(q.items))
	copy(out, q.items)
	return out
}

// Ready is signalled after Enqueue. Consumers select on it instead of polling.
func (q *Queue[T]) Ready() <-chan struct{} {
	return q.signal
}
