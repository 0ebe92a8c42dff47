// Package queue holds the buffers journal entries wait in before a backend writes them.
package queue

import (
	"sync"
)

// Queue is a FIFO safe for concurrent use. With a limit it keeps only the newest
// entries: while the database is away, recent sizing decisions matter more than old ones.
type Queue[T any] struct {
	mu      sync.Mutex
	items   []T
	limit   int
	dropped uint64
}

// New returns an unbounded queue.
func New[T any]() *Queue[T] {
	return &Queue[T]{}
}

// NewBounded returns a queue holding at most limit entries; limit <= 0 means no bound.
func NewBounded[T any](limit int) *Queue[T] {
	return &Queue[T]{limit: max(limit, 0)}
}

// Push appends to the back.
func (q *Queue[T]) Push(items ...T) {
	q.mu.Lock()
	q.items = append(q.items, items...)
	q.enforceLimit()
	q.mu.Unlock()
}

// Requeue returns entries that failed to write to the front, ahead of anything
// pushed in the meantime.
func (q *Queue[T]) Requeue(items ...T) {
	if len(items) == 0 {
		return
	}
	q.mu.Lock()
	q.items = append(append(make([]T, 0, len(items)+len(q.items)), items...), q.items...)
	q.enforceLimit()
	q.mu.Unlock()
}

func (q *Queue[T]) enforceLimit() {
	over := len(q.items) - q.limit
	if q.limit == 0 || over <= 0 {
		return
	}
	q.dropped += uint64(over)
	q.items = append([]T(nil), q.items[over:]...)
}

// Take removes up to n entries from the front; n <= 0 takes all of them.
// The returned slice is owned by the caller.
func (q *Queue[T]) Take(n int) []T {
	q.mu.Lock()
	defer q.mu.Unlock()

	if n <= 0 || n > len(q.items) {
		n = len(q.items)
	}
	out := make([]T, n)
	copy(out, q.items)
	q.items = q.items[n:]
	if len(q.items) == 0 {
		q.items = nil
	}
	return out
}

func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *Queue[T]) Empty() bool {
	return q.Len() == 0
}

// TakeDropped returns how many entries the limit has discarded since the last call.
func (q *Queue[T]) TakeDropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := q.dropped
	q.dropped = 0
	return n
}
