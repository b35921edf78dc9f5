// Package stagebus provides the bounded queues that connect pipeline
// stages. A queue tracks outstanding items so producers can wait until
// every dequeued item has been acknowledged.
package stagebus

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrNotInitialized is returned when an operation is attempted on a nil
// queue, usually because wiring ran out of order during startup.
var ErrNotInitialized = errors.New("queue not initialized")

// Queue is a bounded FIFO connecting one pipeline stage to the next.
// Put blocks while the queue is full, Get blocks while it is empty, and
// every Get must be matched by a Done call before Join unblocks.
type Queue[T any] struct {
	items chan T

	mu         sync.Mutex
	unfinished int
	settled    chan struct{}
}

// NewQueue creates a queue holding at most capacity items.
func NewQueue[T any](capacity int) *Queue[T] {
	return &Queue[T]{
		items:   make(chan T, capacity),
		settled: make(chan struct{}),
	}
}

// Put enqueues item, blocking until space is available or ctx is done.
func (q *Queue[T]) Put(ctx context.Context, item T) error {
	if q == nil {
		return ErrNotInitialized
	}

	// Count the item before it is visible to consumers, so a consumer's
	// Done can never observe a transiently low outstanding count.
	q.mu.Lock()
	q.unfinished++
	q.mu.Unlock()

	select {
	case q.items <- item:
		return nil
	case <-ctx.Done():
		q.mu.Lock()
		q.unfinished--
		if q.unfinished == 0 {
			close(q.settled)
			q.settled = make(chan struct{})
		}
		q.mu.Unlock()
		return ctx.Err()
	}
}

// Get dequeues the next item, blocking until one is available or ctx is
// done. Callers must call Done once the item has been fully handled.
func (q *Queue[T]) Get(ctx context.Context) (T, error) {
	var zero T
	if q == nil {
		return zero, ErrNotInitialized
	}

	select {
	case item := <-q.items:
		return item, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Done acknowledges one previously dequeued item. Calling it more times
// than items were dequeued is a bookkeeping bug and returns an error.
func (q *Queue[T]) Done() error {
	if q == nil {
		return ErrNotInitialized
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.unfinished == 0 {
		return fmt.Errorf("acknowledged more items than were dequeued")
	}
	q.unfinished--
	if q.unfinished == 0 {
		close(q.settled)
		q.settled = make(chan struct{})
	}
	return nil
}

// Join blocks until every item put on the queue has been acknowledged,
// or ctx is done.
func (q *Queue[T]) Join(ctx context.Context) error {
	if q == nil {
		return ErrNotInitialized
	}

	for {
		q.mu.Lock()
		if q.unfinished == 0 {
			q.mu.Unlock()
			return nil
		}
		settled := q.settled
		q.mu.Unlock()

		select {
		case <-settled:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Len reports the number of items currently buffered.
func (q *Queue[T]) Len() int {
	if q == nil {
		return 0
	}
	return len(q.items)
}
