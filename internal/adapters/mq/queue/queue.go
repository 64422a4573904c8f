// Package queue carries actions from ingestion to the worker pool.
//
// The queue is a bounded buffered channel: Enqueue never blocks and reports
// backpressure with ErrFull.
package queue

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/vigia/internal/domain/model"
	"github.com/okian/vigia/pkg/metrics"
)

// Default queue configuration constants.
const defaultQueueCapacity = 10000

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds an action to the queue without blocking.
	// Returns ErrFull when at capacity and ErrClosed after Close.
	Enqueue(ctx context.Context, a model.Action) error

	// Dequeue returns a channel receiving queued actions. The channel is
	// closed when the queue is closed and drained.
	Dequeue(ctx context.Context) <-chan model.Action

	// Len returns the current number of queued actions.
	Len(ctx context.Context) int

	// Close stops accepting actions. Already queued actions stay readable.
	Close() error
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	actions  chan model.Action
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.actions = make(chan model.Action, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	return q
}

// Enqueue implements Queue.Enqueue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, a model.Action) error { //nolint:gocritic // hugeParam: actions travel by value
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordEnqueueError("closed")
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordEnqueueError("context_cancelled")
		return fmt.Errorf("enqueue %q: %w", a.ID, err)
	}

	select {
	case q.actions <- a:
		metrics.UpdateQueueSize(len(q.actions))
		return nil
	default:
		metrics.RecordEnqueueError("full")
		return ErrFull
	}
}

// Dequeue implements Queue.Dequeue. Every caller shares the same buffer, so
// multiple consumers split the actions between them.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan model.Action {
	out := make(chan model.Action)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case a, ok := <-q.actions:
				if !ok {
					return
				}
				metrics.UpdateQueueSize(len(q.actions))
				select {
				case out <- a:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// Len implements Queue.Len.
func (q *InMemoryQueue) Len(_ context.Context) int {
	return len(q.actions)
}

// Capacity returns the configured capacity.
func (q *InMemoryQueue) Capacity() int { return q.capacity }

// Close implements Queue.Close.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.actions)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
