// Package batch fans a study's subject units out over a bounded queue and
// a fixed pool of workers. Units are independent: no ordering is required
// between them and one unit's failure never aborts the rest.
package batch

import (
	"context"
	"sync"

	"empath/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultQueueCapacity = 1024
)

// Unit is one independently-processable work item: a subject and the
// ordered behavioral logs recorded for them.
type Unit struct {
	// RunID correlates a unit across log lines and diagnostics.
	RunID string

	Subject string
	Logs    []string
}

// Queue provides blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a unit, blocking while the queue is full. It returns
	// false when the context is canceled or the queue is closed.
	Enqueue(ctx context.Context, u Unit) bool

	// Dequeue returns a channel that receives units until the queue is
	// closed and drained.
	Dequeue(ctx context.Context) <-chan Unit

	// Len returns the current number of queued units.
	Len(ctx context.Context) int

	// Close stops accepting units; queued units are still delivered.
	Close() error
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	units    chan Unit
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...QueueOption) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultQueueCapacity,
	}

	for _, opt := range opts {
		opt(q)
	}

	q.units = make(chan Unit, q.capacity)
	metrics.UpdateQueueSize(0)

	return q
}

// Enqueue adds a unit to the queue, blocking while it is full.
func (q *InMemoryQueue) Enqueue(ctx context.Context, u Unit) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return false
	}

	select {
	case q.units <- u:
		metrics.UpdateQueueSize(len(q.units))
		return true
	case <-ctx.Done():
		return false
	}
}

// Dequeue returns a channel that receives units as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Unit {
	out := make(chan Unit)
	go func() {
		defer close(out)
		for u := range q.units {
			select {
			case out <- u:
				metrics.UpdateQueueSize(len(q.units))
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the current number of queued units.
func (q *InMemoryQueue) Len(ctx context.Context) int {
	return len(q.units)
}

// Close stops accepting new units.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.units)
	q.closed = true
	return nil
}
