package batch

import (
	"empath/pkg/logger"
)

// QueueOption applies a configuration option to the InMemoryQueue.
type QueueOption func(*InMemoryQueue)

// WithCapacity bounds the number of queued units.
func WithCapacity(capacity int) QueueOption {
	return func(q *InMemoryQueue) {
		if capacity > 0 {
			q.capacity = capacity
		}
	}
}

// WorkerOption applies a configuration option to a Worker.
type WorkerOption func(*Worker)

// WithName sets the worker's name, used for its named logger.
func WithName(name string) WorkerOption {
	return func(w *Worker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithWorkerLogger sets a custom logger for the worker.
func WithWorkerLogger(l logger.Logger) WorkerOption {
	return func(w *Worker) {
		if l != nil {
			w.logger = l
		}
	}
}
