package batch

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"empath/pkg/logger"
	"empath/pkg/metrics"
)

// Processor handles one unit. A returned error marks the unit failed; it
// is logged and counted, and the batch continues.
type Processor interface {
	Process(ctx context.Context, u Unit) error
}

// Worker drains units off the queue and hands them to the processor.
type Worker struct {
	queue     Queue
	processor Processor
	name      string

	// Shutdown control
	shutdown chan struct{}
	done     chan struct{}

	// Logging
	logger logger.Logger
}

// NewWorker creates a new worker with configuration options.
func NewWorker(queue Queue, processor Processor, opts ...WorkerOption) *Worker {
	w := &Worker{
		queue:     queue,
		processor: processor,
		name:      "worker",
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}

	return w
}

// Run drains the queue until it closes, the context is canceled, or
// Shutdown is called.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)

	units := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case u, ok := <-units:
			if !ok {
				return
			}
			w.processUnit(ctx, u)
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *Worker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processUnit handles a single unit, isolating its failure from the batch.
func (w *Worker) processUnit(ctx context.Context, u Unit) {
	start := time.Now()
	defer func() {
		metrics.RecordUnitDuration(time.Since(start).Seconds())
	}()

	if err := w.processor.Process(ctx, u); err != nil {
		metrics.RecordUnitFailure()
		w.logger.Error(ctx, "unit failed; continuing batch",
			logger.String("run_id", u.RunID),
			logger.String("subject", u.Subject),
			logger.Error(err),
		)
		return
	}
	metrics.RecordUnitProcessed()
}

// Pool manages multiple workers and waits for the queue to drain.
type Pool struct {
	workers []*Worker
	active  atomic.Int64
	logger  logger.Logger
}

// NewPool creates a pool of workerCount workers over the queue.
func NewPool(workerCount int, queue Queue, processor Processor) *Pool {
	if workerCount < 1 {
		workerCount = 1
	}

	p := &Pool{
		workers: make([]*Worker, workerCount),
		logger:  logger.Get().Named("batch"),
	}
	for i := range p.workers {
		p.workers[i] = NewWorker(queue, wrapActive(&p.active, processor),
			WithName(fmt.Sprintf("worker-%d", i)))
	}
	return p
}

// Run starts every worker and blocks until all of them have finished,
// which happens when the queue is closed and drained or the context is
// canceled.
func (p *Pool) Run(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(len(p.workers))
	for _, w := range p.workers {
		go func(w *Worker) {
			defer wg.Done()
			w.Run(ctx)
		}(w)
	}
	wg.Wait()
	metrics.UpdateActiveWorkers(0)
}

// activeProcessor tracks the active-worker gauge around a processor.
type activeProcessor struct {
	active *atomic.Int64
	inner  Processor
}

func wrapActive(active *atomic.Int64, inner Processor) Processor {
	return &activeProcessor{active: active, inner: inner}
}

func (a *activeProcessor) Process(ctx context.Context, u Unit) error {
	metrics.UpdateActiveWorkers(int(a.active.Add(1)))
	defer func() {
		metrics.UpdateActiveWorkers(int(a.active.Add(-1)))
	}()
	return a.inner.Process(ctx, u)
}
