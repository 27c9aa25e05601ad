package batch_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"empath/internal/adapters/batch"
	"empath/pkg/logger"

	. "github.com/smartystreets/goconvey/convey"
)

type recordingProcessor struct {
	mu       sync.Mutex
	seen     []string
	failFor  map[string]bool
	failures int
}

func (p *recordingProcessor) Process(_ context.Context, u batch.Unit) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seen = append(p.seen, u.Subject)
	if p.failFor[u.Subject] {
		p.failures++
		return errors.New("boom")
	}
	return nil
}

func TestQueue(t *testing.T) {
	if err := logger.Init(); err != nil {
		t.Fatal(err)
	}

	Convey("Given an in-memory queue", t, func() {
		ctx := context.Background()
		q := batch.NewInMemoryQueue(batch.WithCapacity(4))

		Convey("When units are enqueued", func() {
			ok := q.Enqueue(ctx, batch.Unit{Subject: "subj01"})

			Convey("Then they are accepted and counted", func() {
				So(ok, ShouldBeTrue)
				So(q.Len(ctx), ShouldEqual, 1)
			})
		})

		Convey("When the queue is closed", func() {
			So(q.Close(), ShouldBeNil)

			Convey("Then enqueue is rejected and close is idempotent", func() {
				So(q.Enqueue(ctx, batch.Unit{Subject: "subj02"}), ShouldBeFalse)
				So(q.Close(), ShouldBeNil)
			})
		})

		Convey("When enqueue races a canceled context", func() {
			canceled, cancel := context.WithCancel(ctx)
			cancel()
			full := batch.NewInMemoryQueue(batch.WithCapacity(1))
			So(full.Enqueue(ctx, batch.Unit{Subject: "a"}), ShouldBeTrue)

			Convey("Then a blocked enqueue returns false", func() {
				So(full.Enqueue(canceled, batch.Unit{Subject: "b"}), ShouldBeFalse)
			})
		})
	})
}

func TestPool(t *testing.T) {
	if err := logger.Init(); err != nil {
		t.Fatal(err)
	}

	Convey("Given a pool over a queue of units", t, func() {
		ctx := context.Background()

		Convey("When one unit fails", func() {
			q := batch.NewInMemoryQueue(batch.WithCapacity(8))
			proc := &recordingProcessor{failFor: map[string]bool{"subj02": true}}
			pool := batch.NewPool(2, q, proc)

			for _, s := range []string{"subj01", "subj02", "subj03"} {
				So(q.Enqueue(ctx, batch.Unit{RunID: s, Subject: s}), ShouldBeTrue)
			}
			So(q.Close(), ShouldBeNil)

			pool.Run(ctx)

			Convey("Then the failure is isolated and the batch drains", func() {
				So(proc.seen, ShouldHaveLength, 3)
				So(proc.failures, ShouldEqual, 1)
			})
		})

		Convey("When the worker count is below one", func() {
			q := batch.NewInMemoryQueue()
			proc := &recordingProcessor{}
			pool := batch.NewPool(0, q, proc)

			So(q.Enqueue(ctx, batch.Unit{Subject: "subj01"}), ShouldBeTrue)
			So(q.Close(), ShouldBeNil)
			pool.Run(ctx)

			Convey("Then a single worker still drains the queue", func() {
				So(proc.seen, ShouldResemble, []string{"subj01"})
			})
		})
	})
}
