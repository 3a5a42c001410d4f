package engine

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/meikuraledutech/workflow"
)

// DefaultWorkers is the run concurrency used when none is configured.
const DefaultWorkers = 8

// Dispatcher starts runs in the background. The caller never waits for a
// run and never sees its outcome; only the engine's sink does.
type Dispatcher struct {
	engine *Engine
	slots  *semaphore.Weighted
	wg     sync.WaitGroup
}

// NewDispatcher allows at most workers runs in flight at once.
func NewDispatcher(e *Engine, workers int) *Dispatcher {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Dispatcher{engine: e, slots: semaphore.NewWeighted(int64(workers))}
}

// Dispatch queues a run and returns immediately. The run keeps ctx's values
// but not its cancellation, so it outlives the request that started it.
func (d *Dispatcher) Dispatch(ctx context.Context, executionID string, wf *workflow.Workflow, input any) {
	ctx = context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := d.slots.Acquire(ctx, 1); err != nil {
			return
		}
		defer d.slots.Release(1)
		d.engine.Execute(ctx, executionID, wf, input)
	}()
}

// Wait blocks until every dispatched run has reported or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
