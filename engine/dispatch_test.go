package engine

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meikuraledutech/workflow"
)

func TestDispatcher_BoundsConcurrencyAndDrains(t *testing.T) {
	var inFlight, peak atomic.Int32
	release := make(chan struct{})

	blocking := ExecutorFunc(func(ctx context.Context, _ workflow.Node, rc *Context) (any, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		<-release
		inFlight.Add(-1)
		return rc.Input(), nil
	})

	sink := &recordingSink{}
	e := newTestEngine(sink, WithExecutor(workflow.NodeScript, blocking))
	d := NewDispatcher(e, 2)
	wf := chainOf(node("start", workflow.NodeStart, nil), node("wait", workflow.NodeScript, nil))

	for i := range 5 {
		d.Dispatch(context.Background(), fmt.Sprintf("exec-%d", i), wf, i)
	}

	require.Eventually(t, func() bool { return inFlight.Load() == 2 }, time.Second, 5*time.Millisecond)
	close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, d.Wait(ctx))

	assert.Equal(t, int32(2), peak.Load())
	assert.Len(t, sink.all(), 5)
	for _, r := range sink.all() {
		assert.Equal(t, workflow.StatusSuccess, r.res.Status)
	}
}

func TestDispatcher_OutlivesCallerContext(t *testing.T) {
	sink := &recordingSink{}
	d := NewDispatcher(newTestEngine(sink), 0)

	ctx, cancel := context.WithCancel(context.Background())
	d.Dispatch(ctx, "exec-1", chainOf(node("start", workflow.NodeStart, nil)), 1)
	cancel()

	require.NoError(t, d.Wait(context.Background()))
	require.Len(t, sink.all(), 1)
	assert.Equal(t, workflow.StatusSuccess, sink.all()[0].res.Status)
}

func TestDispatcher_WaitHonoursDeadline(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	e := newTestEngine(nil, WithExecutor(workflow.NodeStart, ExecutorFunc(func(context.Context, workflow.Node, *Context) (any, error) {
		<-release
		return nil, nil
	})))
	d := NewDispatcher(e, 1)
	d.Dispatch(context.Background(), "exec-1", chainOf(node("start", workflow.NodeStart, nil)), nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, d.Wait(ctx), context.DeadlineExceeded)
}
