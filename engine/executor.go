package engine

import (
	"context"
	"fmt"

	"github.com/meikuraledutech/workflow"
)

// Executor produces the value of one node from its config and the run context.
// Executors must not mutate the Context; the engine stores the returned value.
type Executor interface {
	Execute(ctx context.Context, node workflow.Node, rc *Context) (any, error)
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, node workflow.Node, rc *Context) (any, error)

func (f ExecutorFunc) Execute(ctx context.Context, node workflow.Node, rc *Context) (any, error) {
	return f(ctx, node, rc)
}

// Registry maps node types to their executors.
type Registry map[workflow.NodeType]Executor

// Lookup returns the executor for t, or an ErrUnknownNodeType error.
func (r Registry) Lookup(t workflow.NodeType) (Executor, error) {
	ex, ok := r[t]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNodeType, t)
	}
	return ex, nil
}

// StartExecutor passes the run input through.
type StartExecutor struct{}

func (StartExecutor) Execute(_ context.Context, _ workflow.Node, rc *Context) (any, error) {
	return rc.Input(), nil
}

func stringField(data map[string]any, key, def string) string {
	if s, ok := data[key].(string); ok && s != "" {
		return s
	}
	return def
}
