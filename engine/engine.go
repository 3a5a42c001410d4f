// Package engine runs workflows.
//
// A run starts at the first start node and walks a single chain: after each
// node it follows the first edge leaving that node, in stored order, and
// stops when no edge matches, the target does not exist, or a node repeats.
// Each node runs at most once. The first node failure ends the run.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/meikuraledutech/workflow"
	"github.com/meikuraledutech/workflow/logging"
	"github.com/meikuraledutech/workflow/script"
)

// Engine interprets workflows. It is safe for concurrent runs: all run
// state lives in the Context and sets owned by each call.
type Engine struct {
	executors Registry
	sink      workflow.ResultSink
	logger    *slog.Logger
	metrics   *Metrics
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for run and node events.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithMetrics records runs and node executions in m.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithExecutor replaces the executor for node type t.
func WithExecutor(t workflow.NodeType, ex Executor) Option {
	return func(e *Engine) { e.executors[t] = ex }
}

// New creates an Engine reporting to sink and evaluating script nodes with eval.
// sink may be nil when only Run is used.
func New(sink workflow.ResultSink, eval script.Evaluator, opts ...Option) *Engine {
	e := &Engine{
		executors: Registry{
			workflow.NodeStart:  StartExecutor{},
			workflow.NodeScript: NewScriptExecutor(eval),
			workflow.NodeHTTP:   NewHTTPExecutor(),
			workflow.NodeOutput: OutputExecutor{},
		},
		sink:   sink,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs wf and reports the result to the sink exactly once.
// A sink failure is logged and does not change the returned result.
func (e *Engine) Execute(ctx context.Context, executionID string, wf *workflow.Workflow, input any) workflow.Result {
	log := logging.FromContextOr(ctx, e.logger).With("execution_id", executionID, "workflow_id", wf.ID)
	ctx = logging.WithLogger(ctx, log)

	res := e.Run(ctx, wf, input)

	if e.sink != nil {
		if err := e.sink.Report(ctx, executionID, res); err != nil {
			log.Error("report result", "error", err)
		}
	}
	return res
}

// Run executes wf against input and returns its terminal result.
// Failures are captured in the result; Run never returns them otherwise.
func (e *Engine) Run(ctx context.Context, wf *workflow.Workflow, input any) workflow.Result {
	begin := time.Now()
	log := logging.FromContextOr(ctx, e.logger)
	ctx = logging.WithLogger(ctx, log)
	log.Info("run started", "nodes", len(wf.Nodes), "edges", len(wf.Edges))

	res := e.run(ctx, wf, input)

	elapsed := time.Since(begin)
	e.metrics.observeRun(res.Status, elapsed)
	if res.Status == workflow.StatusError {
		log.Warn("run failed", "error", res.Error, "elapsed", elapsed)
	} else {
		log.Info("run completed", "elapsed", elapsed)
	}
	return res
}

func (e *Engine) run(ctx context.Context, wf *workflow.Workflow, input any) workflow.Result {
	start, ok := wf.FirstOfType(workflow.NodeStart)
	if !ok {
		return workflow.Failure(ErrNoStartNode.Error())
	}

	rc := NewContext(input)
	visited := make(map[string]bool)
	executed := make(map[string]bool)

	current, ok := start, true
	for ok && !visited[current.ID] {
		visited[current.ID] = true

		v, err := e.step(ctx, current, rc)
		if err != nil {
			return workflow.Failure(err.Error())
		}
		rc.Set(current.ID, v)
		executed[current.ID] = true

		next, found := wf.NextEdge(current.ID)
		if !found {
			break
		}
		current, ok = wf.FindNode(next.Target)
	}

	if out, found := wf.FirstOfType(workflow.NodeOutput); found && executed[out.ID] {
		v, _ := rc.Get(out.ID)
		return workflow.Success(v)
	}
	return workflow.Success(rc.Values())
}

// step runs one node and labels any failure, including a panic, with the node.
func (e *Engine) step(ctx context.Context, node workflow.Node, rc *Context) (v any, err error) {
	log := logging.FromContext(ctx)
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		e.metrics.observeNode(node.Type, err)
		if err != nil {
			err = &NodeError{NodeID: node.ID, Label: node.Label, Err: err}
		}
	}()

	ex, err := e.executors.Lookup(node.Type)
	if err != nil {
		return nil, err
	}
	log.Debug("node started", "node_id", node.ID, "type", node.Type)
	return ex.Execute(ctx, node, rc)
}
