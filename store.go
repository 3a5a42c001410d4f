package workflow

import (
	"context"
	"errors"
)

var (
	ErrWorkflowNotFound  = errors.New("workflow: workflow not found")
	ErrExecutionNotFound = errors.New("workflow: execution not found")
)

// ResultSink receives the terminal result of a run.
// It is called exactly once per run; its error never changes the run's result.
type ResultSink interface {
	Report(ctx context.Context, executionID string, res Result) error
}

// Store defines the contract for persisting workflows and their executions.
type Store interface {
	ResultSink

	// Schema
	CreateSchema(ctx context.Context) error
	DropSchema(ctx context.Context) error

	// Workflows
	CreateWorkflow(ctx context.Context, w *Workflow) (*Workflow, error)
	GetWorkflow(ctx context.Context, id string) (*Workflow, error)
	ListWorkflows(ctx context.Context) ([]Workflow, error)
	UpdateWorkflow(ctx context.Context, w *Workflow) (*Workflow, error)
	DeleteWorkflow(ctx context.Context, id string) error

	// Executions
	CreateExecution(ctx context.Context, e *Execution) (*Execution, error)
	GetExecution(ctx context.Context, id string) (*Execution, error)
	ListExecutions(ctx context.Context, workflowID string, limit int) ([]Execution, error)
}
