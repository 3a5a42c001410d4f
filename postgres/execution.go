package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/meikuraledutech/workflow"
)

// CreateExecution records a new execution. An empty ID gets a UUID and an
// empty status becomes running. Returns the execution with StartedAt set.
func (s *PGStore) CreateExecution(ctx context.Context, e *workflow.Execution) (*workflow.Execution, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Status == "" {
		e.Status = workflow.StatusRunning
	}
	input, err := json.Marshal(e.Input)
	if err != nil {
		return nil, fmt.Errorf("workflow: encode input: %w", err)
	}

	err = s.db.QueryRow(ctx,
		`INSERT INTO executions (id, workflow_id, status, input_data) VALUES ($1, $2, $3, $4) RETURNING started_at`,
		e.ID, e.WorkflowID, string(e.Status), json.RawMessage(input),
	).Scan(&e.StartedAt)
	if err != nil {
		return nil, fmt.Errorf("workflow: insert execution: %w", err)
	}
	return e, nil
}

// Report stores the terminal result of a run on its execution record.
// Returns ErrExecutionNotFound if the execution doesn't exist.
func (s *PGStore) Report(ctx context.Context, executionID string, res workflow.Result) error {
	res, output := workflow.EncodeOutput(res)
	var msg *string
	if res.Error != "" {
		msg = &res.Error
	}

	ct, err := s.db.Exec(ctx,
		`UPDATE executions SET status = $1, output_data = $2, error = $3, completed_at = NOW() WHERE id = $4`,
		string(res.Status), json.RawMessage(output), msg, executionID,
	)
	if err != nil {
		return fmt.Errorf("workflow: report execution: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return workflow.ErrExecutionNotFound
	}
	return nil
}

// GetExecution fetches a single execution by its ID.
// Returns nil, nil if not found.
func (s *PGStore) GetExecution(ctx context.Context, id string) (*workflow.Execution, error) {
	row := s.db.QueryRow(ctx,
		`SELECT id, workflow_id, status, input_data, output_data, error, started_at, completed_at
		 FROM executions WHERE id = $1`, id)

	e, err := scanExecution(row)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("workflow: get execution: %w", err)
	}
	return e, nil
}

// ListExecutions returns the latest executions of a workflow, newest first.
// Returns an empty slice (not nil) if none found.
func (s *PGStore) ListExecutions(ctx context.Context, workflowID string, limit int) ([]workflow.Execution, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, workflow_id, status, input_data, output_data, error, started_at, completed_at
		 FROM executions WHERE workflow_id = $1 ORDER BY started_at DESC LIMIT $2`, workflowID, limit)
	if err != nil {
		return nil, fmt.Errorf("workflow: list executions: %w", err)
	}
	defer rows.Close()

	out := []workflow.Execution{}
	for rows.Next() {
		e, err := scanExecution(rows)
		if err != nil {
			return nil, fmt.Errorf("workflow: scan execution: %w", err)
		}
		out = append(out, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("workflow: rows executions: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExecution(row scanner) (*workflow.Execution, error) {
	var (
		e             workflow.Execution
		status        string
		input, output []byte
		msg           *string
	)
	if err := row.Scan(&e.ID, &e.WorkflowID, &status, &input, &output, &msg, &e.StartedAt, &e.CompletedAt); err != nil {
		return nil, err
	}
	e.Status = workflow.Status(status)
	if msg != nil {
		e.Error = *msg
	}
	if len(input) > 0 {
		if err := json.Unmarshal(input, &e.Input); err != nil {
			return nil, err
		}
	}
	if len(output) > 0 {
		if err := json.Unmarshal(output, &e.Output); err != nil {
			return nil, err
		}
	}
	return &e, nil
}
