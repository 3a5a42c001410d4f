package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/meikuraledutech/workflow"
)

// CreateExecution records a new execution. An empty ID gets a UUID and an
// empty status becomes running.
func (s *Store) CreateExecution(ctx context.Context, e *workflow.Execution) (*workflow.Execution, error) {
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

	ts := nowUTC()
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO executions (id, workflow_id, status, input_data, started_at) VALUES (?, ?, ?, ?, ?)`,
		e.ID, e.WorkflowID, string(e.Status), string(input), ts,
	); err != nil {
		return nil, fmt.Errorf("workflow: insert execution: %w", err)
	}
	e.StartedAt, _ = parseTime(ts)
	return e, nil
}

// Report stores the terminal result of a run on its execution record.
// Returns ErrExecutionNotFound if the execution doesn't exist.
func (s *Store) Report(ctx context.Context, executionID string, res workflow.Result) error {
	res, output := workflow.EncodeOutput(res)
	msg := sql.NullString{String: res.Error, Valid: res.Error != ""}

	r, err := s.db.ExecContext(ctx,
		`UPDATE executions SET status = ?, output_data = ?, error = ?, completed_at = ? WHERE id = ?`,
		string(res.Status), string(output), msg, nowUTC(), executionID,
	)
	if err != nil {
		return fmt.Errorf("workflow: report execution: %w", err)
	}
	if n, _ := r.RowsAffected(); n == 0 {
		return workflow.ErrExecutionNotFound
	}
	return nil
}

// GetExecution fetches a single execution by its ID.
// Returns nil, nil if not found.
func (s *Store) GetExecution(ctx context.Context, id string) (*workflow.Execution, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, workflow_id, status, input_data, output_data, error, started_at, completed_at
		 FROM executions WHERE id = ?`, id)
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
func (s *Store) ListExecutions(ctx context.Context, workflowID string, limit int) ([]workflow.Execution, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, workflow_id, status, input_data, output_data, error, started_at, completed_at
		 FROM executions WHERE workflow_id = ? ORDER BY started_at DESC, rowid DESC LIMIT ?`, workflowID, limit)
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

func scanExecution(row scanner) (*workflow.Execution, error) {
	var (
		e                  workflow.Execution
		status, started    string
		input, output, msg sql.NullString
		completed          sql.NullString
	)
	if err := row.Scan(&e.ID, &e.WorkflowID, &status, &input, &output, &msg, &started, &completed); err != nil {
		return nil, err
	}
	e.Status = workflow.Status(status)
	e.Error = msg.String

	var err error
	if e.StartedAt, err = parseTime(started); err != nil {
		return nil, err
	}
	if completed.Valid {
		t, err := parseTime(completed.String)
		if err != nil {
			return nil, err
		}
		e.CompletedAt = &t
	}
	if input.Valid {
		if err := json.Unmarshal([]byte(input.String), &e.Input); err != nil {
			return nil, err
		}
	}
	if output.Valid {
		if err := json.Unmarshal([]byte(output.String), &e.Output); err != nil {
			return nil, err
		}
	}
	return &e, nil
}
