package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/meikuraledutech/workflow"
)

// CreateWorkflow saves a workflow with its nodes and edges in one transaction.
// The workflow and any node without an ID get auto-generated UUIDs.
func (s *Store) CreateWorkflow(ctx context.Context, w *workflow.Workflow) (*workflow.Workflow, error) {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	assignNodeIDs(w)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("workflow: begin tx: %w", err)
	}
	defer tx.Rollback()

	ts := nowUTC()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO workflows (id, name, description, active, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		w.ID, w.Name, w.Description, w.Active, ts, ts,
	); err != nil {
		return nil, fmt.Errorf("workflow: insert workflow: %w", err)
	}
	if err := insertGraph(ctx, tx, w); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("workflow: commit: %w", err)
	}

	created, _ := parseTime(ts)
	w.CreatedAt, w.UpdatedAt = created, created
	return w, nil
}

// GetWorkflow retrieves a full workflow by its ID.
// Returns nil, nil if not found.
func (s *Store) GetWorkflow(ctx context.Context, id string) (*workflow.Workflow, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, active, created_at, updated_at FROM workflows WHERE id = ?`, id)
	w, err := scanWorkflow(row)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("workflow: get workflow: %w", err)
	}
	if err := s.loadGraph(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

// ListWorkflows returns every workflow, newest first.
func (s *Store) ListWorkflows(ctx context.Context) ([]workflow.Workflow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, active, created_at, updated_at FROM workflows ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("workflow: list workflows: %w", err)
	}
	out := []workflow.Workflow{}
	for rows.Next() {
		w, err := scanWorkflow(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("workflow: scan workflow: %w", err)
		}
		out = append(out, *w)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("workflow: rows workflows: %w", err)
	}

	// The single connection is free again once rows is closed.
	for i := range out {
		if err := s.loadGraph(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// UpdateWorkflow replaces a workflow's fields, nodes and edges.
// Returns ErrWorkflowNotFound if the workflow doesn't exist.
func (s *Store) UpdateWorkflow(ctx context.Context, w *workflow.Workflow) (*workflow.Workflow, error) {
	assignNodeIDs(w)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("workflow: begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE workflows SET name = ?, description = ?, active = ?, updated_at = ? WHERE id = ?`,
		w.Name, w.Description, w.Active, nowUTC(), w.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("workflow: update workflow: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, workflow.ErrWorkflowNotFound
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM workflow_edges WHERE workflow_id = ?`, w.ID); err != nil {
		return nil, fmt.Errorf("workflow: delete edges: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM workflow_nodes WHERE workflow_id = ?`, w.ID); err != nil {
		return nil, fmt.Errorf("workflow: delete nodes: %w", err)
	}
	if err := insertGraph(ctx, tx, w); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("workflow: commit: %w", err)
	}
	return s.GetWorkflow(ctx, w.ID)
}

// DeleteWorkflow removes a workflow, its graph and its executions.
// No error if the workflow doesn't exist.
func (s *Store) DeleteWorkflow(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM workflows WHERE id = ?`, id); err != nil {
		return fmt.Errorf("workflow: delete workflow: %w", err)
	}
	return nil
}

func assignNodeIDs(w *workflow.Workflow) {
	for i := range w.Nodes {
		if w.Nodes[i].ID == "" {
			w.Nodes[i].ID = uuid.NewString()
		}
	}
}

func insertGraph(ctx context.Context, tx *sql.Tx, w *workflow.Workflow) error {
	for i, n := range w.Nodes {
		data := []byte(`{}`)
		if n.Data != nil {
			var err error
			if data, err = json.Marshal(n.Data); err != nil {
				return fmt.Errorf("workflow: encode node %s: %w", n.ID, err)
			}
		}
		var pos sql.NullString
		if n.Position != nil {
			b, err := json.Marshal(n.Position)
			if err != nil {
				return fmt.Errorf("workflow: encode node %s: %w", n.ID, err)
			}
			pos = sql.NullString{String: string(b), Valid: true}
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO workflow_nodes (workflow_id, seq, id, type, label, data, position) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			w.ID, i, n.ID, string(n.Type), n.Label, string(data), pos,
		); err != nil {
			return fmt.Errorf("workflow: insert node %s: %w", n.ID, err)
		}
	}
	for i, e := range w.Edges {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO workflow_edges (workflow_id, seq, source, target) VALUES (?, ?, ?, ?)`,
			w.ID, i, e.Source, e.Target,
		); err != nil {
			return fmt.Errorf("workflow: insert edge %d: %w", i, err)
		}
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanWorkflow(row scanner) (*workflow.Workflow, error) {
	var (
		w                workflow.Workflow
		created, updated string
	)
	if err := row.Scan(&w.ID, &w.Name, &w.Description, &w.Active, &created, &updated); err != nil {
		return nil, err
	}
	var err error
	if w.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if w.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &w, nil
}

// loadGraph fills w.Nodes and w.Edges in stored order.
func (s *Store) loadGraph(ctx context.Context, w *workflow.Workflow) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, type, label, data, position FROM workflow_nodes WHERE workflow_id = ? ORDER BY seq`, w.ID)
	if err != nil {
		return fmt.Errorf("workflow: query nodes: %w", err)
	}
	defer rows.Close()

	w.Nodes = []workflow.Node{}
	for rows.Next() {
		var (
			n         workflow.Node
			typ, data string
			pos       sql.NullString
		)
		if err := rows.Scan(&n.ID, &typ, &n.Label, &data, &pos); err != nil {
			return fmt.Errorf("workflow: scan node: %w", err)
		}
		n.Type = workflow.NodeType(typ)
		if err := json.Unmarshal([]byte(data), &n.Data); err != nil {
			return fmt.Errorf("workflow: decode node %s: %w", n.ID, err)
		}
		if pos.Valid {
			if err := json.Unmarshal([]byte(pos.String), &n.Position); err != nil {
				return fmt.Errorf("workflow: decode node %s: %w", n.ID, err)
			}
		}
		w.Nodes = append(w.Nodes, n)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("workflow: rows nodes: %w", err)
	}
	rows.Close()

	rows, err = s.db.QueryContext(ctx,
		`SELECT source, target FROM workflow_edges WHERE workflow_id = ? ORDER BY seq`, w.ID)
	if err != nil {
		return fmt.Errorf("workflow: query edges: %w", err)
	}
	defer rows.Close()

	w.Edges = []workflow.Edge{}
	for rows.Next() {
		var e workflow.Edge
		if err := rows.Scan(&e.Source, &e.Target); err != nil {
			return fmt.Errorf("workflow: scan edge: %w", err)
		}
		w.Edges = append(w.Edges, e)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("workflow: rows edges: %w", err)
	}
	return nil
}

var _ workflow.Store = (*Store)(nil)
