package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/meikuraledutech/workflow"
)

// CreateWorkflow saves a workflow with its nodes and edges in one transaction.
// The workflow and any node without an ID get auto-generated UUIDs.
// Returns the workflow with IDs and timestamps filled in.
func (s *PGStore) CreateWorkflow(ctx context.Context, w *workflow.Workflow) (*workflow.Workflow, error) {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	for i := range w.Nodes {
		if w.Nodes[i].ID == "" {
			w.Nodes[i].ID = uuid.NewString()
		}
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("workflow: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := tx.QueryRow(ctx,
		`INSERT INTO workflows (id, name, description, active) VALUES ($1, $2, $3, $4)
		 RETURNING created_at, updated_at`,
		w.ID, w.Name, w.Description, w.Active,
	).Scan(&w.CreatedAt, &w.UpdatedAt); err != nil {
		return nil, fmt.Errorf("workflow: insert workflow: %w", err)
	}

	if err := insertGraph(ctx, tx, w); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("workflow: commit: %w", err)
	}
	return w, nil
}

// GetWorkflow retrieves a full workflow (nodes + edges) by its ID.
// Returns nil, nil if not found.
func (s *PGStore) GetWorkflow(ctx context.Context, id string) (*workflow.Workflow, error) {
	w := &workflow.Workflow{ID: id}
	err := s.db.QueryRow(ctx,
		`SELECT name, description, active, created_at, updated_at FROM workflows WHERE id = $1`, id,
	).Scan(&w.Name, &w.Description, &w.Active, &w.CreatedAt, &w.UpdatedAt)
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
// Returns an empty slice (not nil) if none found.
func (s *PGStore) ListWorkflows(ctx context.Context) ([]workflow.Workflow, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, name, description, active, created_at, updated_at FROM workflows ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("workflow: list workflows: %w", err)
	}
	defer rows.Close()

	out := []workflow.Workflow{}
	for rows.Next() {
		var w workflow.Workflow
		if err := rows.Scan(&w.ID, &w.Name, &w.Description, &w.Active, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, fmt.Errorf("workflow: scan workflow: %w", err)
		}
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("workflow: rows workflows: %w", err)
	}
	rows.Close()

	for i := range out {
		if err := s.loadGraph(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// UpdateWorkflow replaces a workflow's fields, nodes and edges.
// Returns ErrWorkflowNotFound if the workflow doesn't exist.
func (s *PGStore) UpdateWorkflow(ctx context.Context, w *workflow.Workflow) (*workflow.Workflow, error) {
	for i := range w.Nodes {
		if w.Nodes[i].ID == "" {
			w.Nodes[i].ID = uuid.NewString()
		}
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("workflow: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	ct, err := tx.Exec(ctx,
		`UPDATE workflows SET name = $1, description = $2, active = $3, updated_at = NOW() WHERE id = $4`,
		w.Name, w.Description, w.Active, w.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("workflow: update workflow: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return nil, workflow.ErrWorkflowNotFound
	}

	// Replace semantics: the stored order is the order of the new slices.
	if _, err := tx.Exec(ctx, `DELETE FROM workflow_edges WHERE workflow_id = $1`, w.ID); err != nil {
		return nil, fmt.Errorf("workflow: delete edges: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM workflow_nodes WHERE workflow_id = $1`, w.ID); err != nil {
		return nil, fmt.Errorf("workflow: delete nodes: %w", err)
	}
	if err := insertGraph(ctx, tx, w); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("workflow: commit: %w", err)
	}
	return s.GetWorkflow(ctx, w.ID)
}

// DeleteWorkflow removes a workflow, its graph and its executions.
// No error if the workflow doesn't exist.
func (s *PGStore) DeleteWorkflow(ctx context.Context, id string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM workflows WHERE id = $1`, id); err != nil {
		return fmt.Errorf("workflow: delete workflow: %w", err)
	}
	return nil
}

func insertGraph(ctx context.Context, tx pgx.Tx, w *workflow.Workflow) error {
	for i, n := range w.Nodes {
		data, err := json.Marshal(n.Data)
		if err != nil {
			return fmt.Errorf("workflow: encode node %s: %w", n.ID, err)
		}
		if n.Data == nil {
			data = []byte(`{}`)
		}
		pos, err := json.Marshal(n.Position)
		if err != nil {
			return fmt.Errorf("workflow: encode node %s: %w", n.ID, err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO workflow_nodes (workflow_id, seq, id, type, label, data, position) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			w.ID, i, n.ID, string(n.Type), n.Label, json.RawMessage(data), json.RawMessage(pos),
		); err != nil {
			return fmt.Errorf("workflow: insert node %s: %w", n.ID, err)
		}
	}
	for i, e := range w.Edges {
		if _, err := tx.Exec(ctx,
			`INSERT INTO workflow_edges (workflow_id, seq, source, target) VALUES ($1, $2, $3, $4)`,
			w.ID, i, e.Source, e.Target,
		); err != nil {
			return fmt.Errorf("workflow: insert edge %d: %w", i, err)
		}
	}
	return nil
}

// loadGraph fills w.Nodes and w.Edges in stored order.
func (s *PGStore) loadGraph(ctx context.Context, w *workflow.Workflow) error {
	rows, err := s.db.Query(ctx,
		`SELECT id, type, label, data, position FROM workflow_nodes WHERE workflow_id = $1 ORDER BY seq`, w.ID)
	if err != nil {
		return fmt.Errorf("workflow: query nodes: %w", err)
	}
	defer rows.Close()

	w.Nodes = []workflow.Node{}
	for rows.Next() {
		var (
			n         workflow.Node
			typ       string
			data, pos []byte
		)
		if err := rows.Scan(&n.ID, &typ, &n.Label, &data, &pos); err != nil {
			return fmt.Errorf("workflow: scan node: %w", err)
		}
		n.Type = workflow.NodeType(typ)
		if err := json.Unmarshal(data, &n.Data); err != nil {
			return fmt.Errorf("workflow: decode node %s: %w", n.ID, err)
		}
		if len(pos) > 0 {
			if err := json.Unmarshal(pos, &n.Position); err != nil {
				return fmt.Errorf("workflow: decode node %s: %w", n.ID, err)
			}
		}
		w.Nodes = append(w.Nodes, n)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("workflow: rows nodes: %w", err)
	}

	rows, err = s.db.Query(ctx,
		`SELECT source, target FROM workflow_edges WHERE workflow_id = $1 ORDER BY seq`, w.ID)
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

var _ workflow.Store = (*PGStore)(nil)
