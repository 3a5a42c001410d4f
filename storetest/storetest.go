// Package storetest holds the behavior every workflow.Store must share.
package storetest

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meikuraledutech/workflow"
)

// Sample returns a small start → script → output workflow.
func Sample(name string) *workflow.Workflow {
	return &workflow.Workflow{
		Name:        name,
		Description: "adds one",
		Nodes: []workflow.Node{
			{ID: "start", Type: workflow.NodeStart, Label: "Start", Position: &workflow.Position{X: 10, Y: 20}},
			{ID: "add", Type: workflow.NodeScript, Label: "Add", Data: map[string]any{"code": "return input + 1"}},
			{ID: "out", Type: workflow.NodeOutput, Label: "Out", Data: map[string]any{"mapping": map[string]any{"v": "a.b"}}},
		},
		Edges: []workflow.Edge{
			{Source: "start", Target: "add"},
			{Source: "add", Target: "out"},
		},
	}
}

var ignoreTimes = cmpopts.IgnoreFields(workflow.Workflow{}, "CreatedAt", "UpdatedAt")

// Run exercises s, which must start with an empty schema.
func Run(t *testing.T, s workflow.Store) {
	ctx := context.Background()
	require.NoError(t, s.CreateSchema(ctx))
	require.NoError(t, s.CreateSchema(ctx), "CreateSchema is idempotent")

	t.Run("CreateAndGetWorkflow", func(t *testing.T) { testCreateAndGet(t, s) })
	t.Run("GetMissing", func(t *testing.T) { testGetMissing(t, s) })
	t.Run("UpdateReplacesGraph", func(t *testing.T) { testUpdate(t, s) })
	t.Run("ListNewestFirst", func(t *testing.T) { testList(t, s) })
	t.Run("Executions", func(t *testing.T) { testExecutions(t, s) })
	t.Run("ReportUnencodableOutput", func(t *testing.T) { testReportUnencodable(t, s) })
	t.Run("DeleteCascades", func(t *testing.T) { testDelete(t, s) })
}

func testCreateAndGet(t *testing.T, s workflow.Store) {
	ctx := context.Background()
	in := Sample("create")
	in.Nodes = append(in.Nodes, workflow.Node{Type: workflow.NodeHTTP, Label: "Call"})

	created, err := s.CreateWorkflow(ctx, in)
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.NotEmpty(t, created.Nodes[3].ID, "nodes without ids get one")
	assert.False(t, created.CreatedAt.IsZero())

	got, err := s.GetWorkflow(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	if diff := cmp.Diff(created, got, ignoreTimes, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("round trip mismatch (-created +got):\n%s", diff)
	}
	assert.WithinDuration(t, created.CreatedAt, got.CreatedAt, time.Second)
}

func testGetMissing(t *testing.T, s workflow.Store) {
	ctx := context.Background()

	w, err := s.GetWorkflow(ctx, "does-not-exist")
	require.NoError(t, err)
	assert.Nil(t, w)

	e, err := s.GetExecution(ctx, "does-not-exist")
	require.NoError(t, err)
	assert.Nil(t, e)
}

func testUpdate(t *testing.T, s workflow.Store) {
	ctx := context.Background()
	created, err := s.CreateWorkflow(ctx, Sample("before"))
	require.NoError(t, err)

	created.Name = "after"
	created.Active = true
	created.Nodes = []workflow.Node{
		{ID: "only", Type: workflow.NodeStart, Label: "Only"},
		{ID: "z", Type: workflow.NodeOutput, Label: "Z"},
	}
	created.Edges = []workflow.Edge{{Source: "only", Target: "z"}, {Source: "only", Target: "ghost"}}

	updated, err := s.UpdateWorkflow(ctx, created)
	require.NoError(t, err)
	assert.Equal(t, "after", updated.Name)
	assert.True(t, updated.Active)
	assert.Equal(t, []string{"only", "z"}, nodeIDs(updated))
	assert.Equal(t, created.Edges, updated.Edges, "edge order and dangling targets are kept")

	_, err = s.UpdateWorkflow(ctx, &workflow.Workflow{ID: "does-not-exist", Name: "x"})
	assert.ErrorIs(t, err, workflow.ErrWorkflowNotFound)
}

func testList(t *testing.T, s workflow.Store) {
	ctx := context.Background()
	var ids []string
	for i := range 3 {
		w, err := s.CreateWorkflow(ctx, Sample(fmt.Sprintf("list-%d", i)))
		require.NoError(t, err)
		ids = append(ids, w.ID)
	}

	all, err := s.ListWorkflows(ctx)
	require.NoError(t, err)

	pos := make(map[string]int)
	for i, w := range all {
		pos[w.ID] = i
		if w.ID == ids[0] {
			assert.Len(t, w.Nodes, 3, "listed workflows carry their graph")
		}
	}
	require.Contains(t, pos, ids[0])
	assert.Less(t, pos[ids[2]], pos[ids[1]])
	assert.Less(t, pos[ids[1]], pos[ids[0]])
}

func testExecutions(t *testing.T, s workflow.Store) {
	ctx := context.Background()
	w, err := s.CreateWorkflow(ctx, Sample("runs"))
	require.NoError(t, err)

	first, err := s.CreateExecution(ctx, &workflow.Execution{WorkflowID: w.ID, Input: map[string]any{"a": 1}})
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)
	assert.Equal(t, workflow.StatusRunning, first.Status)

	got, err := s.GetExecution(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusRunning, got.Status)
	assert.Equal(t, map[string]any{"a": 1.0}, got.Input)
	assert.Nil(t, got.CompletedAt)

	require.NoError(t, s.Report(ctx, first.ID, workflow.Success(map[string]any{"v": 2})))
	got, err = s.GetExecution(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusSuccess, got.Status)
	assert.Equal(t, map[string]any{"v": 2.0}, got.Output)
	assert.Empty(t, got.Error)
	require.NotNil(t, got.CompletedAt)

	second, err := s.CreateExecution(ctx, &workflow.Execution{WorkflowID: w.ID, Input: 1})
	require.NoError(t, err)
	require.NoError(t, s.Report(ctx, second.ID, workflow.Failure("Error in node 'Add': boom")))
	got, err = s.GetExecution(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusError, got.Status)
	assert.Equal(t, "Error in node 'Add': boom", got.Error)
	assert.Nil(t, got.Output)

	list, err := s.ListExecutions(ctx, w.ID, 50)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)

	list, err = s.ListExecutions(ctx, w.ID, 1)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	err = s.Report(ctx, "does-not-exist", workflow.Success(nil))
	assert.ErrorIs(t, err, workflow.ErrExecutionNotFound)
}

func testReportUnencodable(t *testing.T, s workflow.Store) {
	ctx := context.Background()
	w, err := s.CreateWorkflow(ctx, Sample("odd-output"))
	require.NoError(t, err)

	nan, err := s.CreateExecution(ctx, &workflow.Execution{WorkflowID: w.ID})
	require.NoError(t, err)
	require.NoError(t, s.Report(ctx, nan.ID, workflow.Success(map[string]any{
		"s": math.NaN(), "n": 1, "list": []any{math.Inf(1), 2.5},
	})))
	got, err := s.GetExecution(ctx, nan.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusSuccess, got.Status)
	assert.Equal(t, map[string]any{"s": nil, "n": 1.0, "list": []any{nil, 2.5}}, got.Output)
	require.NotNil(t, got.CompletedAt)

	ch, err := s.CreateExecution(ctx, &workflow.Execution{WorkflowID: w.ID})
	require.NoError(t, err)
	require.NoError(t, s.Report(ctx, ch.ID, workflow.Success(make(chan int))))
	got, err = s.GetExecution(ctx, ch.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusError, got.Status)
	assert.Contains(t, got.Error, "encode output")
	assert.Nil(t, got.Output)
	require.NotNil(t, got.CompletedAt)
}

func testDelete(t *testing.T, s workflow.Store) {
	ctx := context.Background()
	w, err := s.CreateWorkflow(ctx, Sample("doomed"))
	require.NoError(t, err)
	e, err := s.CreateExecution(ctx, &workflow.Execution{WorkflowID: w.ID})
	require.NoError(t, err)

	require.NoError(t, s.DeleteWorkflow(ctx, w.ID))
	require.NoError(t, s.DeleteWorkflow(ctx, w.ID), "deleting twice is not an error")

	gone, err := s.GetWorkflow(ctx, w.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	ge, err := s.GetExecution(ctx, e.ID)
	require.NoError(t, err)
	assert.Nil(t, ge)
}

func nodeIDs(w *workflow.Workflow) []string {
	ids := make([]string, 0, len(w.Nodes))
	for _, n := range w.Nodes {
		ids = append(ids, n.ID)
	}
	return ids
}
