package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meikuraledutech/workflow"
	"github.com/meikuraledutech/workflow/storetest"
)

func writeWorkflow(t *testing.T, w *workflow.Workflow) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wf.json")
	data, err := json.MarshalIndent(w, "", "  ")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func isolateEnv(t *testing.T) string {
	t.Helper()
	for _, k := range []string{"WORKFLOW_ADDR", "DATABASE_URL", "WORKFLOW_SCRIPT_ENGINE", "LOG_LEVEL", "LOG_FORMAT", "PORT", "WORKFLOW_WORKERS"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	path := filepath.Join(t.TempDir(), "app.db")
	t.Setenv("WORKFLOW_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", path)
	return path
}

func TestRunCommand(t *testing.T) {
	w := storetest.Sample("cli")
	w.Nodes = w.Nodes[:2]
	w.Edges = w.Edges[:1]
	path := writeWorkflow(t, w)

	out, err := execute(t, "run", path, "--input", "1")
	require.NoError(t, err)

	var res workflow.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, workflow.StatusSuccess, res.Status)
	assert.Equal(t, map[string]any{"input": 1.0, "add": 2.0}, res.Output)
}

func TestRunCommand_ExprEngine(t *testing.T) {
	w := storetest.Sample("cli")
	w.Nodes = w.Nodes[:2]
	w.Edges = w.Edges[:1]
	w.Nodes[1].Data["code"] = "input * 3"
	path := writeWorkflow(t, w)

	out, err := execute(t, "run", path, "--input", "2", "--engine", "expr")
	require.NoError(t, err)
	assert.Contains(t, out, `"add": 6`)
}

func TestRunCommand_Failure(t *testing.T) {
	w := storetest.Sample("cli")
	w.Nodes[1].Data["code"] = "fail("
	path := writeWorkflow(t, w)

	out, err := execute(t, "run", path)
	require.ErrorIs(t, err, errRunFailed)
	assert.Contains(t, out, "Error in node 'Add'")
}

func TestRunCommand_NonFiniteOutput(t *testing.T) {
	w := storetest.Sample("cli")
	w.Nodes = w.Nodes[:2]
	w.Edges = w.Edges[:1]
	w.Nodes[1].Data["code"] = `return float("inf")`
	path := writeWorkflow(t, w)

	out, err := execute(t, "run", path)
	require.NoError(t, err)
	assert.Contains(t, out, `"add": null`)
}

func TestRunCommand_BadInput(t *testing.T) {
	path := writeWorkflow(t, storetest.Sample("cli"))
	_, err := execute(t, "run", path, "--input", "{nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--input")
}

func TestLintCommand(t *testing.T) {
	clean := writeWorkflow(t, storetest.Sample("clean"))
	out, err := execute(t, "lint", clean)
	require.NoError(t, err)
	assert.Contains(t, out, "no issues")

	looped := storetest.Sample("looped")
	looped.Edges = append(looped.Edges, workflow.Edge{Source: "out", Target: "start"})
	out, err = execute(t, "lint", writeWorkflow(t, looped))
	require.NoError(t, err)
	assert.Contains(t, out, string(workflow.IssueCycle))
}

func TestSchemaAndList(t *testing.T) {
	dbPath := isolateEnv(t)

	out, err := execute(t, "schema", "create")
	require.NoError(t, err)
	assert.Contains(t, out, "schema created")
	assert.FileExists(t, dbPath)

	out, err = execute(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "NAME")

	out, err = execute(t, "schema", "drop")
	require.NoError(t, err)
	assert.Contains(t, out, "schema dropped")
}
