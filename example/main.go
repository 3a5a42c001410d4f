package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"

	"github.com/meikuraledutech/workflow"
	"github.com/meikuraledutech/workflow/engine"
	"github.com/meikuraledutech/workflow/script"
	"github.com/meikuraledutech/workflow/sqlite"
)

func main() {
	ctx := context.Background()

	s, err := sqlite.OpenMemory()
	if err != nil {
		log.Fatalf("open: %v", err)
	}
	defer s.Close()

	// Wire up the sqlite implementation behind the Store interface.
	var store workflow.Store = s

	// 1. Create tables
	if err := store.CreateSchema(ctx); err != nil {
		log.Fatalf("schema: %v", err)
	}
	fmt.Println("schema created")

	// A local endpoint for the http node to call.
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"user": {"name": "ada", "plan": "pro"}}`)
	}))
	defer api.Close()

	// ── Create ────────────────────────────────────────────────────────
	created, err := store.CreateWorkflow(ctx, &workflow.Workflow{
		Name:   "enrich-order",
		Active: true,
		Nodes: []workflow.Node{
			{ID: "start", Type: workflow.NodeStart, Label: "Start"},
			{ID: "fetch", Type: workflow.NodeHTTP, Label: "Fetch user", Data: map[string]any{
				"url":    api.URL,
				"method": "GET",
			}},
			{ID: "total", Type: workflow.NodeScript, Label: "Total", Data: map[string]any{
				"code": "return input[\"qty\"] * input[\"price\"]",
			}},
		},
		Edges: []workflow.Edge{
			{Source: "start", Target: "fetch"},
			{Source: "fetch", Target: "total"},
		},
	})
	if err != nil {
		log.Fatalf("create workflow: %v", err)
	}
	fmt.Println("workflow created")
	printJSON(created)

	if issues := workflow.Lint(created); len(issues) > 0 {
		fmt.Println("\nlint:")
		printJSON(issues)
	}

	// ── Execute ───────────────────────────────────────────────────────
	input := map[string]any{"qty": 3, "price": 7}
	exec, err := store.CreateExecution(ctx, &workflow.Execution{
		WorkflowID: created.ID,
		Status:     workflow.StatusRunning,
		Input:      input,
	})
	if err != nil {
		log.Fatalf("create execution: %v", err)
	}

	eval, err := script.New(script.Starlark)
	if err != nil {
		log.Fatal(err)
	}
	// Without an output node the result is every node's value keyed by id.
	res := engine.New(store, eval).Execute(ctx, exec.ID, created, input)
	fmt.Println("\nresult:")
	printJSON(res)

	// ── Retrieve the stored execution ────────────────────────────────
	stored, err := store.GetExecution(ctx, exec.ID)
	if err != nil {
		log.Fatalf("get execution: %v", err)
	}
	fmt.Println("\nexecution:")
	printJSON(stored)

	// ── Cleanup ───────────────────────────────────────────────────────
	if err := store.DeleteWorkflow(ctx, created.ID); err != nil {
		log.Fatalf("delete: %v", err)
	}
	fmt.Println("\nworkflow deleted")
}

func printJSON(v any) {
	out, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(out))
}
