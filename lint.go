package workflow

import (
	"fmt"
	"sort"
)

// IssueKind classifies a lint finding.
type IssueKind string

const (
	IssueNoStart      IssueKind = "no_start"
	IssueManyStarts   IssueKind = "many_starts"
	IssueDuplicateID  IssueKind = "duplicate_id"
	IssueUnknownType  IssueKind = "unknown_type"
	IssueDanglingEdge IssueKind = "dangling_edge"
	IssueBranching    IssueKind = "branching"
	IssueCycle        IssueKind = "cycle"
	IssueUnreachable  IssueKind = "unreachable"
)

// Issue is one advisory finding about a workflow.
type Issue struct {
	Kind    IssueKind `json:"kind"`
	NodeID  string    `json:"node_id,omitempty"`
	Message string    `json:"message"`
}

// Lint reports structural oddities that affect how a workflow will run.
// It is advisory: the engine never consults it, and every finding describes
// behavior the engine tolerates (cycles stop silently, only the first
// outgoing edge is followed, and so on).
func Lint(w *Workflow) []Issue {
	var issues []Issue

	seen := make(map[string]bool, len(w.Nodes))
	starts := 0
	for _, n := range w.Nodes {
		if seen[n.ID] {
			issues = append(issues, Issue{IssueDuplicateID, n.ID, fmt.Sprintf("node id %q is used more than once", n.ID)})
		}
		seen[n.ID] = true

		switch n.Type {
		case NodeStart:
			starts++
		case NodeScript, NodeHTTP, NodeOutput:
		default:
			issues = append(issues, Issue{IssueUnknownType, n.ID, fmt.Sprintf("node %q has unknown type %q", n.Label, n.Type)})
		}
	}
	switch {
	case starts == 0:
		issues = append(issues, Issue{Kind: IssueNoStart, Message: "no start node"})
	case starts > 1:
		issues = append(issues, Issue{Kind: IssueManyStarts, Message: fmt.Sprintf("%d start nodes, only the first runs", starts)})
	}

	out := make(map[string]int)
	for _, e := range w.Edges {
		if !seen[e.Source] {
			issues = append(issues, Issue{IssueDanglingEdge, e.Source, fmt.Sprintf("edge source %q does not exist", e.Source)})
		}
		if !seen[e.Target] {
			issues = append(issues, Issue{IssueDanglingEdge, e.Target, fmt.Sprintf("edge target %q does not exist", e.Target)})
		}
		out[e.Source]++
	}
	branching := make([]string, 0)
	for id, n := range out {
		if n > 1 {
			branching = append(branching, id)
		}
	}
	sort.Strings(branching)
	for _, id := range branching {
		issues = append(issues, Issue{IssueBranching, id, fmt.Sprintf("node %q has %d outgoing edges, only the first is followed", id, out[id])})
	}

	if hasCycle(w.Nodes, w.Edges) {
		issues = append(issues, Issue{Kind: IssueCycle, Message: "edges form a cycle, the run stops when a node repeats"})
	}

	if start, ok := w.FirstOfType(NodeStart); ok {
		reached := chain(w, start.ID)
		for _, n := range w.Nodes {
			if !reached[n.ID] {
				issues = append(issues, Issue{IssueUnreachable, n.ID, fmt.Sprintf("node %q is never reached from the start node", n.Label)})
			}
		}
	}

	return issues
}

// chain returns the node ids the engine would visit from start.
func chain(w *Workflow, start string) map[string]bool {
	reached := make(map[string]bool)
	current, ok := start, true
	for ok && !reached[current] {
		if _, exists := w.FindNode(current); !exists {
			break
		}
		reached[current] = true
		var e Edge
		e, ok = w.NextEdge(current)
		current = e.Target
	}
	return reached
}

// hasCycle checks whether the edges form a cycle using DFS.
func hasCycle(nodes []Node, edges []Edge) bool {
	adj := make(map[string][]string)
	for _, e := range edges {
		adj[e.Source] = append(adj[e.Source], e.Target)
	}

	const (
		unvisited = 0
		visiting  = 1
		visited   = 2
	)

	state := make(map[string]int)
	order := make([]string, 0, len(nodes))
	add := func(id string) {
		if _, ok := state[id]; !ok {
			state[id] = unvisited
			order = append(order, id)
		}
	}
	for _, n := range nodes {
		add(n.ID)
	}
	// Also include ids referenced only in edges.
	for _, e := range edges {
		add(e.Source)
		add(e.Target)
	}

	var dfs func(id string) bool
	dfs = func(id string) bool {
		state[id] = visiting
		for _, next := range adj[id] {
			switch state[next] {
			case visiting:
				return true
			case unvisited:
				if dfs(next) {
					return true
				}
			}
		}
		state[id] = visited
		return false
	}

	for _, id := range order {
		if state[id] == unvisited && dfs(id) {
			return true
		}
	}
	return false
}
