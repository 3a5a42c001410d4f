package workflow

import "time"

// NodeType selects the executor that runs a node.
type NodeType string

const (
	NodeStart  NodeType = "start"
	NodeScript NodeType = "script"
	NodeHTTP   NodeType = "http"
	NodeOutput NodeType = "output"
)

// Workflow is an automation graph: ordered nodes wired by ordered edges.
// The order of Nodes and Edges is significant to the engine and is preserved by every Store.
type Workflow struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Active      bool      `json:"active"`
	Nodes       []Node    `json:"nodes"`
	Edges       []Edge    `json:"edges"`
	CreatedAt   time.Time `json:"created_at,omitzero"`
	UpdatedAt   time.Time `json:"updated_at,omitzero"`
}

// Node is one step of a workflow.
// Data is the type-specific configuration bag (e.g. "code" for script nodes).
type Node struct {
	ID       string         `json:"id"`
	Type     NodeType       `json:"type"`
	Label    string         `json:"label"`
	Data     map[string]any `json:"data,omitempty"`
	Position *Position      `json:"position,omitempty"`
}

// Position is the editor placement of a node. The engine ignores it.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Edge is a directed connection between two node ids.
// Target is not required to name an existing node.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// FindNode returns the first node with the given id.
func (w *Workflow) FindNode(id string) (Node, bool) {
	for _, n := range w.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// FirstOfType returns the first node of type t in stored order.
func (w *Workflow) FirstOfType(t NodeType) (Node, bool) {
	for _, n := range w.Nodes {
		if n.Type == t {
			return n, true
		}
	}
	return Node{}, false
}

// NextEdge returns the first edge leaving source in stored order.
func (w *Workflow) NextEdge(source string) (Edge, bool) {
	for _, e := range w.Edges {
		if e.Source == source {
			return e, true
		}
	}
	return Edge{}, false
}
