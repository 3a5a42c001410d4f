package engine

import (
	"errors"
	"fmt"
)

var (
	ErrNoStartNode     = errors.New("No start node found in workflow")
	ErrUnknownNodeType = errors.New("unknown node type")
)

// NodeError labels a failure with the node that raised it.
type NodeError struct {
	NodeID string
	Label  string
	Err    error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("Error in node '%s': %s", e.Label, e.Err)
}

func (e *NodeError) Unwrap() error { return e.Err }
