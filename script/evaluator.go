// Package script provides the sandboxed evaluators behind script nodes.
//
// An Evaluator runs a snippet with exactly the bindings it is given and no
// other ambient access. Values crossing the boundary are JSON shaped: nil,
// bool, numbers, string, []any and map[string]any.
package script

import (
	"context"
	"fmt"
	"strings"
)

// Evaluator runs a code snippet against a fixed set of bindings.
type Evaluator interface {
	Evaluate(ctx context.Context, code string, bindings map[string]any) (any, error)
}

// Engine names.
const (
	Starlark  = "starlark"
	Expr      = "expr"
	Govaluate = "govaluate"
)

// New returns the evaluator registered under name. An empty name selects Starlark.
func New(name string) (Evaluator, error) {
	switch strings.ToLower(name) {
	case "", Starlark:
		return NewStarlark(), nil
	case Expr:
		return NewExpr(), nil
	case Govaluate:
		return NewGovaluate(), nil
	default:
		return nil, fmt.Errorf("script: unknown engine %q", name)
	}
}

// expression strips the statement dressing users carry over from function
// bodies, so "return input + 1;" evaluates as "input + 1".
func expression(code string) string {
	s := strings.TrimSpace(code)
	if rest, ok := strings.CutPrefix(s, "return "); ok {
		s = strings.TrimSpace(rest)
	}
	return strings.TrimSpace(strings.TrimSuffix(s, ";"))
}
