package script

import (
	"context"

	"github.com/Knetic/govaluate"
)

// GovaluateEvaluator evaluates a snippet as a govaluate expression.
// govaluate only does float64 arithmetic, so numeric bindings are widened first.
type GovaluateEvaluator struct{}

func NewGovaluate() *GovaluateEvaluator { return &GovaluateEvaluator{} }

func (GovaluateEvaluator) Evaluate(ctx context.Context, code string, bindings map[string]any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	exp, err := govaluate.NewEvaluableExpression(expression(code))
	if err != nil {
		return nil, err
	}
	params := make(map[string]any, len(bindings))
	for k, v := range bindings {
		params[k] = widen(v)
	}
	return exp.Evaluate(params)
}

func widen(v any) any {
	switch x := v.(type) {
	case int:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = widen(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			out[k] = widen(item)
		}
		return out
	default:
		return v
	}
}
