package script

import (
	"context"

	"github.com/expr-lang/expr"
)

// ExprEvaluator evaluates a snippet as a single expr-lang expression.
type ExprEvaluator struct{}

func NewExpr() *ExprEvaluator { return &ExprEvaluator{} }

func (ExprEvaluator) Evaluate(ctx context.Context, code string, bindings map[string]any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	program, err := expr.Compile(expression(code), expr.Env(bindings))
	if err != nil {
		return nil, err
	}
	return expr.Run(program, bindings)
}
