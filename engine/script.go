package engine

import (
	"context"
	"fmt"

	"github.com/meikuraledutech/workflow"
	"github.com/meikuraledutech/workflow/script"
)

// ScriptExecutor evaluates data.code with exactly two bindings: input and context.
type ScriptExecutor struct {
	eval script.Evaluator
}

func NewScriptExecutor(eval script.Evaluator) *ScriptExecutor {
	return &ScriptExecutor{eval: eval}
}

func (s *ScriptExecutor) Execute(ctx context.Context, node workflow.Node, rc *Context) (any, error) {
	code := stringField(node.Data, "code", "")
	v, err := s.eval.Evaluate(ctx, code, map[string]any{
		"input":   rc.Input(),
		"context": rc.Values(),
	})
	if err != nil {
		return nil, fmt.Errorf("Code execution error: %w", err)
	}
	return v, nil
}
