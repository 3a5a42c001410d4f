package script

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bindings(input any) map[string]any {
	return map[string]any{
		"input":   input,
		"context": map[string]any{"input": input, "start": input},
	}
}

func TestNew(t *testing.T) {
	for _, name := range []string{"", Starlark, Expr, Govaluate, "EXPR"} {
		ev, err := New(name)
		require.NoError(t, err, name)
		require.NotNil(t, ev, name)
	}
	_, err := New("lua")
	require.Error(t, err)
}

func TestEvaluators_AddOne(t *testing.T) {
	tests := []struct {
		engine string
		code   string
	}{
		{Starlark, "return input + 1"},
		{Expr, "input + 1"},
		{Expr, "return input + 1;"},
		{Govaluate, "input + 1"},
	}
	for _, tt := range tests {
		t.Run(tt.engine+"/"+tt.code, func(t *testing.T) {
			ev, err := New(tt.engine)
			require.NoError(t, err)
			got, err := ev.Evaluate(context.Background(), tt.code, bindings(1))
			require.NoError(t, err)
			assert.EqualValues(t, 2, got)
		})
	}
}

func TestStarlark_ContextAndStructures(t *testing.T) {
	ev := NewStarlark()
	code := `
total = 0
for n in input["items"]:
    total += n
return {"total": total, "seen": context["start"]["name"], "tags": [t.upper() for t in input["tags"]]}
`
	in := map[string]any{
		"items": []any{1.0, 2.0, 3.5},
		"tags":  []any{"a", "b"},
		"name":  "order",
	}
	got, err := ev.Evaluate(context.Background(), code, bindings(in))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"total": 6.5,
		"seen":  "order",
		"tags":  []any{"A", "B"},
	}, got)
}

func TestStarlark_GoTypedBindings(t *testing.T) {
	ev := NewStarlark()
	b := map[string]any{
		"input":   map[string]string{"name": "ada"},
		"context": map[string]any{"r": []int{1, 2, 3}},
	}

	got, err := ev.Evaluate(context.Background(),
		`return {"name": input["name"], "n": len(context["r"]), "last": context["r"][-1]}`, b)

	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "ada", "n": int64(3), "last": int64(3)}, got)
}

func TestStarlark_UnencodableBinding(t *testing.T) {
	_, err := NewStarlark().Evaluate(context.Background(), "return 1", map[string]any{"input": make(chan int)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported value of type chan int")
}

func TestStarlark_NoReturnIsNil(t *testing.T) {
	got, err := NewStarlark().Evaluate(context.Background(), "x = 1", bindings(nil))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStarlark_Errors(t *testing.T) {
	ev := NewStarlark()

	_, err := ev.Evaluate(context.Background(), "return input +", bindings(1))
	require.Error(t, err, "syntax error")

	_, err = ev.Evaluate(context.Background(), `fail("boom")`, bindings(1))
	require.ErrorContains(t, err, "boom")

	_, err = ev.Evaluate(context.Background(), "return os.getenv('HOME')", bindings(1))
	require.Error(t, err, "no ambient globals")
}

func TestStarlark_StepBudget(t *testing.T) {
	ev := &StarlarkEvaluator{MaxSteps: 1000}
	_, err := ev.Evaluate(context.Background(), "for i in range(1000000):\n    pass", bindings(nil))
	require.Error(t, err)
}

func TestStarlark_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ev := &StarlarkEvaluator{}
	_, err := ev.Evaluate(ctx, "for i in range(100000000):\n    pass", bindings(nil))
	require.Error(t, err)
}

func TestExpr_ContextAccess(t *testing.T) {
	got, err := NewExpr().Evaluate(context.Background(), `context.start.name + "!"`, bindings(map[string]any{"name": "hi"}))
	require.NoError(t, err)
	assert.Equal(t, "hi!", got)

	_, err = NewExpr().Evaluate(context.Background(), "input +", bindings(1))
	require.Error(t, err)
}

func TestGovaluate_Comparison(t *testing.T) {
	got, err := NewGovaluate().Evaluate(context.Background(), "input * 2 > 5", bindings(3))
	require.NoError(t, err)
	assert.Equal(t, true, got)

	_, err = NewGovaluate().Evaluate(context.Background(), "missing + 1", bindings(3))
	require.Error(t, err)
}
