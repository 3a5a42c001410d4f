package engine

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/meikuraledutech/workflow"
)

func TestResolve(t *testing.T) {
	doc := map[string]any{
		"a":     map[string]any{"b": 5, "nil": nil},
		"items": []any{map[string]any{"id": "x"}, "second"},
		"s":     "text",
	}
	tests := []struct {
		path  string
		want  any
		found bool
	}{
		{"a.b", 5, true},
		{"a.c", nil, false},
		{"a.nil", nil, true},
		{"a.b.c", nil, false},
		{"items.0.id", "x", true},
		{"items.1", "second", true},
		{"items.2", nil, false},
		{"items.-1", nil, false},
		{"s.length", nil, false},
		{"missing.deep.path", nil, false},
		{"", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, found := Resolve(doc, tt.path)
			assert.Equal(t, tt.found, found)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOutputExecutor(t *testing.T) {
	input := map[string]any{"a": map[string]any{"b": 5}}
	rc := NewContext(input)

	tests := []struct {
		name string
		data map[string]any
		want any
	}{
		{"no mapping passes input", nil, input},
		{"json mapping", map[string]any{"mapping": map[string]any{"x": "a.b", "y": "a.c"}}, map[string]any{"x": 5}},
		{"typed mapping", map[string]any{"mapping": map[string]string{"whole": "a"}}, map[string]any{"whole": map[string]any{"b": 5}}},
		{"non string paths are skipped", map[string]any{"mapping": map[string]any{"n": 3.0}}, map[string]any{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := OutputExecutor{}.Execute(context.Background(), workflow.Node{Data: tt.data}, rc)
			assert.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestContext(t *testing.T) {
	rc := NewContext("in")
	rc.Set("a", 1)
	rc.Set("a", 2)

	v, ok := rc.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 2, v)
	assert.Equal(t, "in", rc.Input())

	snapshot := rc.Values()
	snapshot["b"] = 3
	_, ok = rc.Get("b")
	assert.False(t, ok, "Values returns a copy")
}
