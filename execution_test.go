package workflow

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestFinite(t *testing.T) {
	in := map[string]any{
		"nan":  math.NaN(),
		"inf":  []any{math.Inf(-1), 1.5, float32(math.Inf(1))},
		"keep": "x",
	}
	want := map[string]any{"nan": nil, "inf": []any{nil, 1.5, nil}, "keep": "x"}

	if diff := cmp.Diff(want, Finite(in)); diff != "" {
		t.Errorf("Finite mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, math.IsNaN(in["nan"].(float64)), "input is left untouched")
}

func TestEncodeOutput(t *testing.T) {
	res, raw := EncodeOutput(Success(map[string]any{"s": math.NaN(), "n": 2}))
	assert.Equal(t, StatusSuccess, res.Status)
	assert.JSONEq(t, `{"s": null, "n": 2}`, string(raw))
	assert.Equal(t, map[string]any{"s": nil, "n": 2}, res.Output)

	res, raw = EncodeOutput(Success(func() {}))
	assert.Equal(t, StatusError, res.Status)
	assert.Contains(t, res.Error, "encode output")
	assert.Equal(t, "null", string(raw))

	res, raw = EncodeOutput(Failure("Error in node 'A': boom"))
	assert.Equal(t, Failure("Error in node 'A': boom"), res)
	assert.Equal(t, "null", string(raw))
}
