package workflow

import (
	"encoding/json"
	"math"
	"time"
)

// Status is the state of an execution.
type Status string

const (
	StatusRunning Status = "running"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Result is the terminal value of one run.
// Output is set only on success, Error only on failure.
type Result struct {
	Status Status `json:"status"`
	Output any    `json:"output"`
	Error  string `json:"error,omitempty"`
}

// Success builds a successful Result.
func Success(output any) Result {
	return Result{Status: StatusSuccess, Output: output}
}

// Failure builds a failed Result carrying a human readable message.
func Failure(msg string) Result {
	return Result{Status: StatusError, Error: msg}
}

// Finite returns v with every NaN or infinite float replaced by nil, the way
// JSON encoders in browsers write them. Maps and slices are copied, not
// modified in place.
func Finite(v any) any {
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil
		}
		return x
	case float32:
		if f := float64(x); math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
		return x
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			out[k] = Finite(item)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = Finite(item)
		}
		return out
	default:
		return v
	}
}

// EncodeOutput returns the result to store, with Finite applied to its
// output, and that output as JSON.
// An output that cannot be encoded even after Finite turns the result into
// a failure, so a stored run always reaches a terminal state.
func EncodeOutput(res Result) (Result, []byte) {
	res.Output = Finite(res.Output)
	raw, err := json.Marshal(res.Output)
	if err != nil {
		return Failure("encode output: " + err.Error()), []byte("null")
	}
	return res, raw
}

// Execution is the stored record of a run.
type Execution struct {
	ID          string     `json:"id"`
	WorkflowID  string     `json:"workflow_id"`
	Status      Status     `json:"status"`
	Input       any        `json:"input_data"`
	Output      any        `json:"output_data"`
	Error       string     `json:"error,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
