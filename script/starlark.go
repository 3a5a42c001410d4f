package script

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"go.starlark.net/starlark"
)

// DefaultMaxSteps bounds the work a single Starlark snippet may do.
const DefaultMaxSteps = 10_000_000

// StarlarkEvaluator runs snippets as the body of a Starlark function whose
// parameters are the bindings, so `return input + 1` yields the value.
type StarlarkEvaluator struct {
	MaxSteps uint64
}

// NewStarlark creates a StarlarkEvaluator with DefaultMaxSteps.
func NewStarlark() *StarlarkEvaluator {
	return &StarlarkEvaluator{MaxSteps: DefaultMaxSteps}
}

func (e *StarlarkEvaluator) Evaluate(ctx context.Context, code string, bindings map[string]any) (any, error) {
	names := make([]string, 0, len(bindings))
	for name := range bindings {
		names = append(names, name)
	}
	sort.Strings(names)

	args := make(starlark.Tuple, 0, len(names))
	for _, name := range names {
		v, err := toStarlark(bindings[name])
		if err != nil {
			return nil, fmt.Errorf("binding %s: %w", name, err)
		}
		args = append(args, v)
	}

	thread := &starlark.Thread{Name: "script"}
	if e.MaxSteps > 0 {
		thread.SetMaxExecutionSteps(e.MaxSteps)
	}
	stop := context.AfterFunc(ctx, func() { thread.Cancel(ctx.Err().Error()) })
	defer stop()

	src := wrap(code, names)
	globals, err := starlark.ExecFile(thread, "script.star", src, nil)
	if err != nil {
		return nil, err
	}
	out, err := starlark.Call(thread, globals["main"], args, nil)
	if err != nil {
		return nil, err
	}
	return fromStarlark(out)
}

func wrap(code string, params []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "def main(%s):\n", strings.Join(params, ", "))
	body := strings.TrimSpace(code)
	if body == "" {
		body = "pass"
	}
	for _, line := range strings.Split(body, "\n") {
		b.WriteString("    ")
		b.WriteString(strings.TrimRight(line, "\r"))
		b.WriteByte('\n')
	}
	return b.String()
}

func toStarlark(v any) (starlark.Value, error) {
	switch x := v.(type) {
	case nil:
		return starlark.None, nil
	case bool:
		return starlark.Bool(x), nil
	case int:
		return starlark.MakeInt(x), nil
	case int64:
		return starlark.MakeInt64(x), nil
	case float64:
		if x == float64(int64(x)) {
			return starlark.MakeInt64(int64(x)), nil
		}
		return starlark.Float(x), nil
	case string:
		return starlark.String(x), nil
	case []any:
		elems := make([]starlark.Value, 0, len(x))
		for _, item := range x {
			sv, err := toStarlark(item)
			if err != nil {
				return nil, err
			}
			elems = append(elems, sv)
		}
		return starlark.NewList(elems), nil
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		d := starlark.NewDict(len(x))
		for _, k := range keys {
			sv, err := toStarlark(x[k])
			if err != nil {
				return nil, err
			}
			if err := d.SetKey(starlark.String(k), sv); err != nil {
				return nil, err
			}
		}
		return d, nil
	default:
		// Other Go values ([]int, map[string]string, structs) take their JSON shape.
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("unsupported value of type %T: %w", v, err)
		}
		var generic any
		if err := json.Unmarshal(raw, &generic); err != nil {
			return nil, fmt.Errorf("unsupported value of type %T: %w", v, err)
		}
		return toStarlark(generic)
	}
}

func fromStarlark(v starlark.Value) (any, error) {
	switch x := v.(type) {
	case starlark.NoneType:
		return nil, nil
	case starlark.Bool:
		return bool(x), nil
	case starlark.Int:
		if i, ok := x.Int64(); ok {
			return i, nil
		}
		return nil, fmt.Errorf("integer %s out of range", x.String())
	case starlark.Float:
		return float64(x), nil
	case starlark.String:
		return string(x), nil
	case *starlark.List:
		out := make([]any, 0, x.Len())
		for i := 0; i < x.Len(); i++ {
			item, err := fromStarlark(x.Index(i))
			if err != nil {
				return nil, err
			}
			out = append(out, item)
		}
		return out, nil
	case starlark.Tuple:
		out := make([]any, 0, len(x))
		for _, item := range x {
			gv, err := fromStarlark(item)
			if err != nil {
				return nil, err
			}
			out = append(out, gv)
		}
		return out, nil
	case *starlark.Dict:
		out := make(map[string]any, x.Len())
		for _, kv := range x.Items() {
			k, ok := starlark.AsString(kv[0])
			if !ok {
				return nil, fmt.Errorf("dict key %s is not a string", kv[0].String())
			}
			gv, err := fromStarlark(kv[1])
			if err != nil {
				return nil, err
			}
			out[k] = gv
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported result of type %s", v.Type())
	}
}
