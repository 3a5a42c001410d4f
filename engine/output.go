package engine

import (
	"context"
	"strconv"
	"strings"

	"github.com/meikuraledutech/workflow"
)

// OutputExecutor shapes the run input through data.mapping, a map from
// output key to a dotted path into the input. Without a mapping the input
// passes through unchanged.
type OutputExecutor struct{}

func (OutputExecutor) Execute(_ context.Context, node workflow.Node, rc *Context) (any, error) {
	mapping, ok := pathMapping(node.Data["mapping"])
	if !ok {
		return rc.Input(), nil
	}
	out := make(map[string]any, len(mapping))
	for key, path := range mapping {
		if v, found := Resolve(rc.Input(), path); found {
			out[key] = v
		}
	}
	return out, nil
}

func pathMapping(v any) (map[string]string, bool) {
	switch m := v.(type) {
	case map[string]string:
		return m, true
	case map[string]any:
		out := make(map[string]string, len(m))
		for k, p := range m {
			if s, ok := p.(string); ok {
				out[k] = s
			}
		}
		return out, true
	default:
		return nil, false
	}
}

// Resolve descends into v one dotted path segment at a time. Maps are indexed
// by key and lists by decimal index. A missing step yields found == false,
// never an error.
func Resolve(v any, path string) (any, bool) {
	current := v
	for _, part := range strings.Split(path, ".") {
		switch c := current.(type) {
		case map[string]any:
			next, ok := c[part]
			if !ok {
				return nil, false
			}
			current = next
		case []any:
			i, err := strconv.Atoi(part)
			if err != nil || i < 0 || i >= len(c) {
				return nil, false
			}
			current = c[i]
		default:
			return nil, false
		}
	}
	return current, true
}
