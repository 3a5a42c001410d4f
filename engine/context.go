package engine

import "maps"

// InputKey is the reserved context key holding the run's input payload.
const InputKey = "input"

// Context threads values between the nodes of one run.
// It holds one entry per executed node, keyed by node id, plus the input.
// A Context belongs to a single run and is not safe for concurrent use.
type Context struct {
	values map[string]any
}

// NewContext creates a Context seeded with the run input.
func NewContext(input any) *Context {
	return &Context{values: map[string]any{InputKey: input}}
}

// Get returns the value stored under key.
func (c *Context) Get(key string) (any, bool) {
	v, ok := c.values[key]
	return v, ok
}

// Set stores v under key, overwriting any previous value.
func (c *Context) Set(key string, v any) {
	c.values[key] = v
}

// Input returns the run input.
func (c *Context) Input() any {
	return c.values[InputKey]
}

// Values returns a shallow copy of every entry.
func (c *Context) Values() map[string]any {
	return maps.Clone(c.values)
}
