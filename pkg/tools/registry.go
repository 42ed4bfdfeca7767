package tools

import (
	"context"
	"fmt"
)

// Registry is a name-keyed lookup of Tools, the same shape as the Model
// Provider Registry.
type Registry struct {
	tools map[string]Tool
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool under its own Name(), replacing any previous tool of
// the same name.
func (r *Registry) Register(t Tool) {
	r.tools[t.Name()] = t
}

// Get returns the tool registered under name.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// DefinitionsFor returns the declarations for the given tool names, skipping
// any name that isn't registered.
func (r *Registry) DefinitionsFor(names []string) []Definition {
	defs := make([]Definition, 0, len(names))
	for _, name := range names {
		if t, ok := r.tools[name]; ok {
			defs = append(defs, t.Definition())
		}
	}
	return defs
}

// Names returns every registered tool's name.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	return names
}

// Execute runs the named tool, or returns an error Result if it isn't
// registered — a lookup miss never becomes a Go error, for the same reason
// a malformed tool call doesn't.
func (r *Registry) Execute(ctx context.Context, name string, input map[string]any, sec SecurityContext) Result {
	t, ok := r.tools[name]
	if !ok {
		return Error(fmt.Sprintf("unknown tool: %s", name))
	}
	return t.Execute(ctx, input, sec)
}
