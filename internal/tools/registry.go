// Package tools is the fixed registry of callables an agent may dispatch to.
// Tools take a mapping of named arguments and return a JSON-serializable
// value.
package tools

import (
	"fmt"
	"sort"
)

// Func is a tool implementation.
type Func func(args map[string]interface{}) (interface{}, error)

// Tool pairs a callable with the description shown to the model.
type Tool struct {
	Name        string
	Description string
	Run         Func
}

// UnknownToolError reports a registry lookup miss.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("tools: unknown tool %q", e.Name)
}

// Registry maps tool names to callables. Build once, then treat as
// read-only; lookups take no lock.
type Registry struct {
	tools map[string]Tool
}

// NewRegistry builds a registry from the given tools.
func NewRegistry(tools ...Tool) *Registry {
	m := make(map[string]Tool, len(tools))
	for _, t := range tools {
		m[t.Name] = t
	}
	return &Registry{tools: m}
}

// Invoke runs the named tool. A miss fails with *UnknownToolError.
func (r *Registry) Invoke(name string, args map[string]interface{}) (interface{}, error) {
	t, ok := r.tools[name]
	if !ok {
		return nil, &UnknownToolError{Name: name}
	}
	return t.Run(args)
}

// Names returns the registered tool names, sorted.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.tools))
	for name := range r.tools {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Describe renders a numbered tool list for inclusion in a prompt.
func (r *Registry) Describe() string {
	var out string
	for i, name := range r.Names() {
		out += fmt.Sprintf("%d. %s - %s\n", i+1, name, r.tools[name].Description)
	}
	return out
}
