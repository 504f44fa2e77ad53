// Package tools defines the tools available to the agent: the Tool
// unit, the name-keyed Registry the agent dispatches through, and the
// built-in tool sets (planning, knowledge-base I/O, shell, git).
//
// Every tool result is a map carrying at least a "success" key. Tools
// never panic past the registry and never raise errors to the agent
// loop — Execute converts handler errors into structured failures.
package tools

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
)

// Handler executes one tool call. The args map is whatever the decision
// source produced (typically decoded LLM function-call arguments); tc is
// the shared dependency bundle bound to the registry.
type Handler func(ctx context.Context, args map[string]any, tc *Context) (map[string]any, error)

// Tool is a self-describing capability: a unique name, a description
// the LLM uses for disambiguation, a JSON-schema parameter shape, and
// the handler that does the work.
type Tool struct {
	Name        string
	Description string
	Parameters  map[string]any
	Handler     Handler
}

// LLMFunction projects the tool into the function-calling wire format.
func (t *Tool) LLMFunction() map[string]any {
	return map[string]any{
		"type": "function",
		"function": map[string]any{
			"name":        t.Name,
			"description": t.Description,
			"parameters":  t.Parameters,
		},
	}
}

// Registry maps tool names to tools and binds the shared Context
// injected into every execution.
type Registry struct {
	tools  map[string]*Tool
	tc     *Context
	logger *slog.Logger
}

// NewRegistry creates an empty registry bound to the given context.
func NewRegistry(tc *Context, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		tools:  make(map[string]*Tool),
		tc:     tc,
		logger: logger,
	}
}

// Register adds a tool. Registration is last-wins: a second tool with
// the same name replaces the first. Tests rely on this to override
// built-ins with doubles.
func (r *Registry) Register(t *Tool) {
	r.tools[t.Name] = t
}

// RegisterAll registers every tool in the slice.
func (r *Registry) RegisterAll(ts []*Tool) {
	for _, t := range ts {
		r.Register(t)
	}
}

// Has reports whether a tool with the given name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.tools[name]
	return ok
}

// Names returns the registered tool names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LLMSchema returns the function-calling schema for all registered
// tools, in name order so the prompt is stable across runs.
func (r *Registry) LLMSchema() []map[string]any {
	names := r.Names()
	schema := make([]map[string]any, 0, len(names))
	for _, name := range names {
		schema = append(schema, r.tools[name].LLMFunction())
	}
	return schema
}

// Execute dispatches a tool call by name. The returned map always
// carries "success". Unknown names and handler errors both come back as
// structured failures — the agent loop records them and moves on.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) map[string]any {
	tool, ok := r.tools[name]
	if !ok {
		r.logger.Warn("tool not found", "tool", name)
		return Fail(fmt.Sprintf("Tool not found: %s", name))
	}

	result, err := tool.Handler(ctx, args, r.tc)
	if err != nil {
		r.logger.Warn("tool execution failed", "tool", name, "error", err)
		return Fail(err.Error())
	}
	if result == nil {
		result = map[string]any{}
	}
	if _, ok := result["success"]; !ok {
		result["success"] = true
	}
	return result
}

// Fail builds a structured failure result.
func Fail(msg string) map[string]any {
	return map[string]any{"success": false, "error": msg}
}

// Ok builds a structured success result from key/value pairs.
func Ok(kv map[string]any) map[string]any {
	if kv == nil {
		kv = map[string]any{}
	}
	kv["success"] = true
	return kv
}

// stringArg extracts a required string argument.
func stringArg(args map[string]any, key string) (string, error) {
	v, ok := args[key].(string)
	if !ok || v == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return v, nil
}

// optBool extracts an optional boolean argument with a default.
func optBool(args map[string]any, key string, def bool) bool {
	if v, ok := args[key].(bool); ok {
		return v
	}
	return def
}

// optString extracts an optional string argument.
func optString(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}

// optInt extracts an optional integer argument (JSON numbers decode as
// float64) with a default.
func optInt(args map[string]any, key string, def int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return def
}
