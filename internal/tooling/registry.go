package tooling

import (
	"encoding/json"
	"fmt"

	"opschat/internal/domain"
)

// ToolRegistry holds SchemaTool implementations keyed by name. It is populated
// once at startup and read-only thereafter, so no locking is needed as long as
// registration completes before any request is served. Registration order is
// preserved: Definitions and FunctionSpecs enumerate tools in the order they
// were registered, which keeps the selection prompt stable across runs.
type ToolRegistry struct {
	tools map[string]SchemaTool
	order []string
}

// NewToolRegistry returns an empty, ready-to-use registry.
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{tools: make(map[string]SchemaTool)}
}

// Register adds a tool. Returns an error if the tool is nil or a tool with the
// same name is already registered — duplicate registration is a configuration
// error and must surface at startup, not be swallowed.
func (r *ToolRegistry) Register(tool SchemaTool) error {
	if tool == nil {
		return fmt.Errorf("tool must not be nil")
	}
	name := tool.Name()
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool %q is already registered", name)
	}
	r.tools[name] = tool
	r.order = append(r.order, name)
	return nil
}

// Get returns the tool with the given name, or domain.ErrUnknownTool if absent.
func (r *ToolRegistry) Get(name string) (SchemaTool, error) {
	tool, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownTool, name)
	}
	return tool, nil
}

// List returns all registered tools in registration order.
func (r *ToolRegistry) List() []SchemaTool {
	out := make([]SchemaTool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

// Definitions returns a domain.ToolDefinition for every registered tool, in
// registration order.
func (r *ToolRegistry) Definitions() []domain.ToolDefinition {
	out := make([]domain.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		out = append(out, domain.ToolDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			InputSchema: json.RawMessage(t.Definition()),
		})
	}
	return out
}

// FunctionSpecs returns the prompt wire shape for every registered tool, in
// registration order.
func (r *ToolRegistry) FunctionSpecs() []domain.FunctionSpec {
	defs := r.Definitions()
	out := make([]domain.FunctionSpec, 0, len(defs))
	for _, d := range defs {
		out = append(out, d.Spec())
	}
	return out
}
