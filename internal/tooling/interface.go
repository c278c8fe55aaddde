package tooling

import (
	"context"
	"encoding/json"

	"opschat/internal/domain"
)

// SchemaTool is a tool whose input is described by a JSON Schema generated
// from a Go struct via invopop/jsonschema. The brain embeds Definition() into
// the selection prompt and validates extracted arguments before calling Call().
type SchemaTool interface {
	// Name returns the unique tool name used in function-calling (e.g. "get_current_weather").
	Name() string
	// Description returns a human-readable description for the LLM.
	Description() string
	// Definition returns the JSON Schema string for the tool's input struct.
	Definition() string
	// Call executes the tool with the given JSON arguments. The context bounds
	// the underlying external call; implementations must honour cancellation.
	Call(ctx context.Context, args json.RawMessage) (*domain.ToolResult, error)
}
