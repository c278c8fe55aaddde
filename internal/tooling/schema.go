package tooling

import (
	"encoding/json"
	"fmt"

	invopopSchema "github.com/invopop/jsonschema"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"opschat/internal/domain"
)

// GenerateSchema generates a JSON Schema string from a Go struct using
// invopop/jsonschema reflection. AdditionalProperties is disallowed so that
// argument keys not declared in the schema are rejected at validation time.
func GenerateSchema(input interface{}) string {
	reflector := invopopSchema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	schema := reflector.Reflect(input)

	schemaBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return ""
	}
	return string(schemaBytes)
}

// ValidateAgainstSchema validates JSON input against a JSON Schema string.
func ValidateAgainstSchema(input json.RawMessage, schemaStr string) error {
	schema, err := jsonschema.CompileString("", schemaStr)
	if err != nil {
		return fmt.Errorf("invalid schema: %w", err)
	}

	var inputData interface{}
	if err := json.Unmarshal(input, &inputData); err != nil {
		return fmt.Errorf("invalid JSON input: %w", err)
	}

	if err := schema.Validate(inputData); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	return nil
}

// schemaShape is the subset of a JSON Schema the argument pre-check needs.
type schemaShape struct {
	Properties map[string]json.RawMessage `json:"properties"`
	Required   []string                   `json:"required"`
}

// CheckArguments verifies that the argument keys are a subset of the schema's
// declared properties and that every required property is present. It reports
// the first violation with a message suitable for surfacing to the user
// ("missing argument: x", "unexpected argument: y"), wrapped in
// domain.ErrInvalidArguments. Type-level validation is left to
// ValidateAgainstSchema.
func CheckArguments(args json.RawMessage, schemaStr string) error {
	var shape schemaShape
	if err := json.Unmarshal([]byte(schemaStr), &shape); err != nil {
		return fmt.Errorf("invalid schema: %w", err)
	}

	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	var provided map[string]json.RawMessage
	if err := json.Unmarshal(args, &provided); err != nil {
		return fmt.Errorf("%w: arguments are not a JSON object", domain.ErrInvalidArguments)
	}

	for key := range provided {
		if _, ok := shape.Properties[key]; !ok {
			return fmt.Errorf("%w: unexpected argument: %s", domain.ErrInvalidArguments, key)
		}
	}
	for _, req := range shape.Required {
		if _, ok := provided[req]; !ok {
			return fmt.Errorf("%w: missing argument: %s", domain.ErrInvalidArguments, req)
		}
	}
	return nil
}
