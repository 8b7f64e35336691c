package schema

import (
	"fmt"

	jsonschema "github.com/swaggest/jsonschema-go"
)

// CreateStringSchema creates a JSON schema for a string field
func CreateStringSchema(description string) *jsonschema.Schema {
	strType := jsonschema.SimpleType("string")
	return &jsonschema.Schema{
		Type:        &jsonschema.Type{SimpleTypes: &strType},
		Description: &description,
	}
}

// Reflect generates a self-contained JSON schema for the type of v, with
// every definition inlined
func Reflect(v any, title, description string) (jsonschema.Schema, error) {
	reflector := jsonschema.Reflector{}
	s, err := reflector.Reflect(v, jsonschema.InlineRefs)
	if err != nil {
		return jsonschema.Schema{}, fmt.Errorf("failed to generate schema: %w", err)
	}
	s.WithTitle(title)
	s.WithDescription(description)
	return s, nil
}
