package tools

import (
	"encoding/json"
	"fmt"
)

// Param describes a single tool parameter.
type Param struct {
	Type        string   // "string", "number", "integer", "boolean"
	Description string
	Required    bool
	Enum        []string
}

// Schema is the declarative parameter list for a tool. It renders to the
// JSON-schema map sent to the model and validates decoded arguments before
// a tool is invoked.
type Schema struct {
	Params map[string]Param
}

// JSONSchema renders the schema as the JSON-schema object the endpoint
// expects in a tool definition.
func (s Schema) JSONSchema() map[string]any {
	properties := make(map[string]any, len(s.Params))
	var required []string
	for name, p := range s.Params {
		prop := map[string]any{
			"type":        p.Type,
			"description": p.Description,
		}
		if len(p.Enum) > 0 {
			prop["enum"] = p.Enum
		}
		properties[name] = prop
		if p.Required {
			required = append(required, name)
		}
	}
	schema := map[string]any{
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// DecodeArgs parses a raw JSON argument blob and validates it against the
// schema. Missing required fields, unknown fields, and type mismatches are
// all rejected rather than passed through silently.
func (s Schema) DecodeArgs(raw string) (map[string]any, error) {
	if raw == "" {
		raw = "{}"
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, fmt.Errorf("malformed arguments: %w", err)
	}
	if err := s.validate(args); err != nil {
		return nil, err
	}
	return args, nil
}

func (s Schema) validate(args map[string]any) error {
	for name, p := range s.Params {
		value, ok := args[name]
		if !ok {
			if p.Required {
				return fmt.Errorf("missing required argument: %s", name)
			}
			continue
		}
		if err := checkType(value, p.Type); err != nil {
			return fmt.Errorf("argument %s: %w", name, err)
		}
	}
	for name := range args {
		if _, ok := s.Params[name]; !ok {
			return fmt.Errorf("unknown argument: %s", name)
		}
	}
	return nil
}

// decodeLoose parses an argument blob without schema validation.
func decodeLoose(raw string) (map[string]any, error) {
	if raw == "" {
		raw = "{}"
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, fmt.Errorf("malformed arguments: %w", err)
	}
	return args, nil
}

func checkType(value any, expected string) error {
	switch expected {
	case "string":
		if _, ok := value.(string); ok {
			return nil
		}
	case "number":
		if _, ok := value.(float64); ok {
			return nil
		}
	case "integer":
		if f, ok := value.(float64); ok && f == float64(int64(f)) {
			return nil
		}
	case "boolean":
		if _, ok := value.(bool); ok {
			return nil
		}
	default:
		return fmt.Errorf("unsupported schema type %q", expected)
	}
	return fmt.Errorf("expected %s but got %T", expected, value)
}
