package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Schema is a named JSON schema for structured completions. It is compiled
// once and validates every model response before it leaves the client.
type Schema struct {
	Name       string
	Definition map[string]any
	// Strict requests the provider's strict structured-output mode. Only
	// schemas passed through EnsureStrict qualify.
	Strict bool

	compiled *jsonschema.Schema
}

// NewSchema compiles def into a reusable Schema.
func NewSchema(name string, def map[string]any, strict bool) (Schema, error) {
	raw, err := json.Marshal(def)
	if err != nil {
		return Schema{}, fmt.Errorf("marshal schema %s: %w", name, err)
	}

	compiler := jsonschema.NewCompiler()
	url := name + ".schema.json"
	if err := compiler.AddResource(url, bytes.NewReader(raw)); err != nil {
		return Schema{}, fmt.Errorf("add schema %s: %w", name, err)
	}
	compiled, err := compiler.Compile(url)
	if err != nil {
		return Schema{}, fmt.Errorf("compile schema %s: %w", name, err)
	}

	return Schema{Name: name, Definition: def, Strict: strict, compiled: compiled}, nil
}

// MustSchema is NewSchema for static, known-good definitions.
func MustSchema(name string, def map[string]any, strict bool) Schema {
	s, err := NewSchema(name, def, strict)
	if err != nil {
		panic(err)
	}
	return s
}

// Validate checks raw model output against the compiled schema.
func (s Schema) Validate(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("response is not valid JSON: %w", err)
	}
	if s.compiled == nil {
		return fmt.Errorf("schema %s is not compiled", s.Name)
	}
	if err := s.compiled.Validate(v); err != nil {
		return fmt.Errorf("response violates schema %s: %w", s.Name, err)
	}
	return nil
}

// EnsureStrict rewrites a schema definition so it is compatible with the
// provider's strict structured-output mode: every object forbids additional
// properties and lists all of its properties as required. The input map is
// returned mutated for convenience.
func EnsureStrict(schema map[string]any) map[string]any {
	if schema == nil {
		return nil
	}

	if t, _ := schema["type"].(string); t == "object" {
		schema["additionalProperties"] = false
		if props, ok := schema["properties"].(map[string]any); ok {
			required := make([]string, 0, len(props))
			for name, sub := range props {
				required = append(required, name)
				if m, ok := sub.(map[string]any); ok {
					props[name] = EnsureStrict(m)
				}
			}
			// Stable order keeps the serialized schema identical across runs.
			sort.Strings(required)
			schema["required"] = required
		}
	} else if t == "array" {
		if items, ok := schema["items"].(map[string]any); ok {
			schema["items"] = EnsureStrict(items)
		}
	}

	for _, key := range []string{"anyOf", "oneOf", "allOf"} {
		if subs, ok := schema[key].([]any); ok {
			for i, sub := range subs {
				if m, ok := sub.(map[string]any); ok {
					subs[i] = EnsureStrict(m)
				}
			}
		}
	}

	return schema
}
