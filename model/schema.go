package model

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/invopop/jsonschema"
	sjsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// Schema is a named JSON schema constraining a structured model response.
type Schema struct {
	Name        string
	Description string
	Definition  map[string]any
	raw         string
}

// SchemaFor reflects the JSON schema of T. Field descriptions come from the
// jsonschema_description struct tag. Unknown properties are tolerated so a
// chatty model does not fail validation on extra keys.
func SchemaFor[T any](name, description string) (Schema, error) {
	r := &jsonschema.Reflector{
		AllowAdditionalProperties: true,
		DoNotReference:            true,
		ExpandedStruct:            true,
	}
	reflected, err := json.Marshal(r.Reflect(new(T)))
	if err != nil {
		return Schema{}, fmt.Errorf("marshal schema %s: %w", name, err)
	}
	var def map[string]any
	if err := json.Unmarshal(reflected, &def); err != nil {
		return Schema{}, fmt.Errorf("decode schema %s: %w", name, err)
	}
	delete(def, "$schema")
	delete(def, "$id")
	raw, err := json.Marshal(def)
	if err != nil {
		return Schema{}, fmt.Errorf("marshal schema %s: %w", name, err)
	}
	return Schema{Name: name, Description: description, Definition: def, raw: string(raw)}, nil
}

// MustSchemaFor is SchemaFor for package level variables; it panics on error.
func MustSchemaFor[T any](name, description string) Schema {
	s, err := SchemaFor[T](name, description)
	if err != nil {
		panic(err)
	}
	return s
}

// JSON returns the canonical JSON text of the schema definition.
func (s Schema) JSON() string {
	if s.raw != "" {
		return s.raw
	}
	b, err := json.Marshal(s.Definition)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// Validate checks a decoded JSON value (the result of json.Unmarshal into any)
// against the schema.
func (s Schema) Validate(v any) error {
	compiled, err := compileSchema(s.Name, s.JSON())
	if err != nil {
		return fmt.Errorf("compile schema %s: %w", s.Name, err)
	}
	return compiled.Validate(v)
}

var schemaCache sync.Map

func compileSchema(name, schema string) (*sjsonschema.Schema, error) {
	if cached, ok := schemaCache.Load(schema); ok {
		if compiled, ok := cached.(*sjsonschema.Schema); ok {
			return compiled, nil
		}
	}
	compiled, err := sjsonschema.CompileString(name+".schema.json", schema)
	if err != nil {
		return nil, err
	}
	schemaCache.Store(schema, compiled)
	return compiled, nil
}
