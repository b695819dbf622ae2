package util

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/hupe1980/agenthive/core"
)

// ValidationError represents argument validation errors with detailed information.
type ValidationError struct {
	Field   string `json:"field"`   // Field that failed validation
	Value   any    `json:"value"`   // Value that was provided
	Message string `json:"message"` // Human-readable error message
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// NormalizeType maps a declared argument type onto its canonical JSON schema
// name. The second result is false for unknown types.
func NormalizeType(t string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case "str", "string":
		return "string", true
	case "int", "integer":
		return "integer", true
	case "float", "number":
		return "number", true
	case "bool", "boolean":
		return "boolean", true
	case "list", "array":
		return "array", true
	case "dict", "object":
		return "object", true
	case "any", "":
		return "any", true
	default:
		return "", false
	}
}

// ArgumentsFromStruct derives tool arguments from a struct using reflection.
// Names come from the json tag, descriptions from the description tag;
// omitempty and pointer fields are optional.
func ArgumentsFromStruct(structType any) []core.ToolArgument {
	t := reflect.TypeOf(structType)
	if t == nil {
		return nil
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}

	args := make([]core.ToolArgument, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		jsonTag := field.Tag.Get("json")
		if jsonTag == "-" {
			continue
		}

		name := field.Name
		if jsonTag != "" {
			parts := strings.Split(jsonTag, ",")
			if parts[0] != "" {
				name = parts[0]
			}
		}

		args = append(args, core.ToolArgument{
			Name:        name,
			Type:        getJSONType(field.Type),
			Description: field.Tag.Get("description"),
			Optional:    hasOmitEmpty(jsonTag) || isPointer(field.Type),
		})
	}
	return args
}

// ValidateArguments validates call arguments against the declared tool arguments.
// Extra arguments are allowed.
func ValidateArguments(args map[string]any, declared []core.ToolArgument) error {
	for _, arg := range declared {
		value, exists := args[arg.Name]
		if !exists {
			if arg.Optional {
				continue
			}
			return &ValidationError{
				Field:   arg.Name,
				Message: "required field is missing",
			}
		}

		expectedType, _ := NormalizeType(arg.Type)
		if !isValidType(value, expectedType) {
			return &ValidationError{
				Field:   arg.Name,
				Value:   value,
				Message: fmt.Sprintf("expected type %s, got %T", expectedType, value),
			}
		}
	}
	return nil
}

// getJSONType returns the JSON schema type for a given Go type.
func getJSONType(t reflect.Type) string {
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Bool:
		return "boolean"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Map, reflect.Struct:
		return "object"
	case reflect.Ptr:
		return getJSONType(t.Elem())
	default:
		return "string"
	}
}

// hasOmitEmpty checks if a JSON tag has the "omitempty" option.
func hasOmitEmpty(tag string) bool {
	parts := strings.Split(tag, ",")
	for _, part := range parts[1:] {
		if strings.TrimSpace(part) == "omitempty" {
			return true
		}
	}
	return false
}

// isPointer checks if a type is a pointer.
func isPointer(t reflect.Type) bool {
	return t.Kind() == reflect.Ptr
}

// isValidType checks if a value is valid according to the expected JSON schema type.
func isValidType(value any, expectedType string) bool {
	if value == nil {
		return true // nil is valid for any type
	}

	switch expectedType {
	case "string":
		_, ok := value.(string)
		return ok
	case "integer":
		switch v := value.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			return true
		case float64: // JSON unmarshaling often produces float64 for numbers
			return v == float64(int64(v))
		}
		return false
	case "number":
		switch value.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64,
			float32, float64:
			return true
		}
		return false
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "array":
		_, ok := value.([]any)
		return ok
	case "object":
		_, ok := value.(map[string]any)
		return ok
	default:
		return true
	}
}
