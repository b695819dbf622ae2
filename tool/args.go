package tool

import (
	"fmt"
	"math"
)

// StringArg returns a string argument or a validation ToolError.
func StringArg(args map[string]any, name string) (string, error) {
	v, ok := args[name]
	if !ok || v == nil {
		return "", &ValidationError{Field: name, Message: "required field is missing"}
	}
	s, ok := v.(string)
	if !ok {
		return "", &ValidationError{Field: name, Value: v, Message: fmt.Sprintf("expected type string, got %T", v)}
	}
	return s, nil
}

// OptionalStringArg returns a string argument or def when absent.
func OptionalStringArg(args map[string]any, name, def string) string {
	if s, err := StringArg(args, name); err == nil {
		return s
	}
	return def
}

// IntArg returns an integer argument, accepting JSON numbers without a fraction.
func IntArg(args map[string]any, name string) (int, error) {
	v, ok := args[name]
	if !ok || v == nil {
		return 0, &ValidationError{Field: name, Message: "required field is missing"}
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n == math.Trunc(n) {
			return int(n), nil
		}
	}
	return 0, &ValidationError{Field: name, Value: v, Message: fmt.Sprintf("expected type integer, got %T", v)}
}
