package tool

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/hupe1980/agenthive/core"
)

// Kind is the closed set of dispatch outcomes.
type Kind int

const (
	// KindText is a string-like result passed through verbatim.
	KindText Kind = iota
	// KindStructured is a map, struct or pointer rendered as canonical JSON.
	KindStructured
	// KindScalar is a number or boolean.
	KindScalar
	// KindSequence is a slice or array whose elements were normalized and joined.
	KindSequence
	// KindEmpty is a nil result.
	KindEmpty
	// KindUnrecognized is a value with no textual rendering (channels, funcs, ...).
	KindUnrecognized
	// KindError means the handler failed, panicked or its arguments were invalid.
	KindError
	// KindNotFound means no toolset is registered under the call's ToolsetID.
	KindNotFound
)

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindStructured:
		return "structured"
	case KindScalar:
		return "scalar"
	case KindSequence:
		return "sequence"
	case KindEmpty:
		return "empty"
	case KindUnrecognized:
		return "unrecognized"
	case KindError:
		return "error"
	case KindNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Result is the normalized outcome of dispatching one tool call.
type Result struct {
	Kind Kind
	Text string
	Call core.ToolCall
	// Err is set for KindError.
	Err error
}

// Message renders the result as a tool message for the agent's buffer.
func (r Result) Message() core.Message { return core.ToolMessage(r.Text) }

// Failed reports whether the call did not produce a usable value.
func (r Result) Failed() bool {
	switch r.Kind {
	case KindError, KindNotFound, KindUnrecognized:
		return true
	default:
		return false
	}
}

// NotFound builds the result for a call naming an unregistered toolset.
func NotFound(call core.ToolCall) Result {
	return Result{Kind: KindNotFound, Text: fmt.Sprintf("toolset %s not found", call.ToolsetID), Call: call}
}

// Errored builds the result for a failed handler.
func Errored(call core.ToolCall, err error) Result {
	return Result{Kind: KindError, Text: fmt.Sprintf("error calling tool %s: %v", call.Name, err), Call: call, Err: err}
}

// Normalize renders an arbitrary handler return value as text.
func Normalize(v any) Result {
	switch x := v.(type) {
	case nil:
		return Result{Kind: KindEmpty}
	case string:
		return Result{Kind: KindText, Text: x}
	case []byte:
		return Result{Kind: KindText, Text: string(x)}
	case json.RawMessage:
		return Result{Kind: KindText, Text: string(x)}
	case error:
		return Result{Kind: KindText, Text: x.Error()}
	case fmt.Stringer:
		return Result{Kind: KindText, Text: x.String()}
	case bool:
		return Result{Kind: KindScalar, Text: strconv.FormatBool(x)}
	}
	return normalizeValue(reflect.ValueOf(v))
}

func normalizeValue(rv reflect.Value) Result {
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Result{Kind: KindScalar, Text: strconv.FormatInt(rv.Int(), 10)}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return Result{Kind: KindScalar, Text: strconv.FormatUint(rv.Uint(), 10)}
	case reflect.Float32, reflect.Float64:
		return Result{Kind: KindScalar, Text: strconv.FormatFloat(rv.Float(), 'f', -1, 64)}
	case reflect.Bool:
		return Result{Kind: KindScalar, Text: strconv.FormatBool(rv.Bool())}
	case reflect.String:
		return Result{Kind: KindText, Text: rv.String()}
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return Result{Kind: KindEmpty}
		}
		if rv.Elem().Kind() == reflect.Struct {
			return structured(rv)
		}
		return Normalize(rv.Elem().Interface())
	case reflect.Map, reflect.Struct:
		if rv.Kind() == reflect.Map && rv.IsNil() {
			return Result{Kind: KindEmpty}
		}
		return structured(rv)
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return Result{Kind: KindEmpty}
		}
		kind := KindSequence
		parts := make([]string, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			el := Normalize(rv.Index(i).Interface())
			if el.Kind == KindUnrecognized {
				kind = KindUnrecognized
			}
			parts = append(parts, el.Text)
		}
		return Result{Kind: kind, Text: strings.Join(parts, "\n")}
	default:
		return unrecognized(rv)
	}
}

func structured(rv reflect.Value) Result {
	b, err := json.Marshal(rv.Interface())
	if err != nil {
		return unrecognized(rv)
	}
	return Result{Kind: KindStructured, Text: string(b)}
}

func unrecognized(rv reflect.Value) Result {
	return Result{Kind: KindUnrecognized, Text: fmt.Sprintf("[unrecognized tool result: %s]", rv.Type())}
}
