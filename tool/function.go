package tool

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/agenthive/core"
	"github.com/hupe1980/agenthive/internal/util"
)

// Handler implements a single tool. Arguments have already been validated
// against the declared schema when the call arrives through a Dispatcher.
type Handler func(ctx context.Context, caller Caller, args map[string]any) (any, error)

// Spec pairs a tool schema with its implementation.
type Spec struct {
	Schema  core.ToolSchema
	Handler Handler
}

// FuncToolset is a Toolset built from a static table of Specs.
//
// Error Semantics:
//
//	*ToolError (returned by a handler) -> forwarded unchanged
//	unknown tool name                  -> *ToolError{Code: "UNKNOWN_TOOL"}
//	other error                        -> *ToolError{Code: "EXECUTION_ERROR"}
//
// A FuncToolset has no internal mutable state after construction; handlers
// that close over state must synchronize it themselves.
type FuncToolset struct {
	details core.ToolsetDetails
	specs   []Spec
	byName  map[string]Handler
}

// NewFuncToolset constructs a FuncToolset. Schemas with an empty ToolsetID
// inherit the toolset's id. The table is validated when registered.
func NewFuncToolset(details core.ToolsetDetails, specs ...Spec) *FuncToolset {
	ts := &FuncToolset{details: details, byName: make(map[string]Handler, len(specs))}
	for _, s := range specs {
		if s.Schema.ToolsetID == "" {
			s.Schema.ToolsetID = details.ToolsetID
		}
		ts.specs = append(ts.specs, s)
		ts.byName[s.Schema.Name] = s.Handler
	}
	return ts
}

// NewSpecFromStruct derives the argument list from a struct using reflection.
//
// Example:
//
//	type addNoteArgs struct {
//	  Note string `json:"note" description:"The note to remember"`
//	}
//
//	spec := NewSpecFromStruct("add_note", "Remember a note", addNoteArgs{}, addNote)
func NewSpecFromStruct(name, description string, structType any, h Handler) Spec {
	return Spec{
		Schema: core.ToolSchema{
			Name:        name,
			Description: description,
			Arguments:   util.ArgumentsFromStruct(structType),
		},
		Handler: h,
	}
}

// Describe implements Toolset.
func (t *FuncToolset) Describe() core.ToolsetDetails { return t.details }

// Schemas implements Toolset.
func (t *FuncToolset) Schemas() []core.ToolSchema {
	out := make([]core.ToolSchema, len(t.specs))
	for i, s := range t.specs {
		out[i] = s.Schema
	}
	return out
}

// Handle implements Toolset.
func (t *FuncToolset) Handle(ctx context.Context, caller Caller, call core.ToolCall) (any, error) {
	h, ok := t.byName[call.Name]
	if !ok || h == nil {
		return nil, NewToolError(call.Name, fmt.Sprintf("unknown tool %s in %s", call.Name, t.details.ToolsetID), CodeUnknownTool)
	}
	args := call.Arguments
	if args == nil {
		args = map[string]any{}
	}
	result, err := h(ctx, caller, args)
	if err != nil {
		var toolErr *ToolError
		if errors.As(err, &toolErr) {
			return nil, toolErr
		}
		return nil, &ToolError{Tool: call.Name, Message: err.Error(), Code: CodeExecution}
	}
	return result, nil
}

var _ Toolset = (*FuncToolset)(nil)
