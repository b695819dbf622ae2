package testutil

import (
	"context"
	"sync"

	"github.com/hupe1980/agenthive/core"
	"github.com/hupe1980/agenthive/tool"
)

// ToolsetBuilder helps construct recording toolsets for tests.
// Example:
//
//	ts := NewToolsetBuilder("clock").Returns("now", "noon").Panics("explode", "boom").Build()
type ToolsetBuilder struct {
	details core.ToolsetDetails
	specs   []tool.Spec
}

// NewToolsetBuilder creates a builder for a toolset with the given id.
func NewToolsetBuilder(id string) *ToolsetBuilder {
	return &ToolsetBuilder{details: core.ToolsetDetails{ToolsetID: id, Name: id, Description: "test toolset " + id}}
}

// Name sets the display name (chainable).
func (b *ToolsetBuilder) Name(n string) *ToolsetBuilder { b.details.Name = n; return b }

// Tool adds a tool with a custom handler (chainable).
func (b *ToolsetBuilder) Tool(name string, args []core.ToolArgument, h tool.Handler) *ToolsetBuilder {
	b.specs = append(b.specs, tool.Spec{
		Schema:  core.ToolSchema{Name: name, Description: "test tool " + name, Arguments: args},
		Handler: h,
	})
	return b
}

// Returns adds a tool that always returns v (chainable).
func (b *ToolsetBuilder) Returns(name string, v any) *ToolsetBuilder {
	return b.Tool(name, nil, func(context.Context, tool.Caller, map[string]any) (any, error) { return v, nil })
}

// Fails adds a tool that always returns err (chainable).
func (b *ToolsetBuilder) Fails(name string, err error) *ToolsetBuilder {
	return b.Tool(name, nil, func(context.Context, tool.Caller, map[string]any) (any, error) { return nil, err })
}

// Panics adds a tool that panics with v (chainable).
func (b *ToolsetBuilder) Panics(name string, v any) *ToolsetBuilder {
	return b.Tool(name, nil, func(context.Context, tool.Caller, map[string]any) (any, error) { panic(v) })
}

// Build constructs the recording toolset.
func (b *ToolsetBuilder) Build() *RecordingToolset {
	return &RecordingToolset{FuncToolset: tool.NewFuncToolset(b.details, b.specs...)}
}

// RecordingToolset is a FuncToolset that remembers every call it handled.
type RecordingToolset struct {
	*tool.FuncToolset
	mu    sync.Mutex
	calls []Call
}

// Call is one recorded invocation.
type Call struct {
	CallerID string
	Call     core.ToolCall
}

// Handle records the call and delegates.
func (r *RecordingToolset) Handle(ctx context.Context, caller tool.Caller, call core.ToolCall) (any, error) {
	r.mu.Lock()
	r.calls = append(r.calls, Call{CallerID: caller.ID(), Call: call.Clone()})
	r.mu.Unlock()
	return r.FuncToolset.Handle(ctx, caller, call)
}

// Calls returns the recorded calls in order.
func (r *RecordingToolset) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

var _ tool.Toolset = (*RecordingToolset)(nil)
