package notes

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agenthive/core"
	"github.com/hupe1980/agenthive/internal/testutil"
	"github.com/hupe1980/agenthive/tool"
)

func newDispatcher(t *testing.T) (*Toolset, *tool.Dispatcher) {
	t.Helper()
	ts := New()
	reg := tool.NewRegistry()
	require.NoError(t, reg.Register(ts))
	return ts, tool.NewDispatcher(reg)
}

func call(name string, args map[string]any) core.ToolCall {
	return core.ToolCall{ToolsetID: ToolsetID, Name: name, Arguments: args}
}

func TestNotes_Schemas(t *testing.T) {
	ts := New()
	require.NoError(t, tool.ValidateToolset(ts))

	names := []string{}
	for _, s := range ts.Schemas() {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"add_note", "get_notes", "delete_note"}, names)
	assert.Equal(t, "Notes Manager", ts.Describe().Name)
}

func TestNotes_AddListDelete(t *testing.T) {
	ctx := context.Background()
	ts, d := newDispatcher(t)
	caller := testutil.NewCaller("a1", "alpha")

	res := d.Dispatch(ctx, caller, call("get_notes", nil))
	assert.Equal(t, "Notes:\n    [No notes found]", res.Text)

	res = d.Dispatch(ctx, caller, call("add_note", map[string]any{"title": "plan", "content": "explore"}))
	assert.Equal(t, "Note plan added", res.Text)
	d.Dispatch(ctx, caller, call("add_note", map[string]any{"title": "todo", "content": "write"}))

	res = d.Dispatch(ctx, caller, call("get_notes", nil))
	assert.Equal(t, "Notes:\n    [1] plan\nexplore\n\n    [2] todo\nwrite\n\n", res.Text)

	res = d.Dispatch(ctx, caller, call("delete_note", map[string]any{"index": float64(1)}))
	assert.Equal(t, "Note 1 deleted", res.Text)
	assert.Equal(t, []Note{{Title: "todo", Content: "write"}}, ts.Notes("a1"))
}

func TestNotes_DeleteOutOfRange(t *testing.T) {
	_, d := newDispatcher(t)

	for _, index := range []float64{0, 1, -3} {
		res := d.Dispatch(context.Background(), testutil.NewCaller("a1", "alpha"), call("delete_note", map[string]any{"index": index}))
		assert.Equal(t, tool.KindError, res.Kind)
		assert.Contains(t, res.Text, "not found")
	}
}

func TestNotes_ValidationErrors(t *testing.T) {
	_, d := newDispatcher(t)
	caller := testutil.NewCaller("a1", "alpha")

	res := d.Dispatch(context.Background(), caller, call("add_note", map[string]any{"title": "only"}))
	assert.Equal(t, tool.KindError, res.Kind)
	assert.Contains(t, res.Text, "content")

	res = d.Dispatch(context.Background(), caller, call("delete_note", map[string]any{"index": "one"}))
	assert.Equal(t, tool.KindError, res.Kind)
}

func TestNotes_IsolatedPerAgent(t *testing.T) {
	ts, d := newDispatcher(t)
	ctx := context.Background()

	d.Dispatch(ctx, testutil.NewCaller("a1", "alpha"), call("add_note", map[string]any{"title": "mine", "content": "x"}))

	res := d.Dispatch(ctx, testutil.NewCaller("b2", "beta"), call("get_notes", nil))
	assert.Equal(t, "Notes:\n    [No notes found]", res.Text)
	assert.Len(t, ts.Notes("a1"), 1)
	assert.Empty(t, ts.Notes("b2"))
}
