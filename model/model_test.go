package model

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agenthive/core"
)

func TestMockModel_ScriptThenResponder(t *testing.T) {
	m := NewMockModel("scripted").Enqueue("one").EnqueueError(errors.New("boom"))
	m.Respond(func(req Request) (string, error) {
		return fmt.Sprintf("seen %d", len(req.Messages)), nil
	})

	req := Request{Messages: []core.Message{core.UserMessage("hi")}}
	out, err := m.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "one", out)

	_, err = m.Generate(context.Background(), req)
	assert.EqualError(t, err, "boom")

	out, err = m.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "seen 1", out)

	assert.Len(t, m.Requests(), 3)
	assert.Equal(t, Info{Name: "scripted", Provider: "mock"}, m.Info())
}

func TestMockModel_Exhausted(t *testing.T) {
	_, err := NewMockModel("empty").Generate(context.Background(), Request{})
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransportError, got %T", err)
	}
	assert.Equal(t, KindUnknown, te.Kind)
}

func TestMockModel_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewMockModel("m").Enqueue("x").Generate(ctx, Request{})
	assert.Equal(t, KindCanceled, KindOf(err))
}

func TestFromStatusCode(t *testing.T) {
	tests := []struct {
		status    int
		kind      Kind
		retryable bool
	}{
		{400, KindInvalidRequest, false},
		{401, KindAuth, false},
		{403, KindAuth, false},
		{408, KindTimeout, true},
		{422, KindInvalidRequest, false},
		{429, KindRateLimited, true},
		{500, KindServer, true},
		{503, KindServer, true},
		{302, KindUnknown, true},
	}
	for _, tt := range tests {
		err := FromStatusCode("openai", tt.status, "msg", nil)
		assert.Equal(t, tt.kind, err.Kind, "status %d", tt.status)
		assert.Equal(t, tt.retryable, IsRetryable(err), "status %d", tt.status)
		assert.Contains(t, err.Error(), fmt.Sprintf("status=%d", tt.status))
	}
}

func TestWrap(t *testing.T) {
	orig := &TransportError{Kind: KindAuth, Provider: "x"}
	assert.Same(t, orig, Wrap("y", KindNetwork, fmt.Errorf("wrapped: %w", orig)))
	assert.Equal(t, KindTimeout, Wrap("y", KindNetwork, context.DeadlineExceeded).Kind)
	assert.Equal(t, KindCanceled, Wrap("y", KindNetwork, context.Canceled).Kind)
	assert.Equal(t, KindNetwork, Wrap("y", KindNetwork, errors.New("dial tcp")).Kind)
	assert.False(t, IsRetryable(errors.New("plain")))
	assert.False(t, IsRetryable(&TransportError{Kind: KindCircuitOpen}))
}

func TestSchemaFor_ValidatesDecision(t *testing.T) {
	s, err := SchemaFor[core.Decision]("decision", "agent decision")
	require.NoError(t, err)
	assert.Equal(t, "object", s.Definition["type"])
	assert.NotContains(t, s.JSON(), "$schema")

	decode := func(raw string) any {
		var v any
		require.NoError(t, jsonUnmarshal(raw, &v))
		return v
	}

	valid := `{"thoughts":"look around","tool_calls":[{"toolset_id":"app_manager","name":"list_apps"}],"should_continue":true,"extra":1}`
	assert.NoError(t, s.Validate(decode(valid)))

	missing := `{"thoughts":"x","tool_calls":[]}`
	assert.Error(t, s.Validate(decode(missing)))

	wrongType := `{"thoughts":5,"tool_calls":[],"should_continue":true}`
	assert.Error(t, s.Validate(decode(wrongType)))

	calls := strings.Repeat(`{"toolset_id":"a","name":"b"},`, 6)
	tooMany := `{"thoughts":"x","tool_calls":[` + strings.TrimSuffix(calls, ",") + `],"should_continue":true}`
	assert.Error(t, s.Validate(decode(tooMany)))
}

func TestStripCodeFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, StripCodeFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripCodeFences("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripCodeFences("  {\"a\":1}  "))
}

func TestDecode(t *testing.T) {
	s := MustSchemaFor[core.PassSummary]("summary", "pass summary")
	valid := `{"thoughts":"t","actions_taken":["a"],"notes":[],"summary":"s","instructions_for_next_pass":"i"}`

	out, err := Decode[core.PassSummary]("```json\n"+valid+"\n```", s)
	require.NoError(t, err)
	assert.Equal(t, "s", out.Summary)
	assert.Equal(t, []string{"a"}, out.ActionsTaken)

	for name, raw := range map[string]string{
		"not json":      "hello",
		"missing field": `{"thoughts":"t"}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Decode[core.PassSummary](raw, s)
			var verr *core.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, raw, verr.Raw)
		})
	}
}

func TestFlattenMessage(t *testing.T) {
	role, text := FlattenMessage(core.ToolMessage("done"))
	assert.Equal(t, core.RoleUser, role)
	assert.Equal(t, "[Tool Result]: done", text)

	role, text = FlattenMessage(core.AssistantMessage("", core.ToolCall{ToolsetID: "a", Name: "b"}))
	assert.Equal(t, core.RoleAssistant, role)
	assert.Contains(t, text, `"toolset_id":"a"`)

	role, text = FlattenMessage(core.SystemMessage("rules"))
	assert.Equal(t, core.RoleSystem, role)
	assert.Equal(t, "rules", text)
}

func TestSchemaInstruction(t *testing.T) {
	assert.Empty(t, SchemaInstruction(nil))
	s := MustSchemaFor[core.PassSummary]("summary", "")
	assert.Contains(t, SchemaInstruction(&s), "instructions_for_next_pass")
}
