package prompt

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agenthive/core"
)

func fixedClock() Clock {
	return func() time.Time { return time.Date(2024, 5, 1, 13, 45, 0, 0, time.Local) }
}

func buffer(n int) []core.Message {
	msgs := make([]core.Message, n)
	for i := range msgs {
		msgs[i] = core.UserMessage(fmt.Sprintf("m%d", i+1))
	}
	return msgs
}

// -------------------- Assemble Tests --------------------

func TestAssemble_Order(t *testing.T) {
	msgs := Assemble(Input{
		AgentName:       "alice",
		StandingContext: "inbox: 2 unread",
		Capabilities: []core.ToolSchema{
			{ToolsetID: "app_manager", Name: "list_apps", Description: "lists apps"},
		},
		PostSystem:  []core.Message{core.ToolMessage("world state")},
		Buffer:      buffer(5),
		BufferSize:  3,
		LastSummary: &core.PassSummary{Summary: "did things", InstructionsForNextPass: "do more"},
		Clock:       fixedClock(),
	})

	require.Len(t, msgs, 6)
	assert.Equal(t, core.RoleSystem, msgs[0].Role)
	assert.Equal(t, core.ToolMessage("world state"), msgs[1])
	assert.Equal(t, []string{"m3", "m4", "m5"}, []string{msgs[2].Content, msgs[3].Content, msgs[4].Content})
	assert.Equal(t, core.UserMessage("Summary of the last pass: did things\n\nInstructions: do more"), msgs[5])
}

func TestAssemble_SystemPrompt(t *testing.T) {
	msgs := Assemble(Input{
		AgentName:       "alice",
		Persona:         "A careful librarian.",
		StandingContext: "inbox: 2 unread",
		Capabilities: []core.ToolSchema{
			{ToolsetID: "notes", Name: "add_note", Description: "adds a note", Arguments: []core.ToolArgument{{Name: "note", Type: "str"}}},
		},
		Clock: fixedClock(),
	})

	require.Len(t, msgs, 1)
	system := msgs[0].Content
	assert.Contains(t, system, `You are "alice"`)
	assert.Contains(t, system, "Persona:\nA careful librarian.\n")
	assert.Contains(t, system, "Context:\ninbox: 2 unread\n")
	assert.Contains(t, system, "* Current local time: 2024-05-01 13:45:00")
	assert.Contains(t, system, "up to 5 tools in one pass")
	assert.Contains(t, system, "- toolset_id='notes' name='add_note'")
	assert.Contains(t, system, DecisionSchema.JSON())

	// identity -> context -> time -> capabilities -> schema
	idx := func(s string) int { return strings.Index(system, s) }
	assert.Less(t, idx("Context:"), idx("Current local time"))
	assert.Less(t, idx("Current local time"), idx("Available tools:"))
	assert.Less(t, idx("Available tools:"), idx("JSON format"))
}

func TestAssemble_NoSummaryOnFirstPass(t *testing.T) {
	msgs := Assemble(Input{AgentName: "bob", Buffer: []core.Message{core.UserMessage("start")}, Clock: fixedClock()})
	require.Len(t, msgs, 2)
	assert.Equal(t, "start", msgs[1].Content)
	assert.NotContains(t, msgs[0].Content, "Persona:")
}

func TestAssemble_CopiesBuffer(t *testing.T) {
	buf := []core.Message{core.AssistantMessage("", core.ToolCall{ToolsetID: "x", Name: "y", Arguments: map[string]any{"k": "v"}})}
	msgs := Assemble(Input{Buffer: buf, Clock: fixedClock()})

	msgs[1].ToolCalls[0].Arguments["k"] = "changed"
	assert.Equal(t, "v", buf[0].ToolCalls[0].Arguments["k"])
}

func TestRenderCapabilities(t *testing.T) {
	assert.Equal(t, "(none)", RenderCapabilities(nil))

	out := RenderCapabilities([]core.ToolSchema{
		{ToolsetID: "a", Name: "one"},
		{ToolsetID: "b", Name: "two", Arguments: []core.ToolArgument{{Name: "x", Type: "int", Optional: true}}},
	})
	assert.Equal(t, "- toolset_id='a' name='one' description='' arguments=[]\n- toolset_id='b' name='two' description='' arguments=[x (int) optional]", out)
}

// -------------------- AssembleSummary Tests --------------------

func TestAssembleSummary(t *testing.T) {
	history := []core.PassSummary{{Summary: "s1"}, {Summary: "s2"}, {Summary: "s3"}, {Summary: "s4"}}
	msgs := AssembleSummary(SummaryInput{
		StandingContext: "ctx",
		PostSystem:      []core.Message{core.ToolMessage("post")},
		Buffer:          buffer(4),
		BufferSize:      2,
		History:         history,
		Decision:        core.Decision{Thoughts: "thinking", FollowupThoughts: "later"},
	})

	require.Len(t, msgs, 5)
	assert.Equal(t, core.RoleSystem, msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "Agent Context:\nctx\n")
	assert.Equal(t, "post", msgs[1].Content)
	assert.Equal(t, "m3", msgs[2].Content)
	assert.Equal(t, "m4", msgs[3].Content)

	user := msgs[4]
	assert.Equal(t, core.RoleUser, user.Role)
	assert.NotContains(t, user.Content, "s1")
	assert.Contains(t, user.Content, "    s2\n    s3\n    s4\n")
	assert.Contains(t, user.Content, "        thinking\n        later")
	assert.Contains(t, user.Content, SummarySchema.JSON())
}

func TestAssembleSummary_NoHistory(t *testing.T) {
	msgs := AssembleSummary(SummaryInput{Decision: core.Decision{Thoughts: "t"}})
	require.Len(t, msgs, 2)
	assert.NotContains(t, msgs[1].Content, "Last Pass Summary")
}

// -------------------- Schema Tests --------------------

func TestSchemas(t *testing.T) {
	var decision any
	require.NoError(t, json.Unmarshal([]byte(`{"thoughts":"t","tool_calls":[],"should_continue":true}`), &decision))
	assert.NoError(t, DecisionSchema.Validate(decision))

	var tooMany any
	calls := strings.Repeat(`{"toolset_id":"a","name":"b"},`, 6)
	require.NoError(t, json.Unmarshal([]byte(`{"thoughts":"t","should_continue":true,"tool_calls":[`+strings.TrimSuffix(calls, ",")+`]}`), &tooMany))
	assert.Error(t, DecisionSchema.Validate(tooMany))

	var summary any
	require.NoError(t, json.Unmarshal([]byte(`{"thoughts":"t","actions_taken":[],"notes":[],"summary":"s","instructions_for_next_pass":"i"}`), &summary))
	assert.NoError(t, SummarySchema.Validate(summary))
}
