package testutil

import (
	"encoding/json"

	"github.com/hupe1980/agenthive/core"
)

// DecisionBuilder provides a fluent helper for scripting decision output.
// Example:
//
//	raw := NewDecisionBuilder().Thoughts("look around").Call("notes", "get_notes", nil).JSON()
//
// Decisions continue by default; call Stop to end the agent.
type DecisionBuilder struct {
	d core.Decision
}

// NewDecisionBuilder creates a builder for a continuing decision with no calls.
func NewDecisionBuilder() *DecisionBuilder {
	return &DecisionBuilder{d: core.Decision{Thoughts: "thinking", ToolCalls: []core.ToolCall{}, ShouldContinue: true}}
}

// Thoughts sets the thoughts (chainable).
func (b *DecisionBuilder) Thoughts(t string) *DecisionBuilder { b.d.Thoughts = t; return b }

// Followup sets the followup thoughts (chainable).
func (b *DecisionBuilder) Followup(t string) *DecisionBuilder { b.d.FollowupThoughts = t; return b }

// Call appends a tool call (chainable).
func (b *DecisionBuilder) Call(toolsetID, name string, args map[string]any) *DecisionBuilder {
	b.d.ToolCalls = append(b.d.ToolCalls, core.ToolCall{ToolsetID: toolsetID, Name: name, Arguments: args})
	return b
}

// Stop sets should_continue to false (chainable).
func (b *DecisionBuilder) Stop() *DecisionBuilder { b.d.ShouldContinue = false; return b }

// Build returns the decision value.
func (b *DecisionBuilder) Build() core.Decision { return b.d }

// JSON renders the decision as the model would return it.
func (b *DecisionBuilder) JSON() string { return mustJSON(b.d) }

// SummaryBuilder provides a fluent helper for scripting summary output.
type SummaryBuilder struct {
	s core.PassSummary
}

// NewSummaryBuilder creates a builder with the given summary text.
func NewSummaryBuilder(summary string) *SummaryBuilder {
	return &SummaryBuilder{s: core.PassSummary{
		Thoughts:                "reflecting",
		ActionsTaken:            []string{},
		Notes:                   []string{},
		Summary:                 summary,
		InstructionsForNextPass: "carry on",
	}}
}

// Instructions sets the instructions for the next pass (chainable).
func (b *SummaryBuilder) Instructions(i string) *SummaryBuilder {
	b.s.InstructionsForNextPass = i
	return b
}

// Notes appends notes (chainable).
func (b *SummaryBuilder) Notes(n ...string) *SummaryBuilder { b.s.Notes = append(b.s.Notes, n...); return b }

// Actions appends actions taken (chainable).
func (b *SummaryBuilder) Actions(a ...string) *SummaryBuilder {
	b.s.ActionsTaken = append(b.s.ActionsTaken, a...)
	return b
}

// Build returns the summary value.
func (b *SummaryBuilder) Build() core.PassSummary { return b.s }

// JSON renders the summary as the model would return it.
func (b *SummaryBuilder) JSON() string { return mustJSON(b.s) }

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(b)
}
