package prompt

import (
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/agenthive/core"
	"github.com/hupe1980/agenthive/internal/util"
	"github.com/hupe1980/agenthive/model"
)

// TimeLayout formats the current local time in the system prompt.
const TimeLayout = "2006-01-02 15:04:05"

// SummaryHistory is how many earlier pass summaries the summary prompt shows.
const SummaryHistory = 3

// Decision and summary schemas sent with every pass.
var (
	DecisionSchema = model.MustSchemaFor[core.Decision]("agent_decision", "The next actions of the agent")
	SummarySchema  = model.MustSchemaFor[core.PassSummary]("pass_summary", "Summary of the pass that just finished")
)

// Clock returns the current time.
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c()
}

const systemTemplate = `You are {{.Identity}}, an advanced synthetic being. You are in an internal monologue loop, you can only interact with the world through the available apps.
{{- if .Persona}}
Persona:
{{.Persona}}
{{- end}}
Context:
{{.Context}}
* Current local time: {{.Now}}
* Only tools from loaded apps can be called.
* You can only call up to {{.MaxToolCalls}} tools in one pass.
* If a tool call fails, ensure you have the appropriate tools to fix the issue.

Available tools:
{{.Capabilities}}

You must respond in the following JSON format:
{{.Schema}}
`

const summarySystemTemplate = `your task is to list the actions taken, list any notes to save for later and summarize what happened in the most recent pass of the agent, then you need to write an instruction for the next pass of the agent.

Agent Context:
{{.Context}}

What follows is the tool calls and results from the latest pass of the agent.
`

const summaryUserTemplate = `Given the following recent agent pass output, and all available context, summarize the pass in the following JSON format:
{{- if .History}}
Last Pass Summary:
{{range .History}}    {{.}}
{{end}}
{{- end}}

Most Recent Pass Output:
    Thoughts:
{{indent "        " .Thoughts}}

* If a tool call failed, ensure the agent has the appropriate tools to fix the issue. That they have loaded the appropriate apps.

You must respond in the following JSON format:
{{.Schema}}
`

// Input is everything the decision prompt is built from.
type Input struct {
	AgentName       string
	Persona         string
	StandingContext string
	Capabilities    []core.ToolSchema
	PostSystem      []core.Message
	Buffer          []core.Message
	// BufferSize caps how many buffered messages are included. 0 includes all.
	BufferSize  int
	LastSummary *core.PassSummary
	Clock       Clock
}

// Assemble builds the decision prompt.
func Assemble(in Input) []core.Message {
	system := util.MustRenderTemplate(systemTemplate, map[string]any{
		"Identity":     identity(in.AgentName),
		"Persona":      strings.TrimSpace(in.Persona),
		"Context":      in.StandingContext,
		"Now":          in.Clock.now().Format(TimeLayout),
		"MaxToolCalls": core.MaxToolCallsPerPass,
		"Capabilities": RenderCapabilities(in.Capabilities),
		"Schema":       DecisionSchema.JSON(),
	})

	msgs := make([]core.Message, 0, 2+len(in.PostSystem)+len(in.Buffer))
	msgs = append(msgs, core.SystemMessage(system))
	msgs = append(msgs, core.CloneMessages(in.PostSystem)...)
	msgs = append(msgs, core.CloneMessages(tail(in.Buffer, in.BufferSize))...)
	if in.LastSummary != nil {
		msgs = append(msgs, core.UserMessage(Continuation(*in.LastSummary)))
	}
	return msgs
}

// Continuation renders the user message that carries a pass summary into the next pass.
func Continuation(s core.PassSummary) string {
	return "Summary of the last pass: " + s.Summary + "\n\nInstructions: " + s.InstructionsForNextPass
}

// SummaryInput is everything the summary prompt is built from.
type SummaryInput struct {
	StandingContext string
	PostSystem      []core.Message
	Buffer          []core.Message
	BufferSize      int
	// History holds all earlier summaries; only the last few are shown.
	History  []core.PassSummary
	Decision core.Decision
}

// AssembleSummary builds the prompt for the end-of-pass summary call.
func AssembleSummary(in SummaryInput) []core.Message {
	history := make([]string, 0, SummaryHistory)
	for _, s := range tail(in.History, SummaryHistory) {
		history = append(history, s.Summary)
	}

	thoughts := in.Decision.Thoughts
	if in.Decision.FollowupThoughts != "" {
		thoughts += "\n" + in.Decision.FollowupThoughts
	}

	system := util.MustRenderTemplate(summarySystemTemplate, map[string]any{
		"Context": in.StandingContext,
	})
	user := util.MustRenderTemplate(summaryUserTemplate, map[string]any{
		"History":  history,
		"Thoughts": thoughts,
		"Schema":   SummarySchema.JSON(),
	})

	msgs := make([]core.Message, 0, 2+len(in.PostSystem)+len(in.Buffer))
	msgs = append(msgs, core.SystemMessage(system))
	msgs = append(msgs, core.CloneMessages(in.PostSystem)...)
	msgs = append(msgs, core.CloneMessages(tail(in.Buffer, in.BufferSize))...)
	msgs = append(msgs, core.UserMessage(user))
	return msgs
}

// RenderCapabilities renders the visible tools, one per line.
func RenderCapabilities(schemas []core.ToolSchema) string {
	if len(schemas) == 0 {
		return "(none)"
	}
	lines := make([]string, len(schemas))
	for i, s := range schemas {
		lines[i] = "- " + s.String()
	}
	return strings.Join(lines, "\n")
}

func identity(name string) string {
	if name == "" {
		return "an unnamed agent"
	}
	return fmt.Sprintf("%q", name)
}

func tail[T any](s []T, n int) []T {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
