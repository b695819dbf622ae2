package core

import "time"

// MaxToolCallsPerPass bounds the number of tool calls a single decision may request.
const MaxToolCallsPerPass = 5

// Decision is the primary structured output of the model for a pass.
type Decision struct {
	Thoughts         string     `json:"thoughts" jsonschema_description:"Your reasoning about the current situation and what to do next"`
	FollowupThoughts string     `json:"followup_thoughts,omitempty" jsonschema_description:"Anything to keep in mind for after the tool calls complete"`
	ToolCalls        []ToolCall `json:"tool_calls" jsonschema:"maxItems=5" jsonschema_description:"Tool calls to execute this pass, at most five"`
	ShouldContinue   bool       `json:"should_continue" jsonschema_description:"False stops this agent permanently"`
}

// PassSummary is the structured summary produced at the end of each pass.
type PassSummary struct {
	Thoughts                string   `json:"thoughts" jsonschema_description:"Reflection on the pass that just finished"`
	ActionsTaken            []string `json:"actions_taken" jsonschema_description:"Short descriptions of the actions performed"`
	Notes                   []string `json:"notes" jsonschema_description:"Facts worth remembering across passes"`
	Summary                 string   `json:"summary" jsonschema_description:"Concise summary of the pass"`
	InstructionsForNextPass string   `json:"instructions_for_next_pass" jsonschema_description:"Guidance for the next pass"`
}

// PassRecord is everything observed during one completed pass.
type PassRecord struct {
	PassID          string      `json:"pass_id"`
	AgentID         string      `json:"agent_id"`
	PassNumber      int         `json:"pass_number"`
	Model           string      `json:"model,omitempty"`
	RunMessages     []Message   `json:"run_messages"`
	Decision        Decision    `json:"decision"`
	ToolResults     []Message   `json:"tool_results"`
	SummaryMessages []Message   `json:"summary_messages,omitempty"`
	Summary         PassSummary `json:"summary"`
	RunDate         time.Time   `json:"run_date"`
}

// Checkpoint is the persisted progress marker of an agent.
type Checkpoint struct {
	AgentID     string    `json:"agent_id"`
	AgentName   string    `json:"agent_name"`
	PassNumber  int       `json:"pass_number"`
	LastRunDate time.Time `json:"last_run_date"`
}

// Clone returns a deep copy of the record.
func (r PassRecord) Clone() PassRecord {
	r.RunMessages = CloneMessages(r.RunMessages)
	r.ToolResults = CloneMessages(r.ToolResults)
	r.SummaryMessages = CloneMessages(r.SummaryMessages)
	r.Decision.ToolCalls = CloneToolCalls(r.Decision.ToolCalls)
	r.Summary.ActionsTaken = append([]string(nil), r.Summary.ActionsTaken...)
	r.Summary.Notes = append([]string(nil), r.Summary.Notes...)
	return r
}
