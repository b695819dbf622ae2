package core

// Role identifies the author of a Message.
type Role string

const (
	// RoleSystem marks the instruction message heading every prompt.
	RoleSystem Role = "system"
	// RoleUser marks user or orchestrator supplied text.
	RoleUser Role = "user"
	// RoleAssistant marks model output.
	RoleAssistant Role = "assistant"
	// RoleTool marks the normalized result of a tool call.
	RoleTool Role = "tool"
)

// Message is a single chat entry. Messages are values; buffers and records
// hold copies so later mutation by a caller never leaks into history.
type Message struct {
	Role      Role       `json:"role"`
	Content   string     `json:"content"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

// SystemMessage builds a system message.
func SystemMessage(content string) Message { return Message{Role: RoleSystem, Content: content} }

// UserMessage builds a user message.
func UserMessage(content string) Message { return Message{Role: RoleUser, Content: content} }

// AssistantMessage builds an assistant message carrying optional tool calls.
func AssistantMessage(content string, calls ...ToolCall) Message {
	return Message{Role: RoleAssistant, Content: content, ToolCalls: CloneToolCalls(calls)}
}

// ToolMessage builds a tool result message.
func ToolMessage(content string) Message { return Message{Role: RoleTool, Content: content} }

// Clone returns a deep copy of the message.
func (m Message) Clone() Message {
	m.ToolCalls = CloneToolCalls(m.ToolCalls)
	return m
}

// CloneMessages deep copies a message slice. A nil input yields nil.
func CloneMessages(msgs []Message) []Message {
	if msgs == nil {
		return nil
	}
	out := make([]Message, len(msgs))
	for i, m := range msgs {
		out[i] = m.Clone()
	}
	return out
}
