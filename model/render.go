package model

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/hupe1980/agenthive/core"
)

// Adapters that only speak plain chat (no tool-call ids) flatten the
// transcript with these helpers: assistant tool calls are rendered as JSON
// and tool results are replayed as user turns.

// FlattenMessage maps a message onto a plain chat role and text.
// Tool messages become user messages prefixed with "[Tool Result]".
func FlattenMessage(m core.Message) (core.Role, string) {
	switch m.Role {
	case core.RoleTool:
		return core.RoleUser, "[Tool Result]: " + m.Content
	case core.RoleAssistant:
		if len(m.ToolCalls) == 0 {
			return core.RoleAssistant, m.Content
		}
		calls, err := json.Marshal(m.ToolCalls)
		if err != nil {
			return core.RoleAssistant, m.Content
		}
		if m.Content == "" {
			return core.RoleAssistant, "[Tool Calls]: " + string(calls)
		}
		return core.RoleAssistant, m.Content + "\n[Tool Calls]: " + string(calls)
	default:
		return m.Role, m.Content
	}
}

// SchemaInstruction renders the JSON-only response instruction appended to
// the system prompt by adapters without native structured output.
func SchemaInstruction(s *Schema) string {
	if s == nil {
		return ""
	}
	return "Respond with a single JSON object and nothing else. It must conform to this JSON schema:\n" + s.JSON()
}

var codeFenceRe = regexp.MustCompile(`(?si)^` + "```" + `(?:json)?\s*(.*?)\s*` + "```" + `$`)

// StripCodeFences removes markdown code fences if the model wrapped its output.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if m := codeFenceRe.FindStringSubmatch(s); len(m) > 1 {
		return strings.TrimSpace(m[1])
	}
	return s
}

// Decode parses raw model output as T after checking it against schema.
// Markdown code fences around the JSON are tolerated. Failures are returned
// as *core.ValidationError carrying the raw text.
func Decode[T any](raw string, schema Schema) (T, error) {
	var out T
	text := StripCodeFences(raw)

	var generic any
	if err := json.Unmarshal([]byte(text), &generic); err != nil {
		return out, &core.ValidationError{Raw: raw, Cause: fmt.Errorf("decode json: %w", err)}
	}
	if err := schema.Validate(generic); err != nil {
		return out, &core.ValidationError{Raw: raw, Cause: err}
	}
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return out, &core.ValidationError{Raw: raw, Cause: err}
	}
	return out, nil
}
