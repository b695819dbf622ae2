package core

import (
	"fmt"
	"strings"
)

// ToolCall is a request to invoke one tool of one toolset.
type ToolCall struct {
	ToolsetID string         `json:"toolset_id" jsonschema_description:"Identifier of the app (toolset) that owns the tool"`
	Name      string         `json:"name" jsonschema_description:"Name of the tool to call"`
	Arguments map[string]any `json:"arguments,omitempty" jsonschema_description:"Arguments keyed by argument name"`
}

// Clone returns a copy of the call with its own argument map.
func (c ToolCall) Clone() ToolCall {
	if c.Arguments != nil {
		args := make(map[string]any, len(c.Arguments))
		for k, v := range c.Arguments {
			args[k] = v
		}
		c.Arguments = args
	}
	return c
}

// CloneToolCalls copies a slice of calls. A nil input yields nil.
func CloneToolCalls(calls []ToolCall) []ToolCall {
	if calls == nil {
		return nil
	}
	out := make([]ToolCall, len(calls))
	for i, c := range calls {
		out[i] = c.Clone()
	}
	return out
}

// ToolArgument describes a single declared tool argument.
// Type accepts str, int, float, bool, list, dict (or their JSON schema
// spellings) and "any".
type ToolArgument struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Optional    bool   `json:"optional,omitempty"`
}

// ToolSchema is the model-facing description of a tool.
type ToolSchema struct {
	ToolsetID   string         `json:"toolset_id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Arguments   []ToolArgument `json:"arguments"`
}

// ToolsetDetails identifies a toolset (an "app" from the agent's point of view).
type ToolsetDetails struct {
	ToolsetID   string `json:"toolset_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// String renders the schema on one line, the form used in prompts and app listings.
func (s ToolSchema) String() string {
	args := make([]string, len(s.Arguments))
	for i, a := range s.Arguments {
		arg := fmt.Sprintf("%s (%s)", a.Name, a.Type)
		if a.Optional {
			arg += " optional"
		}
		if a.Description != "" {
			arg += ": " + a.Description
		}
		args[i] = arg
	}
	return fmt.Sprintf("toolset_id='%s' name='%s' description='%s' arguments=[%s]", s.ToolsetID, s.Name, s.Description, strings.Join(args, "; "))
}
