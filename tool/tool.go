// Package tool implements the dispatch side of agent capabilities: the
// Toolset contract collaborators implement, a validated Registry of toolsets,
// result normalization into a closed set of kinds, and a Dispatcher that
// routes a single tool call with argument validation and panic isolation.
package tool

import (
	"context"
	"fmt"

	"github.com/hupe1980/agenthive/core"
	"github.com/hupe1980/agenthive/internal/util"
)

// Caller is the view of the calling agent handed to toolsets.
type Caller interface {
	ID() string
	Name() string
	SetName(name string)
	SetPersona(persona string)
}

// Toolset is a named bundle of tools an agent can load as an "app".
//
// Implementations should:
//   - Return a stable ToolsetID from Describe
//   - Declare every tool in Schemas with a matching ToolsetID
//   - Return plain Go values from Handle; the dispatcher normalizes them
//   - Be safe for concurrent use if shared between agents
type Toolset interface {
	Describe() core.ToolsetDetails
	Schemas() []core.ToolSchema
	Handle(ctx context.Context, caller Caller, call core.ToolCall) (any, error)
}

// ValidationError represents argument validation errors with detailed information.
type ValidationError = util.ValidationError

// Error codes carried by ToolError.
const (
	CodeValidation  = "VALIDATION_ERROR"
	CodeExecution   = "EXECUTION_ERROR"
	CodeUnknownTool = "UNKNOWN_TOOL"
)

// ToolError represents errors that occur during tool execution.
type ToolError struct {
	Tool    string `json:"tool"`              // Name of the tool that failed
	Message string `json:"message"`           // Error message
	Code    string `json:"code"`              // Error code for categorization
	Details any    `json:"details,omitempty"` // Additional error details
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// NewToolError creates a new ToolError with the specified details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{
		Tool:    tool,
		Message: message,
		Code:    code,
	}
}
