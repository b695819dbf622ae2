package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessageClone_IsolatesToolCalls(t *testing.T) {
	orig := AssistantMessage("", ToolCall{ToolsetID: "notes", Name: "add_note", Arguments: map[string]any{"note": "a"}})
	cp := orig.Clone()

	cp.ToolCalls[0].Arguments["note"] = "b"
	cp.ToolCalls[0].Name = "other"

	assert.Equal(t, "a", orig.ToolCalls[0].Arguments["note"])
	assert.Equal(t, "add_note", orig.ToolCalls[0].Name)
}

func TestCloneMessages_NilStaysNil(t *testing.T) {
	assert.Nil(t, CloneMessages(nil))
	assert.Len(t, CloneMessages([]Message{UserMessage("x")}), 1)
}

func TestMessageConstructors(t *testing.T) {
	tests := []struct {
		msg  Message
		role Role
	}{
		{SystemMessage("s"), RoleSystem},
		{UserMessage("u"), RoleUser},
		{AssistantMessage("a"), RoleAssistant},
		{ToolMessage("t"), RoleTool},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.role, tt.msg.Role)
	}
	assert.Nil(t, AssistantMessage("a").ToolCalls)
}

func TestValidationError_Unwrap(t *testing.T) {
	cause := errors.New("missing field")
	err := error(&ValidationError{Raw: "{}", Cause: cause})

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "missing field")

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	assert.Equal(t, "{}", vErr.Raw)
	assert.Equal(t, "invalid model output", (&ValidationError{}).Error())
}
