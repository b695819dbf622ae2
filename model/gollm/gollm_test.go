package gollm

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hupe1980/agenthive/core"
	"github.com/hupe1980/agenthive/model"
)

func TestTranslate(t *testing.T) {
	schema := model.MustSchemaFor[core.Decision]("decision", "")
	system, body := translate(model.Request{
		Messages: []core.Message{
			core.SystemMessage("you are a scout"),
			core.UserMessage("look around"),
			core.AssistantMessage("", core.ToolCall{ToolsetID: "app_manager", Name: "list_apps"}),
			core.ToolMessage("Available apps:"),
		},
		Schema: &schema,
	})

	assert.Contains(t, system, "you are a scout")
	assert.Contains(t, system, "should_continue")
	assert.Contains(t, body, "look around")
	assert.Contains(t, body, "[Assistant]: [Tool Calls]:")
	assert.Contains(t, body, "[Tool Result]: Available apps:")
}

func TestTranslate_EmptyBody(t *testing.T) {
	system, body := translate(model.Request{Messages: []core.Message{core.SystemMessage("s")}})
	assert.Equal(t, "s", system)
	assert.Equal(t, "Begin.", body)
}

func TestInfo(t *testing.T) {
	m := NewModelFromLLM("groq", "llama", nil)
	assert.Equal(t, model.Info{Name: "llama", Provider: "gollm:groq"}, m.Info())
}
