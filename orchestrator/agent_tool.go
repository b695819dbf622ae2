package orchestrator

import (
	"context"
	"fmt"

	"github.com/hupe1980/agenthive/core"
	"github.com/hupe1980/agenthive/tool"
)

// AgentToolID is the toolset id of the orchestrator-level agent tools.
const AgentToolID = "agent_tool"

// NewAgentTool constructs the agent_tool toolset that lets an agent rename
// itself and change its persona.
func NewAgentTool() *tool.FuncToolset {
	return tool.NewFuncToolset(
		core.ToolsetDetails{
			ToolsetID:   AgentToolID,
			Name:        "Agent Tool",
			Description: "Change your own name and persona.",
		},
		tool.Spec{
			Schema: core.ToolSchema{
				Name:        "set_name",
				Description: "Set your name",
				Arguments:   []core.ToolArgument{{Name: "name", Type: "str", Description: "your new name"}},
			},
			Handler: setName,
		},
		tool.Spec{
			Schema: core.ToolSchema{
				Name:        "set_persona",
				Description: "Set your persona",
				Arguments:   []core.ToolArgument{{Name: "persona", Type: "str", Description: "your new persona"}},
			},
			Handler: setPersona,
		},
	)
}

func setName(_ context.Context, caller tool.Caller, args map[string]any) (any, error) {
	name, err := tool.StringArg(args, "name")
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, fmt.Errorf("field 'name' must be non-empty string")
	}
	caller.SetName(name)
	return fmt.Sprintf("Name set to %s", name), nil
}

func setPersona(_ context.Context, caller tool.Caller, args map[string]any) (any, error) {
	persona, err := tool.StringArg(args, "persona")
	if err != nil {
		return nil, err
	}
	caller.SetPersona(persona)
	return fmt.Sprintf("Persona set to %s", persona), nil
}
