// Package persona provides the persona toolset: a library of model-generated
// personas an agent can browse and adopt as its own.
package persona

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/hupe1980/agenthive/core"
	"github.com/hupe1980/agenthive/internal/util"
	"github.com/hupe1980/agenthive/logging"
	"github.com/hupe1980/agenthive/model"
	"github.com/hupe1980/agenthive/tool"
)

// ToolsetID is the id agents use to address the persona toolset.
const ToolsetID = "persona"

// Persona is a generated character description.
type Persona struct {
	Name        string   `json:"name" jsonschema_description:"The name of the persona."`
	Description string   `json:"description" jsonschema_description:"A description of the persona."`
	Goals       []string `json:"goals" jsonschema_description:"A list of goals for the persona."`
	Backstory   string   `json:"backstory" jsonschema_description:"A backstory for the persona."`
	Personality string   `json:"personality" jsonschema_description:"A personality for the persona."`
}

// String renders the persona the way get_persona reports it.
func (p Persona) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Persona %s:\n", p.Name)
	fmt.Fprintf(&b, "    Description: %s\n", p.Description)
	fmt.Fprintf(&b, "    Goals: %s\n", strings.Join(p.Goals, "; "))
	fmt.Fprintf(&b, "    Backstory: %s\n", p.Backstory)
	fmt.Fprintf(&b, "    Personality: %s\n", p.Personality)
	return b.String()
}

// Schema constrains create_persona model output.
var Schema = model.MustSchemaFor[Persona]("persona", "A persona with goals, backstory and personality")

const (
	noDescription = "[No Description Provided, please create a persona based on the name or, if no name is provided, create a random persona]"
	noName        = "[No Name Provided]"

	creationSystemPrompt = "You are a persona creation expert. You will be given a description of a persona and optional name and you will need to create a persona."

	creationUserTemplate = `Please create a persona based on the following description:
    Description: {{.Description}}
    Name: {{.Name}}

Respond in the following JSON format:
{{.Schema}}
`
)

type createArgs struct {
	Description string `json:"description,omitempty" description:"The description of the persona (optional)"`
	Name        string `json:"name,omitempty" description:"The name of the persona (optional)"`
}

type indexArgs struct {
	Index int `json:"index" description:"The index of the persona"`
}

// Options configures a Toolset.
type Options struct {
	Logger logging.Logger
}

// Toolset keeps a shared persona library and the current persona of each
// calling agent. Personas are addressed by their zero-based index in
// get_persona_list.
type Toolset struct {
	*tool.FuncToolset

	model  model.Model
	logger logging.Logger

	mu       sync.Mutex
	personas []Persona
	current  map[string]string // agent id -> persona name
}

// New creates a persona toolset that generates personas with m.
func New(m model.Model, optFns ...func(o *Options)) *Toolset {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}

	t := &Toolset{
		model:   m,
		logger:  logging.OrNoOp(opts.Logger),
		current: make(map[string]string),
	}
	t.FuncToolset = tool.NewFuncToolset(
		core.ToolsetDetails{ToolsetID: ToolsetID, Name: "Persona", Description: "Manage personas"},
		tool.NewSpecFromStruct("get_persona_list", "Get an indexed list of all personas", struct{}{}, t.list),
		tool.NewSpecFromStruct("create_persona", "Create a persona", createArgs{}, t.create),
		tool.NewSpecFromStruct("get_persona", "Get a persona by index", indexArgs{}, t.get),
		tool.NewSpecFromStruct("remove_persona", "Remove a persona by index", indexArgs{}, t.remove),
		tool.NewSpecFromStruct("get_current_persona", "Get the current persona", struct{}{}, t.getCurrent),
		tool.NewSpecFromStruct("set_current_persona", "Set the current persona", indexArgs{}, t.setCurrent),
	)
	return t
}

// Personas returns a copy of the library.
func (t *Toolset) Personas() []Persona {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Persona(nil), t.personas...)
}

// Add stores p, replacing any persona with the same name.
func (t *Toolset) Add(p Persona) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.personas {
		if t.personas[i].Name == p.Name {
			t.personas[i] = p
			return
		}
	}
	t.personas = append(t.personas, p)
}

func (t *Toolset) list(context.Context, tool.Caller, map[string]any) (any, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var b strings.Builder
	b.WriteString("Personas:\n")
	for i, p := range t.personas {
		fmt.Fprintf(&b, "%d: %s - %s\n", i, p.Name, p.Description)
	}
	return b.String(), nil
}

func (t *Toolset) create(ctx context.Context, caller tool.Caller, args map[string]any) (any, error) {
	if t.model == nil {
		return nil, fmt.Errorf("no model configured for persona creation")
	}
	description := tool.OptionalStringArg(args, "description", "")
	if description == "" {
		description = noDescription
	}
	name := tool.OptionalStringArg(args, "name", "")
	requested := name
	if name == "" {
		name = noName
	}

	user, err := util.RenderTemplate(creationUserTemplate, map[string]any{
		"Description": description,
		"Name":        name,
		"Schema":      Schema.JSON(),
	})
	if err != nil {
		return nil, err
	}

	schema := Schema
	raw, err := t.model.Generate(ctx, model.Request{
		Messages: []core.Message{core.SystemMessage(creationSystemPrompt), core.UserMessage(user)},
		Schema:   &schema,
	})
	if err != nil {
		return nil, fmt.Errorf("generate persona: %w", err)
	}
	p, err := model.Decode[Persona](raw, Schema)
	if err != nil {
		return nil, fmt.Errorf("generate persona: %w", err)
	}
	if requested != "" {
		p.Name = requested
	}
	if p.Name == "" {
		return nil, fmt.Errorf("generate persona: empty name")
	}

	t.Add(p)
	t.logger.Info("persona.created", "agent_id", caller.ID(), "persona", p.Name)
	return fmt.Sprintf("Persona %s created: \n%s", p.Name, p), nil
}

func (t *Toolset) get(_ context.Context, _ tool.Caller, args map[string]any) (any, error) {
	index, err := tool.IntArg(args, "index")
	if err != nil {
		return nil, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if index < 0 || index >= len(t.personas) {
		return notFound(index), nil
	}
	return t.personas[index].String(), nil
}

// remove deletes a persona. Agents that had adopted it keep the persona text
// already applied to them but no longer report a current persona.
func (t *Toolset) remove(_ context.Context, _ tool.Caller, args map[string]any) (any, error) {
	index, err := tool.IntArg(args, "index")
	if err != nil {
		return nil, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if index < 0 || index >= len(t.personas) {
		return notFound(index), nil
	}
	name := t.personas[index].Name
	t.personas = append(t.personas[:index:index], t.personas[index+1:]...)
	for agentID, current := range t.current {
		if current == name {
			delete(t.current, agentID)
		}
	}
	return fmt.Sprintf("Persona with index %d removed", index), nil
}

func (t *Toolset) getCurrent(_ context.Context, caller tool.Caller, _ map[string]any) (any, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if p, ok := t.lookupLocked(t.current[caller.ID()]); ok {
		return p.String(), nil
	}
	return "No current persona", nil
}

func (t *Toolset) setCurrent(_ context.Context, caller tool.Caller, args map[string]any) (any, error) {
	index, err := tool.IntArg(args, "index")
	if err != nil {
		return nil, err
	}
	t.mu.Lock()
	if index < 0 || index >= len(t.personas) {
		t.mu.Unlock()
		return notFound(index), nil
	}
	p := t.personas[index]
	t.current[caller.ID()] = p.Name
	t.mu.Unlock()

	caller.SetPersona(strings.TrimSpace(p.String()))
	return fmt.Sprintf("Current persona set to %s", p.Name), nil
}

func (t *Toolset) lookupLocked(name string) (Persona, bool) {
	if name == "" {
		return Persona{}, false
	}
	for _, p := range t.personas {
		if p.Name == name {
			return p, true
		}
	}
	return Persona{}, false
}

func notFound(index int) string { return fmt.Sprintf("Persona with index %d not found", index) }

var _ tool.Toolset = (*Toolset)(nil)
