// Package gollm adapts teilomillet/gollm to model.Model, giving access to the
// providers gollm supports (ollama, groq, mistral, openai, anthropic, ...)
// through one configuration surface. Structured output is requested by
// appending the schema to the system prompt.
package gollm

import (
	"context"
	"fmt"
	"strings"

	"github.com/teilomillet/gollm"

	"github.com/hupe1980/agenthive/core"
	"github.com/hupe1980/agenthive/model"
)

// Options configures the gollm adapter.
type Options struct {
	Provider    string
	Model       string
	APIKey      string
	MaxTokens   int
	Temperature float64
	// Extra passes additional gollm configuration through unchanged.
	Extra []gollm.ConfigOption
}

// Model wraps a gollm.LLM instance.
type Model struct {
	llm  gollm.LLM
	opts Options
}

// NewModel creates a gollm backed model. If APIKey is empty gollm reads it
// from the provider's usual environment variable.
func NewModel(optFns ...func(o *Options)) (*Model, error) {
	opts := Options{
		Provider:    "ollama",
		Model:       "llama3.1",
		MaxTokens:   4096,
		Temperature: 0.7,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	gollmOpts := []gollm.ConfigOption{
		gollm.SetProvider(opts.Provider),
		gollm.SetModel(opts.Model),
		gollm.SetMaxTokens(opts.MaxTokens),
		gollm.SetTemperature(opts.Temperature),
		gollm.SetMaxRetries(0),
		gollm.SetLogLevel(gollm.LogLevelWarn),
	}
	if opts.APIKey != "" {
		gollmOpts = append(gollmOpts, gollm.SetAPIKey(opts.APIKey))
	}
	gollmOpts = append(gollmOpts, opts.Extra...)

	llm, err := gollm.NewLLM(gollmOpts...)
	if err != nil {
		return nil, fmt.Errorf("create gollm LLM for provider %s: %w", opts.Provider, err)
	}
	return &Model{llm: llm, opts: opts}, nil
}

// NewModelFromLLM wraps an existing gollm.LLM instance.
func NewModelFromLLM(provider, name string, llm gollm.LLM) *Model {
	return &Model{llm: llm, opts: Options{Provider: provider, Model: name}}
}

// Generate implements model.Model.
func (m *Model) Generate(ctx context.Context, req model.Request) (string, error) {
	system, body := translate(req)

	var promptOpts []gollm.PromptOption
	if system != "" {
		promptOpts = append(promptOpts, gollm.WithSystemPrompt(system, gollm.CacheTypeEphemeral))
	}
	text, err := m.llm.Generate(ctx, gollm.NewPrompt(body, promptOpts...))
	if err != nil {
		return "", model.Wrap(m.provider(), model.KindUnknown, err)
	}
	if strings.TrimSpace(text) == "" {
		return "", &model.TransportError{Kind: model.KindMalformedResponse, Provider: m.provider(), Message: "empty completion"}
	}
	if req.Schema != nil {
		text = model.StripCodeFences(text)
	}
	return text, nil
}

// translate folds the transcript into a system prompt and a single prompt body.
func translate(req model.Request) (string, string) {
	var system []string
	var parts []string
	for _, msg := range req.Messages {
		role, text := model.FlattenMessage(msg)
		switch role {
		case core.RoleSystem:
			system = append(system, text)
		case core.RoleAssistant:
			if text != "" {
				parts = append(parts, "[Assistant]: "+text)
			}
		default:
			parts = append(parts, text)
		}
	}
	if instr := model.SchemaInstruction(req.Schema); instr != "" {
		system = append(system, instr)
	}
	body := strings.Join(parts, "\n")
	if body == "" {
		body = "Begin."
	}
	return strings.TrimSpace(strings.Join(system, "\n\n")), body
}

func (m *Model) provider() string { return "gollm:" + m.opts.Provider }

// Info returns metadata describing the wrapped provider.
func (m *Model) Info() model.Info {
	return model.Info{Name: m.opts.Model, Provider: m.provider()}
}

var _ model.Model = (*Model)(nil)
