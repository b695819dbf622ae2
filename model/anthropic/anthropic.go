// Package anthropic provides a model wrapper for the Anthropic Messages API.
// The response schema is appended to the system prompt as a JSON-only
// instruction and fenced replies are unwrapped before they are returned.
package anthropic

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/hupe1980/agenthive/core"
	"github.com/hupe1980/agenthive/model"
)

const provider = "anthropic"

// Options configures the Anthropic model adapter (temperature, model id,
// max tokens, API key). Extend via functional options to preserve stability.
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string
	BaseURL     string
	HTTPClient  *http.Client
}

// Model wraps the Anthropic Messages API behind the generic model.Model interface.
type Model struct {
	client *anthropic.Client
	opts   Options
}

// NewModel creates a new Anthropic model using the official client with SDK retries disabled.
func NewModel(optFns ...func(o *Options)) *Model {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	clientOpts := []option.RequestOption{option.WithMaxRetries(0)}
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.HTTPClient != nil {
		clientOpts = append(clientOpts, option.WithHTTPClient(opts.HTTPClient))
	}

	client := anthropic.NewClient(clientOpts...)

	return &Model{client: &client, opts: opts}
}

// NewModelFromClient creates a new Anthropic model from an existing client
func NewModelFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Model {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Model{client: client, opts: opts}
}

func defaultOptions() Options {
	return Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   4096,
	}
}

// Generate implements model.Model.
func (m *Model) Generate(ctx context.Context, req model.Request) (string, error) {
	params := anthropic.MessageNewParams{
		Model:       m.opts.Model,
		Messages:    buildMessages(req.Messages),
		MaxTokens:   m.opts.MaxTokens,
		Temperature: anthropic.Float(m.opts.Temperature),
	}
	if system := systemPrompt(req); system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	resp, err := m.client.Messages.New(ctx, params)
	if err != nil {
		return "", translateError(err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.AsText().Text)
		}
	}
	text := sb.String()
	if strings.TrimSpace(text) == "" {
		return "", &model.TransportError{Kind: model.KindMalformedResponse, Provider: provider, Message: "no text content returned"}
	}
	if req.Schema != nil {
		text = model.StripCodeFences(text)
	}
	return text, nil
}

func systemPrompt(req model.Request) string {
	var parts []string
	for _, msg := range req.Messages {
		if msg.Role == core.RoleSystem && msg.Content != "" {
			parts = append(parts, msg.Content)
		}
	}
	if instr := model.SchemaInstruction(req.Schema); instr != "" {
		parts = append(parts, instr)
	}
	return strings.Join(parts, "\n\n")
}

// buildMessages converts the transcript into alternating user/assistant turns.
// Consecutive turns of the same role are merged and a leading assistant turn
// is preceded by a placeholder user turn.
func buildMessages(msgs []core.Message) []anthropic.MessageParam {
	type turn struct {
		role core.Role
		text []string
	}
	var turns []turn
	for _, msg := range msgs {
		if msg.Role == core.RoleSystem {
			continue
		}
		role, text := model.FlattenMessage(msg)
		if text == "" {
			continue
		}
		if n := len(turns); n > 0 && turns[n-1].role == role {
			turns[n-1].text = append(turns[n-1].text, text)
			continue
		}
		turns = append(turns, turn{role: role, text: []string{text}})
	}
	if len(turns) == 0 || turns[0].role != core.RoleUser {
		turns = append([]turn{{role: core.RoleUser, text: []string{"Begin."}}}, turns...)
	}

	out := make([]anthropic.MessageParam, 0, len(turns))
	for _, t := range turns {
		block := anthropic.NewTextBlock(strings.Join(t.text, "\n\n"))
		if t.role == core.RoleAssistant {
			out = append(out, anthropic.NewAssistantMessage(block))
		} else {
			out = append(out, anthropic.NewUserMessage(block))
		}
	}
	return out
}

func translateError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return model.FromStatusCode(provider, apiErr.StatusCode, "", err)
	}
	return model.Wrap(provider, model.KindNetwork, err)
}

// Info returns metadata describing this Anthropic model implementation.
func (m *Model) Info() model.Info {
	return model.Info{Name: string(m.opts.Model), Provider: provider}
}

var _ model.Model = (*Model)(nil)
