// Package openai provides an implementation of model.Model using the OpenAI
// Chat Completions API with json_schema structured output. Any endpoint that
// speaks the same protocol (for example a local Ollama /v1) can be targeted
// through the BaseURL option.
package openai

import (
	"context"
	"errors"
	"net/http"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/hupe1980/agenthive/core"
	"github.com/hupe1980/agenthive/model"
)

const provider = "openai"

// Options configure the OpenAI model adapter.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
	// BaseURL overrides the API endpoint.
	BaseURL string
	APIKey  string
	// HTTPClient overrides the transport used by the SDK.
	HTTPClient *http.Client
}

// Model wraps the OpenAI Chat Completions API behind the generic model.Model interface.
type Model struct {
	client *openai.Client
	opts   Options
}

// NewModel creates a new OpenAI model using the official client. SDK level
// retries are disabled; retry policy belongs to model.Guard.
func NewModel(optFns ...func(o *Options)) *Model {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	clientOpts := []option.RequestOption{option.WithMaxRetries(0)}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	if opts.HTTPClient != nil {
		clientOpts = append(clientOpts, option.WithHTTPClient(opts.HTTPClient))
	}
	client := openai.NewClient(clientOpts...)
	return &Model{client: &client, opts: opts}
}

// NewModelFromClient creates a new OpenAI model from an existing client.
func NewModelFromClient(client *openai.Client, optFns ...func(o *Options)) *Model {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Model{client: client, opts: opts}
}

func defaultOptions() Options {
	return Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 4096,
	}
}

// Generate implements model.Model.
func (m *Model) Generate(ctx context.Context, req model.Request) (string, error) {
	resp, err := m.client.Chat.Completions.New(ctx, m.buildParams(req))
	if err != nil {
		return "", translateError(err)
	}
	if len(resp.Choices) == 0 {
		return "", &model.TransportError{Kind: model.KindMalformedResponse, Provider: provider, Message: "no choices returned"}
	}
	content := resp.Choices[0].Message.Content
	if content == "" {
		return "", &model.TransportError{Kind: model.KindMalformedResponse, Provider: provider, Message: "empty completion"}
	}
	return content, nil
}

func (m *Model) buildParams(req model.Request) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Messages:            buildMessages(req.Messages),
		Model:               m.opts.Model,
		Temperature:         openai.Float(m.opts.Temperature),
		MaxCompletionTokens: openai.Int(m.opts.MaxCompletionTokens),
	}
	if req.Schema != nil {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:        req.Schema.Name,
					Description: openai.String(req.Schema.Description),
					Schema:      req.Schema.Definition,
					// Tool arguments are free-form objects, which strict mode rejects.
					Strict: openai.Bool(false),
				},
			},
		}
	}
	return params
}

// buildMessages converts the transcript into chat messages. Tool results are
// replayed as user turns because agent tool calls carry no provider call ids.
func buildMessages(msgs []core.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, msg := range msgs {
		role, text := model.FlattenMessage(msg)
		switch role {
		case core.RoleSystem:
			out = append(out, openai.SystemMessage(text))
		case core.RoleAssistant:
			out = append(out, openai.AssistantMessage(text))
		default:
			out = append(out, openai.UserMessage(text))
		}
	}
	return out
}

func translateError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return model.FromStatusCode(provider, apiErr.StatusCode, "", err)
	}
	return model.Wrap(provider, model.KindNetwork, err)
}

// Info returns metadata describing this OpenAI model implementation.
func (m *Model) Info() model.Info {
	return model.Info{Name: m.opts.Model, Provider: provider}
}

var _ model.Model = (*Model)(nil)
