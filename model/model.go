package model

import (
	"context"
	"sync"

	"github.com/hupe1980/agenthive/core"
)

// Request captures one structured generation request.
type Request struct {
	Messages []core.Message `json:"messages"`
	// Schema constrains the response to a single JSON object. Nil means free text.
	Schema *Schema `json:"schema,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "openai", "anthropic", "gollm", "mock"
}

// Model is the minimal interface the agent pass needs from a language model:
// messages plus an optional schema in, raw text or a *TransportError out.
// Implementations never retry; retry policy lives in Guard.
type Model interface {
	Generate(ctx context.Context, req Request) (string, error)

	// Info returns information about the model implementation.
	Info() Info
}

// MockStep is one scripted MockModel reply.
type MockStep struct {
	Text string
	Err  error
}

// MockModel is a lightweight in-memory Model useful for tests & examples.
// Replies are served from a FIFO script; when the script is exhausted the
// optional responder is used, otherwise an error is returned.
type MockModel struct {
	info Info

	mu        sync.Mutex
	script    []MockStep
	responder func(Request) (string, error)
	requests  []Request
}

// NewMockModel constructs an empty MockModel.
func NewMockModel(name string) *MockModel {
	return &MockModel{info: Info{Name: name, Provider: "mock"}}
}

// Enqueue appends successful replies to the script.
func (m *MockModel) Enqueue(texts ...string) *MockModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range texts {
		m.script = append(m.script, MockStep{Text: t})
	}
	return m
}

// EnqueueError appends a failing reply to the script.
func (m *MockModel) EnqueueError(err error) *MockModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, MockStep{Err: err})
	return m
}

// Respond installs a fallback used once the script is exhausted.
func (m *MockModel) Respond(fn func(Request) (string, error)) *MockModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responder = fn
	return m
}

// Requests returns copies of every request seen so far.
func (m *MockModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.requests))
	for i, r := range m.requests {
		out[i] = Request{Messages: core.CloneMessages(r.Messages), Schema: r.Schema}
	}
	return out
}

// Generate implements Model.
func (m *MockModel) Generate(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", FromContext(m.info.Provider, err)
	}

	m.mu.Lock()
	m.requests = append(m.requests, Request{Messages: core.CloneMessages(req.Messages), Schema: req.Schema})
	if len(m.script) > 0 {
		step := m.script[0]
		m.script = m.script[1:]
		m.mu.Unlock()
		return step.Text, step.Err
	}
	responder := m.responder
	m.mu.Unlock()

	if responder != nil {
		return responder(req)
	}
	return "", &TransportError{Kind: KindUnknown, Provider: m.info.Provider, Message: "mock script exhausted"}
}

// Info implements Model interface.
func (m *MockModel) Info() Info { return m.info }

var _ Model = (*MockModel)(nil)
