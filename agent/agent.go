package agent

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"github.com/hupe1980/agenthive/core"
	"github.com/hupe1980/agenthive/tool"
)

// Options configures an Agent.
type Options struct {
	// BufferSize bounds the message buffer. Defaults to DefaultBufferSize.
	BufferSize int
	// InitialNotes seed the persistent notes.
	InitialNotes []string
	// StandingToolCalls run at the start of every pass; their results become
	// read-only context in the system prompt.
	StandingToolCalls []core.ToolCall
	// Persona is shown in the system prompt when set.
	Persona string
}

// Agent is one autonomous participant. It owns its message buffer, notes and
// pass history and advances through RunPass. Once stopped it never runs again.
//
// Accessors are safe for concurrent use; RunPass itself must not be called
// concurrently on the same agent.
type Agent struct {
	mu         sync.RWMutex
	id         string
	name       string
	persona    string
	running    bool
	passNumber int
	notes      []string
	standing   []core.ToolCall
	summaries  []core.PassSummary
	buffer     *MessageBuffer
}

// New creates a running agent. The id is derived from privateKey and is stable
// across restarts. The initial instructions become the first buffered message.
func New(name, privateKey, initialInstructions string, optFns ...func(o *Options)) *Agent {
	opts := Options{BufferSize: DefaultBufferSize}
	for _, fn := range optFns {
		fn(&opts)
	}

	a := &Agent{
		id:       IDFromPrivateKey(privateKey),
		name:     name,
		persona:  opts.Persona,
		running:  true,
		notes:    append([]string(nil), opts.InitialNotes...),
		standing: core.CloneToolCalls(opts.StandingToolCalls),
		buffer:   NewMessageBuffer(opts.BufferSize),
	}
	a.buffer.Add(core.UserMessage(initialInstructions))
	return a
}

// IDFromPrivateKey returns the hex encoded SHA-256 of key.
func IDFromPrivateKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// ID returns the stable agent id.
func (a *Agent) ID() string { return a.id }

// Name returns the display name.
func (a *Agent) Name() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.name
}

// SetName renames the agent.
func (a *Agent) SetName(name string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.name = name
}

// Persona returns the persona text.
func (a *Agent) Persona() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.persona
}

// SetPersona replaces the persona text.
func (a *Agent) SetPersona(persona string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.persona = persona
}

// Running reports whether the agent will take further passes.
func (a *Agent) Running() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.running
}

// Stop marks the agent as stopped. There is no way back.
func (a *Agent) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.running = false
}

// PassNumber is the count of completed passes.
func (a *Agent) PassNumber() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.passNumber
}

// Restore resumes the pass counter from a persisted checkpoint of this agent.
// Checkpoints of other agents, or older than the current state, are ignored.
func (a *Agent) Restore(cp core.Checkpoint) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if cp.AgentID != a.id || cp.PassNumber <= a.passNumber {
		return false
	}
	a.passNumber = cp.PassNumber
	return true
}

// Notes returns a copy of the persistent notes.
func (a *Agent) Notes() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]string(nil), a.notes...)
}

// StandingToolCalls returns a copy of the standing calls.
func (a *Agent) StandingToolCalls() []core.ToolCall {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return core.CloneToolCalls(a.standing)
}

// Summaries returns all pass summaries, oldest first.
func (a *Agent) Summaries() []core.PassSummary {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]core.PassSummary(nil), a.summaries...)
}

// LastSummary returns the most recent summary, or nil before the first pass.
func (a *Agent) LastSummary() *core.PassSummary {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if len(a.summaries) == 0 {
		return nil
	}
	s := a.summaries[len(a.summaries)-1]
	return &s
}

// Messages returns the buffered messages, oldest first.
func (a *Agent) Messages() []core.Message { return a.buffer.Messages() }

// BufferSize returns the buffer capacity.
func (a *Agent) BufferSize() int { return a.buffer.Size() }

// Checkpoint returns the persisted view of the agent.
func (a *Agent) Checkpoint() core.Checkpoint {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return core.Checkpoint{AgentID: a.id, AgentName: a.name, PassNumber: a.passNumber}
}

// complete applies the effects of a finished pass and returns the new pass number.
func (a *Agent) complete(summary core.PassSummary) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.passNumber++
	a.summaries = append(a.summaries, summary)
	for _, n := range summary.Notes {
		if n != "" {
			a.notes = append(a.notes, n)
		}
	}
	return a.passNumber
}

var _ tool.Caller = (*Agent)(nil)
