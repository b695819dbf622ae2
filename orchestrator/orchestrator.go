package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hupe1980/agenthive/agent"
	"github.com/hupe1980/agenthive/core"
	"github.com/hupe1980/agenthive/logging"
	"github.com/hupe1980/agenthive/observability"
)

// ErrDuplicateAgent is returned when an agent id is registered twice.
var ErrDuplicateAgent = errors.New("agent already registered")

// Metrics receives sweep level measurements.
type Metrics interface {
	ObserveSweep(dur time.Duration)
	SetAgentsRunning(n int)
}

// Options configures an Orchestrator.
type Options struct {
	// MaxSweeps bounds a Run. 0 means unbounded.
	MaxSweeps int
	// PostSystemToolCalls are dispatched for each agent before its pass; the
	// results are injected right after the system message.
	PostSystemToolCalls []core.ToolCall
	// Logger defaults to a NoOpLogger.
	Logger logging.Logger
	// Metrics is optional.
	Metrics Metrics
}

// Status counts agents by state.
type Status struct {
	Running int `json:"running"`
	Stopped int `json:"stopped"`
}

type member struct {
	agent *agent.Agent
	actx  *agent.AgentContext
}

// Orchestrator schedules agent passes. Registration and queries are safe for
// concurrent use; Run must not be called concurrently with itself.
type Orchestrator struct {
	opts   Options
	logger logging.Logger

	mu      sync.RWMutex
	members []member
	byID    map[string]struct{}

	started atomic.Bool
	sweeps  atomic.Int64
}

// New creates a started orchestrator with no agents.
func New(optFns ...func(o *Options)) *Orchestrator {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}

	o := &Orchestrator{
		opts:   opts,
		logger: logging.OrNoOp(opts.Logger),
		byID:   make(map[string]struct{}),
	}
	if hl, ok := opts.Logger.(*logging.HiveLogger); ok {
		o.logger = hl.WithComponent("orchestrator")
	}
	o.opts.PostSystemToolCalls = core.CloneToolCalls(opts.PostSystemToolCalls)
	o.started.Store(true)
	return o
}

// AddAgent registers an agent with its collaborators. Agents run in the order
// they were added.
func (o *Orchestrator) AddAgent(a *agent.Agent, actx *agent.AgentContext) error {
	if a == nil || actx == nil {
		return errors.New("agent and agent context are required")
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, dup := o.byID[a.ID()]; dup {
		return fmt.Errorf("%w: %s", ErrDuplicateAgent, a.ID())
	}
	o.byID[a.ID()] = struct{}{}
	o.members = append(o.members, member{agent: a, actx: actx})
	return nil
}

// Run sweeps the agents until all have stopped, Stop is called, ctx is done,
// or MaxSweeps sweeps completed. It returns ctx.Err() on cancellation and nil
// otherwise.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.logger.Info("orchestrator.run.start", "agents", o.AgentCount(), "max_sweeps", o.opts.MaxSweeps)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !o.Started() {
			o.logger.Info("orchestrator.run.stopped", "sweeps", o.Sweeps())
			return nil
		}
		if o.RunningAgentCount() == 0 {
			o.logger.Info("orchestrator.run.halted", "sweeps", o.Sweeps())
			return nil
		}
		if o.opts.MaxSweeps > 0 && o.Sweeps() >= int64(o.opts.MaxSweeps) {
			o.logger.Info("orchestrator.run.max_sweeps", "sweeps", o.Sweeps())
			return nil
		}

		// a sweep cut short by Stop is reported at the loop head
		if err := o.sweep(ctx); err != nil {
			return err
		}
	}
}

// sweep runs one pass for each running agent. An interrupted sweep is not counted.
func (o *Orchestrator) sweep(ctx context.Context) error {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, "orchestrator.sweep")

	for _, m := range o.snapshot() {
		if err := ctx.Err(); err != nil {
			observability.EndSpan(span, err)
			return err
		}
		if !o.Started() {
			observability.EndSpan(span, nil)
			return nil
		}
		if !m.agent.Running() {
			continue
		}

		in := agent.PassInput{PostSystem: o.postSystemMessages(ctx, m)}
		if err := o.runPass(ctx, m, in); err != nil {
			o.reportFailure(m, err)
		}
		o.setRunningGauge()
	}

	n := o.sweeps.Add(1)
	dur := time.Since(start)
	if o.opts.Metrics != nil {
		o.opts.Metrics.ObserveSweep(dur)
	}
	status := o.Status()
	o.logger.Debug("orchestrator.sweep.completed", "sweep", n, "running", status.Running, "stopped", status.Stopped, "duration_ms", dur.Milliseconds())
	observability.EndSpan(span, nil)
	return nil
}

// runPass isolates the sweep from a panicking pass.
func (o *Orchestrator) runPass(ctx context.Context, m member, in agent.PassInput) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
			o.logger.Error("agent.pass.panic", "agent_id", m.agent.ID(), "panic", r, "stack", string(debug.Stack()))
		}
	}()
	_, err = m.agent.RunPass(ctx, m.actx, in)
	return err
}

func (o *Orchestrator) postSystemMessages(ctx context.Context, m member) []core.Message {
	if len(o.opts.PostSystemToolCalls) == 0 || m.actx.Dispatcher == nil {
		return nil
	}
	msgs := make([]core.Message, 0, len(o.opts.PostSystemToolCalls))
	for _, call := range o.opts.PostSystemToolCalls {
		msgs = append(msgs, m.actx.Dispatcher.Dispatch(ctx, m.agent, call).Message())
	}
	return msgs
}

func (o *Orchestrator) reportFailure(m member, err error) {
	args := []any{"agent_id", m.agent.ID(), "agent_name", m.agent.Name(), "error", err}

	var pe *agent.PassError
	if errors.As(err, &pe) {
		args = append(args, "pass_number", pe.PassNumber, "stage", string(pe.Stage))
	} else {
		args = append(args, "pass_number", m.agent.PassNumber()+1)
	}
	var ve *core.ValidationError
	if errors.As(err, &ve) {
		args = append(args, "raw", ve.Raw)
	}
	o.logger.Error("agent.pass.failed", args...)
}

func (o *Orchestrator) setRunningGauge() {
	if o.opts.Metrics != nil {
		o.opts.Metrics.SetAgentsRunning(o.RunningAgentCount())
	}
}

func (o *Orchestrator) snapshot() []member {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return append([]member(nil), o.members...)
}

// Stop flips the kill switch. The current pass finishes first.
func (o *Orchestrator) Stop() { o.started.Store(false) }

// Start re-arms the kill switch so a later Run proceeds.
func (o *Orchestrator) Start() { o.started.Store(true) }

// Started reports the kill switch state.
func (o *Orchestrator) Started() bool { return o.started.Load() }

// Sweeps returns the number of completed sweeps.
func (o *Orchestrator) Sweeps() int64 { return o.sweeps.Load() }

// Agents returns agent names in registration order.
func (o *Orchestrator) Agents() []string {
	members := o.snapshot()
	names := make([]string, len(members))
	for i, m := range members {
		names[i] = m.agent.Name()
	}
	return names
}

// RunningAgents returns the agents that have not stopped.
func (o *Orchestrator) RunningAgents() []*agent.Agent {
	var out []*agent.Agent
	for _, m := range o.snapshot() {
		if m.agent.Running() {
			out = append(out, m.agent)
		}
	}
	return out
}

// AgentByName returns the first agent with the given name.
func (o *Orchestrator) AgentByName(name string) (*agent.Agent, bool) {
	for _, m := range o.snapshot() {
		if m.agent.Name() == name {
			return m.agent, true
		}
	}
	return nil, false
}

// AgentByIndex returns the agent at registration index i.
func (o *Orchestrator) AgentByIndex(i int) (*agent.Agent, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if i < 0 || i >= len(o.members) {
		return nil, false
	}
	return o.members[i].agent, true
}

// AgentCount returns the number of registered agents.
func (o *Orchestrator) AgentCount() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.members)
}

// RunningAgentCount returns the number of running agents.
func (o *Orchestrator) RunningAgentCount() int { return len(o.RunningAgents()) }

// StoppedAgentCount returns the number of stopped agents.
func (o *Orchestrator) StoppedAgentCount() int { return o.AgentCount() - o.RunningAgentCount() }

// Status returns running and stopped counts.
func (o *Orchestrator) Status() Status {
	running := o.RunningAgentCount()
	return Status{Running: running, Stopped: o.AgentCount() - running}
}
