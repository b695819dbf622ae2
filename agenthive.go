// Package agenthive wires the building blocks of an agent hive into a ready
// to run system. Most applications interact with this package by:
//  1. Loading a config.Config (config.Load) or starting from config.Default
//  2. Creating a Hive via New, which builds the model, store, logger and
//     metrics and registers the configured agents
//  3. Calling Run until every agent has stopped, then Close
//
// Every collaborator can be overridden through Options, which is how tests
// and embedders supply scripted models or in-memory stores.
package agenthive

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/agenthive/agent"
	"github.com/hupe1980/agenthive/apps"
	"github.com/hupe1980/agenthive/config"
	"github.com/hupe1980/agenthive/core"
	"github.com/hupe1980/agenthive/logging"
	"github.com/hupe1980/agenthive/model"
	"github.com/hupe1980/agenthive/observability"
	"github.com/hupe1980/agenthive/orchestrator"
	"github.com/hupe1980/agenthive/prompt"
	"github.com/hupe1980/agenthive/tool"
	"github.com/hupe1980/agenthive/toolsets/notes"
	"github.com/hupe1980/agenthive/toolsets/persona"
)

// Options overrides collaborators that New would otherwise build from config.
type Options struct {
	// Model replaces the configured provider. It is used as is, without a Guard.
	Model model.Model
	// Store replaces the configured backend. The caller keeps ownership.
	Store core.Store
	// Logger replaces the configured process logger.
	Logger logging.Logger
	// Metrics defaults to a fresh registry.
	Metrics *observability.Metrics
	// Toolsets are registered for every agent and offered as apps, after the
	// built-in notes, persona and agent tools.
	Toolsets []tool.Toolset
	// Clock defaults to time.Now.
	Clock prompt.Clock
}

// Hive owns the collaborators shared by all agents and the orchestrator
// that schedules them.
type Hive struct {
	cfg      *config.Config
	opts     Options
	model    model.Model
	store    core.Store
	ownStore bool
	logger   logging.Logger
	metrics  *observability.Metrics
	notes    *notes.Toolset
	personas *persona.Toolset
	orch     *orchestrator.Orchestrator
}

// New validates cfg, builds the collaborators and registers cfg.Agents.
// A nil cfg means config.Default.
func New(ctx context.Context, cfg *config.Config, optFns ...func(o *Options)) (*Hive, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}

	h := &Hive{cfg: cfg, opts: opts, logger: opts.Logger, metrics: opts.Metrics, model: opts.Model, store: opts.Store}

	if h.logger == nil {
		l, err := NewLogger(cfg.Logging)
		if err != nil {
			return nil, err
		}
		h.logger = l
	}
	if h.metrics == nil {
		h.metrics = observability.NewMetrics(nil)
	}
	if h.model == nil {
		m, err := NewModel(cfg.Model, h.logger)
		if err != nil {
			return nil, fmt.Errorf("build model: %w", err)
		}
		h.model = m
	}
	if h.store == nil {
		s, err := OpenStore(cfg.Store)
		if err != nil {
			return nil, err
		}
		h.store, h.ownStore = s, true
	}

	h.notes = notes.New()
	h.personas = persona.New(h.model, func(o *persona.Options) { o.Logger = h.logger })
	h.orch = orchestrator.New(func(o *orchestrator.Options) {
		o.MaxSweeps = cfg.MaxSweeps
		o.PostSystemToolCalls = config.ToolCalls(cfg.PostSystemToolCalls)
		o.Logger = h.logger
		o.Metrics = h.metrics
	})

	for _, ac := range cfg.Agents {
		if _, err := h.AddAgent(ctx, ac); err != nil {
			return nil, errors.Join(err, h.Close())
		}
	}
	return h, nil
}

// AddAgent creates an agent from ac, resumes its pass counter from the
// store and hands it to the orchestrator.
func (h *Hive) AddAgent(ctx context.Context, ac config.AgentConfig) (*agent.Agent, error) {
	a := agent.New(ac.Name, ac.PrivateKey, ac.InitialInstructions, func(o *agent.Options) {
		o.BufferSize = h.cfg.BufferSize
		o.InitialNotes = ac.InitialNotes
		o.StandingToolCalls = config.ToolCalls(ac.StandingToolCalls)
		o.Persona = ac.Persona
	})

	if err := h.restore(ctx, a); err != nil {
		return nil, err
	}

	actx, err := h.agentContext()
	if err != nil {
		return nil, fmt.Errorf("agent %s: %w", ac.Name, err)
	}
	if err := h.orch.AddAgent(a, actx); err != nil {
		return nil, err
	}
	h.logger.Info("hive.agent.added", "agent_id", a.ID(), "agent_name", a.Name(), "pass_number", a.PassNumber())
	return a, nil
}

func (h *Hive) restore(ctx context.Context, a *agent.Agent) error {
	checkpoints, err := h.store.Agents(ctx)
	if err != nil {
		return fmt.Errorf("load checkpoints: %w", err)
	}
	for _, cp := range checkpoints {
		if a.Restore(cp) {
			h.logger.Info("hive.agent.restored", "agent_id", a.ID(), "pass_number", cp.PassNumber)
		}
	}
	return nil
}

// agentContext builds the per-agent registry: the app manager, the agent
// tool, the reference toolsets and any extra toolsets. Everything except the
// manager is offered as an app; cfg.DefaultApps start loaded.
func (h *Hive) agentContext() (*agent.AgentContext, error) {
	mgr := apps.NewManager()
	sets := []tool.Toolset{mgr, orchestrator.NewAgentTool(), h.notes, h.personas}
	sets = append(sets, h.opts.Toolsets...)

	reg := tool.NewRegistry()
	if err := reg.Register(sets...); err != nil {
		return nil, err
	}
	for _, ts := range sets[1:] {
		mgr.AddToolset(ts)
	}
	for _, id := range h.cfg.DefaultApps {
		if _, ok := reg.Lookup(id); !ok {
			return nil, fmt.Errorf("default app %s is not registered", id)
		}
		mgr.Load(id)
	}

	return &agent.AgentContext{
		Model: h.model,
		Dispatcher: tool.NewDispatcher(reg, func(o *tool.Options) {
			o.Logger = h.logger
			o.Metrics = h.metrics
		}),
		Apps:    mgr,
		Store:   h.store,
		Logger:  h.logger,
		Metrics: h.metrics,
		Clock:   h.opts.Clock,
	}, nil
}

// Run sweeps the agents until they have all stopped. See orchestrator.Run.
func (h *Hive) Run(ctx context.Context) error { return h.orch.Run(ctx) }

// Orchestrator exposes the scheduler for queries and the kill switch.
func (h *Hive) Orchestrator() *orchestrator.Orchestrator { return h.orch }

// Metrics returns the metrics registry wrapper.
func (h *Hive) Metrics() *observability.Metrics { return h.metrics }

// Store returns the persistence backend.
func (h *Hive) Store() core.Store { return h.store }

// Notes returns the shared notes toolset.
func (h *Hive) Notes() *notes.Toolset { return h.notes }

// Personas returns the shared persona toolset.
func (h *Hive) Personas() *persona.Toolset { return h.personas }

// Close stops the orchestrator and closes the store when New opened it.
func (h *Hive) Close() error {
	if h.orch != nil {
		h.orch.Stop()
	}
	if h.ownStore && h.store != nil {
		return h.store.Close()
	}
	return nil
}
