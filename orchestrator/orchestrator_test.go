package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agenthive/agent"
	"github.com/hupe1980/agenthive/apps"
	"github.com/hupe1980/agenthive/core"
	"github.com/hupe1980/agenthive/internal/testutil"
	"github.com/hupe1980/agenthive/model"
	"github.com/hupe1980/agenthive/store/memory"
	"github.com/hupe1980/agenthive/tool"
)

type logEntry struct {
	level, msg string
	args       []any
}

type captureLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *captureLogger) add(level, msg string, args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{level, msg, args})
}

func (l *captureLogger) Debug(msg string, args ...any) { l.add("debug", msg, args) }
func (l *captureLogger) Info(msg string, args ...any)  { l.add("info", msg, args) }
func (l *captureLogger) Warn(msg string, args ...any)  { l.add("warn", msg, args) }
func (l *captureLogger) Error(msg string, args ...any) { l.add("error", msg, args) }

func (l *captureLogger) find(msg string) []logEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []logEntry
	for _, e := range l.entries {
		if e.msg == msg {
			out = append(out, e)
		}
	}
	return out
}

func argValue(args []any, key string) any {
	for i := 0; i+1 < len(args); i += 2 {
		if args[i] == key {
			return args[i+1]
		}
	}
	return nil
}

type harness struct {
	store  *memory.Store
	world  *testutil.RecordingToolset
	orch   *Orchestrator
	models map[string]*model.MockModel
	agents map[string]*agent.Agent
}

func newHarness(t *testing.T, optFns ...func(o *Options)) *harness {
	t.Helper()
	return &harness{
		store: memory.New(),
		world: testutil.NewToolsetBuilder("world").
			Returns("look", "a quiet room").
			Panics("explode", "kaboom").
			Build(),
		orch:   New(optFns...),
		models: map[string]*model.MockModel{},
		agents: map[string]*agent.Agent{},
	}
}

func (h *harness) add(t *testing.T, name string, script ...string) *agent.Agent {
	t.Helper()
	mgr := apps.NewManager()
	agentTool := NewAgentTool()
	mgr.AddToolset(agentTool)
	mgr.AddToolset(h.world)

	reg := tool.NewRegistry()
	require.NoError(t, reg.Register(mgr, agentTool, h.world))

	m := model.NewMockModel("mock-" + name).Enqueue(script...)
	a := agent.New(name, name+"-key", "you are free to do as you please")
	require.NoError(t, h.orch.AddAgent(a, &agent.AgentContext{
		Model:      m,
		Dispatcher: tool.NewDispatcher(reg),
		Apps:       mgr,
		Store:      h.store,
	}))
	h.models[name] = m
	h.agents[name] = a
	return a
}

func cont() string { return testutil.NewDecisionBuilder().JSON() }
func stop() string { return testutil.NewDecisionBuilder().Stop().JSON() }
func summary(s string) string {
	return testutil.NewSummaryBuilder(s).JSON()
}

// -------------------- Run Tests --------------------

func TestRun_TwoAgentsTwoSweeps(t *testing.T) {
	h := newHarness(t)
	a := h.add(t, "a", cont(), summary("a1"), stop(), summary("a2"))
	b := h.add(t, "b", cont(), summary("b1"), stop(), summary("b2"))

	require.NoError(t, h.orch.Run(context.Background()))

	assert.Equal(t, Status{Running: 0, Stopped: 2}, h.orch.Status())
	assert.Equal(t, int64(2), h.orch.Sweeps())
	assert.Equal(t, 2, a.PassNumber())
	assert.Equal(t, 2, b.PassNumber())
}

func TestRun_StoppedAgentNeverRunsAgain(t *testing.T) {
	h := newHarness(t)
	quitter := h.add(t, "quitter", stop(), summary("bye"))
	h.add(t, "worker", cont(), summary("w1"), cont(), summary("w2"), stop(), summary("w3"))

	require.NoError(t, h.orch.Run(context.Background()))

	assert.False(t, quitter.Running())
	assert.Equal(t, 1, quitter.PassNumber())
	assert.Len(t, h.models["quitter"].Requests(), 2)
	assert.Equal(t, int64(3), h.orch.Sweeps())
	assert.Equal(t, 3, h.agents["worker"].PassNumber())
}

func TestRun_PassCountMatchesStoredRows(t *testing.T) {
	h := newHarness(t)
	h.add(t, "a", cont(), summary("1"), cont(), summary("2"), stop(), summary("3"))
	h.add(t, "b", stop(), summary("1"))

	require.NoError(t, h.orch.Run(context.Background()))

	for name, a := range h.agents {
		assert.Equal(t, a.PassNumber(), h.store.Count(a.ID()), name)
	}
	cps, err := h.store.Agents(context.Background())
	require.NoError(t, err)
	assert.Len(t, cps, 2)
}

func TestRun_PanickingCollaboratorDoesNotStopSweep(t *testing.T) {
	h := newHarness(t)
	a := h.add(t, "a",
		testutil.NewDecisionBuilder().Call("world", "explode", nil).Stop().JSON(), summary("a"))
	b := h.add(t, "b", stop(), summary("b"))

	require.NoError(t, h.orch.Run(context.Background()))

	assert.Equal(t, 1, b.PassNumber())
	recs, err := h.store.RunResults(context.Background(), a.ID(), 1, 0)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "error calling tool explode: panic: kaboom", recs[0].ToolResults[1].Content)
}

func TestRun_PanickingModelIsIsolated(t *testing.T) {
	logger := &captureLogger{}
	h := newHarness(t, func(o *Options) {
		o.Logger = logger
		o.MaxSweeps = 1
	})
	h.add(t, "a")
	h.models["a"].Respond(func(model.Request) (string, error) { panic("model exploded") })
	b := h.add(t, "b", stop(), summary("b"))

	require.NoError(t, h.orch.Run(context.Background()))

	assert.Equal(t, 1, b.PassNumber())
	assert.NotEmpty(t, logger.find("agent.pass.panic"))
	failed := logger.find("agent.pass.failed")
	require.Len(t, failed, 1)
	assert.Contains(t, fmt.Sprint(argValue(failed[0].args, "error")), "model exploded")
}

func TestRun_FailedPassIsLoggedWithRawText(t *testing.T) {
	logger := &captureLogger{}
	h := newHarness(t, func(o *Options) {
		o.Logger = logger
		o.MaxSweeps = 2
	})
	a := h.add(t, "a", "definitely not json", stop(), summary("recovered"))

	require.NoError(t, h.orch.Run(context.Background()))

	assert.Equal(t, 1, a.PassNumber())
	assert.False(t, a.Running())

	failed := logger.find("agent.pass.failed")
	require.Len(t, failed, 1)
	assert.Equal(t, a.ID(), argValue(failed[0].args, "agent_id"))
	assert.Equal(t, 1, argValue(failed[0].args, "pass_number"))
	assert.Equal(t, "decision", argValue(failed[0].args, "stage"))
	assert.Equal(t, "definitely not json", argValue(failed[0].args, "raw"))
}

func TestRun_MaxSweepsBoundsRun(t *testing.T) {
	h := newHarness(t, func(o *Options) { o.MaxSweeps = 2 })
	a := h.add(t, "a")
	h.models["a"].Respond(func(req model.Request) (string, error) {
		if req.Schema != nil && req.Schema.Name == "pass_summary" {
			return summary("again"), nil
		}
		return cont(), nil
	})

	require.NoError(t, h.orch.Run(context.Background()))
	assert.Equal(t, int64(2), h.orch.Sweeps())
	assert.Equal(t, 2, a.PassNumber())
	assert.True(t, a.Running())
}

func TestRun_StopBetweenAgents(t *testing.T) {
	h := newHarness(t)
	stopper := testutil.NewToolsetBuilder("switch").Tool("off", nil, func(context.Context, tool.Caller, map[string]any) (any, error) {
		h.orch.Stop()
		return "switched off", nil
	}).Build()

	a := h.add(t, "a", testutil.NewDecisionBuilder().Call("switch", "off", nil).JSON(), summary("a"))
	b := h.add(t, "b", stop(), summary("b"))
	// give agent a access to the switch
	for i := 0; i < h.orch.AgentCount(); i++ {
		m := h.orch.members[i]
		require.NoError(t, m.actx.Dispatcher.Registry().Register(stopper))
	}

	require.NoError(t, h.orch.Run(context.Background()))

	assert.Equal(t, 1, a.PassNumber(), "the running pass completes")
	assert.Equal(t, 0, b.PassNumber())
	assert.Equal(t, int64(0), h.orch.Sweeps())
	assert.False(t, h.orch.Started())

	h.orch.Start()
	h.models["a"].Enqueue(stop(), summary("a2"))
	require.NoError(t, h.orch.Run(context.Background()))
	assert.Equal(t, Status{Running: 0, Stopped: 2}, h.orch.Status())
}

func TestRun_ContextCancellation(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	a := h.add(t, "a")
	h.models["a"].Respond(func(req model.Request) (string, error) {
		if req.Schema != nil && req.Schema.Name == "pass_summary" {
			cancel()
			return summary("s"), nil
		}
		return cont(), nil
	})
	b := h.add(t, "b", cont(), summary("b"))

	err := h.orch.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, a.PassNumber())
	assert.Equal(t, 0, b.PassNumber())
}

func TestRun_NoAgents(t *testing.T) {
	o := New()
	done := make(chan error, 1)
	go func() { done <- o.Run(context.Background()) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return with no agents")
	}
}

func TestRun_PostSystemToolCalls(t *testing.T) {
	h := newHarness(t, func(o *Options) {
		o.PostSystemToolCalls = []core.ToolCall{{ToolsetID: "world", Name: "look"}}
	})
	h.add(t, "a", stop(), summary("s"))

	require.NoError(t, h.orch.Run(context.Background()))

	reqs := h.models["a"].Requests()
	require.Len(t, reqs, 2)
	for _, req := range reqs {
		assert.Equal(t, core.ToolMessage("a quiet room"), req.Messages[1])
	}
}

// -------------------- Query Tests --------------------

func TestQueries(t *testing.T) {
	h := newHarness(t)
	a := h.add(t, "a")
	b := h.add(t, "b")
	b.Stop()

	assert.Equal(t, []string{"a", "b"}, h.orch.Agents())
	assert.Equal(t, []*agent.Agent{a}, h.orch.RunningAgents())
	assert.Equal(t, 2, h.orch.AgentCount())
	assert.Equal(t, 1, h.orch.RunningAgentCount())
	assert.Equal(t, 1, h.orch.StoppedAgentCount())
	assert.Equal(t, Status{Running: 1, Stopped: 1}, h.orch.Status())

	got, ok := h.orch.AgentByName("b")
	require.True(t, ok)
	assert.Same(t, b, got)
	_, ok = h.orch.AgentByName("zed")
	assert.False(t, ok)

	got, ok = h.orch.AgentByIndex(0)
	require.True(t, ok)
	assert.Same(t, a, got)
	_, ok = h.orch.AgentByIndex(2)
	assert.False(t, ok)
	_, ok = h.orch.AgentByIndex(-1)
	assert.False(t, ok)
}

func TestAddAgent_RejectsDuplicates(t *testing.T) {
	o := New()
	actx := &agent.AgentContext{}
	require.NoError(t, o.AddAgent(agent.New("a", "same", ""), actx))
	err := o.AddAgent(agent.New("b", "same", ""), actx)
	assert.ErrorIs(t, err, ErrDuplicateAgent)
	assert.Error(t, o.AddAgent(nil, actx))
}

// -------------------- Agent Tool Tests --------------------

func TestAgentTool(t *testing.T) {
	reg := tool.NewRegistry()
	require.NoError(t, reg.Register(NewAgentTool()))
	d := tool.NewDispatcher(reg)
	a := agent.New("old", "k", "")
	ctx := context.Background()

	res := d.Dispatch(ctx, a, core.ToolCall{ToolsetID: AgentToolID, Name: "set_name", Arguments: map[string]any{"name": "new"}})
	assert.Equal(t, "Name set to new", res.Text)
	assert.Equal(t, "new", a.Name())

	res = d.Dispatch(ctx, a, core.ToolCall{ToolsetID: AgentToolID, Name: "set_persona", Arguments: map[string]any{"persona": "a poet"}})
	assert.Equal(t, "Persona set to a poet", res.Text)
	assert.Equal(t, "a poet", a.Persona())

	res = d.Dispatch(ctx, a, core.ToolCall{ToolsetID: AgentToolID, Name: "set_name", Arguments: map[string]any{}})
	assert.Equal(t, tool.KindError, res.Kind)
	assert.True(t, strings.HasPrefix(res.Text, "error calling tool set_name: "))

	res = d.Dispatch(ctx, a, core.ToolCall{ToolsetID: AgentToolID, Name: "set_name", Arguments: map[string]any{"name": ""}})
	assert.Equal(t, tool.KindError, res.Kind)
	assert.Equal(t, "new", a.Name())
}

func TestMetricsHook(t *testing.T) {
	rec := &sweepRecorder{}
	h := newHarness(t, func(o *Options) { o.Metrics = rec })
	h.add(t, "a", stop(), summary("s"))

	require.NoError(t, h.orch.Run(context.Background()))
	assert.Equal(t, 1, rec.sweeps)
	assert.Equal(t, 0, rec.running)
}

type sweepRecorder struct {
	sweeps, running int
}

func (r *sweepRecorder) ObserveSweep(time.Duration) { r.sweeps++ }
func (r *sweepRecorder) SetAgentsRunning(n int)     { r.running = n }

