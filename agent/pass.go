package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/hupe1980/agenthive/core"
	"github.com/hupe1980/agenthive/logging"
	"github.com/hupe1980/agenthive/model"
	"github.com/hupe1980/agenthive/observability"
	"github.com/hupe1980/agenthive/prompt"
)

// PassInput carries per-pass data supplied by the scheduler.
type PassInput struct {
	// PostSystem messages follow the system message in both prompts.
	PostSystem []core.Message
}

type passLogger interface {
	LogPass(passNumber, toolCalls int, dur time.Duration, running bool, err error)
	LogLLMCall(model, stage string, dur time.Duration, success bool, err error)
}

// RunPass executes one pass:
//
//  1. run standing tool calls and join their results into the context
//  2. assemble the decision prompt
//  3. ask the model for a decision
//  4. validate the decision
//  5. stop the agent if the decision says so (the pass still completes)
//  6. dispatch the requested tool calls in order
//  7. ask the model for a summary
//  8. advance the pass counter, record the summary and notes, persist
//
// Failures in steps 3 and 4 leave the agent untouched. A summary failure is
// fatal to the pass. A persistence failure is reported after state advanced.
// On a stopped agent RunPass does nothing and returns ErrStopped.
func (a *Agent) RunPass(ctx context.Context, actx *AgentContext, in PassInput) (_ *core.PassRecord, err error) {
	if !a.Running() {
		return nil, ErrStopped
	}
	if err := actx.validate(); err != nil {
		return nil, err
	}

	logger := a.logger(actx)
	attempt := a.PassNumber() + 1
	start := time.Now()

	ctx, span := observability.StartSpan(ctx, "agent.pass",
		attribute.String("agent.id", a.id),
		attribute.String("agent.name", a.Name()),
		attribute.Int("agent.pass_number", attempt),
	)
	var toolCalls int
	defer func() {
		observability.EndSpan(span, err)
		dur := time.Since(start)
		outcome := "ok"
		var pe *PassError
		if errors.As(err, &pe) {
			outcome = string(pe.Stage)
		}
		if actx.Metrics != nil {
			actx.Metrics.ObservePass(outcome, dur)
		}
		if pl, ok := logger.(passLogger); ok {
			pl.LogPass(attempt, toolCalls, dur, a.Running(), err)
		}
	}()

	fail := func(stage Stage, cause error) error {
		return &PassError{AgentID: a.id, PassNumber: attempt, Stage: stage, Err: cause}
	}

	logger.Debug("agent.pass.start", "pass_number", attempt)

	standing := a.runStandingCalls(ctx, actx)

	runMessages := prompt.Assemble(prompt.Input{
		AgentName:       a.Name(),
		Persona:         a.Persona(),
		StandingContext: standing,
		Capabilities:    actx.capabilities(),
		PostSystem:      in.PostSystem,
		Buffer:          a.buffer.Messages(),
		BufferSize:      a.buffer.Size(),
		LastSummary:     a.LastSummary(),
		Clock:           actx.Clock,
	})

	raw, err := a.generate(ctx, actx, logger, "decision", runMessages, &prompt.DecisionSchema)
	if err != nil {
		return nil, fail(StageDecision, err)
	}
	decision, err := decodeDecision(raw)
	if err != nil {
		return nil, fail(StageDecision, err)
	}

	if !decision.ShouldContinue {
		a.Stop()
		logger.Info("agent.stopped", "pass_number", attempt)
	}

	toolCalls = len(decision.ToolCalls)
	toolResults := a.callTools(ctx, actx, decision.ToolCalls)

	summaryMessages := prompt.AssembleSummary(prompt.SummaryInput{
		StandingContext: standing,
		PostSystem:      in.PostSystem,
		Buffer:          a.buffer.Messages(),
		BufferSize:      a.buffer.Size(),
		History:         a.Summaries(),
		Decision:        decision,
	})

	rawSummary, err := a.generate(ctx, actx, logger, "summary", summaryMessages, &prompt.SummarySchema)
	if err != nil {
		return nil, fail(StageSummary, err)
	}
	summary, err := model.Decode[core.PassSummary](rawSummary, prompt.SummarySchema)
	if err != nil {
		return nil, fail(StageSummary, err)
	}

	passNumber := a.complete(summary)
	now := actx.now()
	record := &core.PassRecord{
		PassID:          uuid.NewString(),
		AgentID:         a.id,
		PassNumber:      passNumber,
		Model:           actx.modelName(),
		RunMessages:     runMessages,
		Decision:        decision,
		ToolResults:     toolResults,
		SummaryMessages: summaryMessages,
		Summary:         summary,
		RunDate:         now,
	}

	if err := a.persist(ctx, actx, record); err != nil {
		return record, fail(StagePersist, err)
	}
	return record, nil
}

// runStandingCalls dispatches the standing calls in order and joins the
// non-empty results. Failing calls contribute their error text.
func (a *Agent) runStandingCalls(ctx context.Context, actx *AgentContext) string {
	var parts []string
	for _, call := range a.StandingToolCalls() {
		res := actx.Dispatcher.Dispatch(ctx, a, call)
		if res.Text != "" {
			parts = append(parts, res.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// callTools appends the assistant tool call message and one tool message per
// call to the buffer. It returns the same messages for the pass record.
func (a *Agent) callTools(ctx context.Context, actx *AgentContext, calls []core.ToolCall) []core.Message {
	if len(calls) == 0 {
		return nil
	}

	results := make([]core.Message, 0, len(calls)+1)
	request := core.AssistantMessage("", calls...)
	a.buffer.Add(request)
	results = append(results, request)

	for _, call := range calls {
		msg := actx.Dispatcher.Dispatch(ctx, a, call).Message()
		a.buffer.Add(msg)
		results = append(results, msg)
	}
	return results
}

func (a *Agent) generate(ctx context.Context, actx *AgentContext, logger logging.Logger, stage string, msgs []core.Message, schema *model.Schema) (string, error) {
	info := actx.Model.Info()
	ctx, span := observability.StartSpan(ctx, "model.generate",
		attribute.String("model.provider", info.Provider),
		attribute.String("model.name", info.Name),
		attribute.String("model.stage", stage),
	)

	start := time.Now()
	out, err := actx.Model.Generate(ctx, model.Request{Messages: msgs, Schema: schema})
	dur := time.Since(start)
	observability.EndSpan(span, err)

	kind := "ok"
	if err != nil {
		kind = model.KindOf(err).String()
	}
	if actx.Metrics != nil {
		actx.Metrics.ObserveModelCall(info.Provider, stage, kind, dur)
	}
	if pl, ok := logger.(passLogger); ok {
		pl.LogLLMCall(info.Name, stage, dur, err == nil, err)
	}
	return out, err
}

func (a *Agent) persist(ctx context.Context, actx *AgentContext, rec *core.PassRecord) error {
	if actx.Store == nil {
		return nil
	}
	if err := actx.Store.SaveRunResult(ctx, *rec); err != nil {
		return fmt.Errorf("save run result: %w", err)
	}
	cp := a.Checkpoint()
	cp.LastRunDate = rec.RunDate
	if err := actx.Store.SaveAgent(ctx, cp); err != nil {
		return fmt.Errorf("save agent: %w", err)
	}
	return nil
}

func (a *Agent) logger(actx *AgentContext) logging.Logger {
	if hl, ok := actx.Logger.(*logging.HiveLogger); ok {
		return hl.WithComponent("agent").WithAgent(a.id, a.Name())
	}
	return logging.OrNoOp(actx.Logger)
}

// decodeDecision decodes and validates a decision, enforcing the tool call bound.
func decodeDecision(raw string) (core.Decision, error) {
	d, err := model.Decode[core.Decision](raw, prompt.DecisionSchema)
	if err != nil {
		return d, err
	}
	if n := len(d.ToolCalls); n > core.MaxToolCallsPerPass {
		return core.Decision{}, &core.ValidationError{
			Raw:   raw,
			Cause: fmt.Errorf("too many tool calls: %d > %d", n, core.MaxToolCallsPerPass),
		}
	}
	return d, nil
}
