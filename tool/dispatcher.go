package tool

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/hupe1980/agenthive/core"
	"github.com/hupe1980/agenthive/internal/util"
	"github.com/hupe1980/agenthive/logging"
)

// Recorder receives per-call dispatch metrics.
type Recorder interface {
	ObserveToolCall(toolsetID, tool, kind string, dur time.Duration)
}

// Options configures a Dispatcher.
type Options struct {
	Logger  logging.Logger
	Metrics Recorder
	// SkipValidation disables argument checks against declared schemas.
	SkipValidation bool
}

// Dispatcher routes tool calls to registered toolsets. Dispatch never
// returns an error and never panics: every failure is folded into a Result.
type Dispatcher struct {
	registry *Registry
	opts     Options
	logger   logging.Logger
}

// NewDispatcher creates a dispatcher over reg.
func NewDispatcher(reg *Registry, optFns ...func(o *Options)) *Dispatcher {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Dispatcher{registry: reg, opts: opts, logger: logging.OrNoOp(opts.Logger)}
}

// Registry returns the underlying registry.
func (d *Dispatcher) Registry() *Registry { return d.registry }

// toolCallLogger is implemented by loggers with a dedicated tool call helper.
type toolCallLogger interface {
	LogToolCall(toolset, tool string, dur time.Duration, success bool, err error)
}

// Dispatch executes one call on behalf of caller. Lookup is by ToolsetID only;
// whether the toolset is currently visible to the agent is not consulted.
func (d *Dispatcher) Dispatch(ctx context.Context, caller Caller, call core.ToolCall) Result {
	start := time.Now()

	ts, ok := d.registry.Lookup(call.ToolsetID)
	if !ok {
		res := NotFound(call)
		d.logger.Warn("tool.dispatch.not_found", "toolset_id", call.ToolsetID, "tool", call.Name)
		d.observe(res, time.Since(start))
		return res
	}

	d.logger.Debug("tool.dispatch.start", "toolset_id", call.ToolsetID, "tool", call.Name)

	res := d.execute(ctx, ts, caller, call)
	res.Call = call
	dur := time.Since(start)

	switch res.Kind {
	case KindError:
		d.logToolCall(call, dur, false, res.Err)
	case KindUnrecognized:
		d.logger.Warn("tool.dispatch.unrecognized", "toolset_id", call.ToolsetID, "tool", call.Name, "result", res.Text)
		d.logToolCall(call, dur, true, nil)
	default:
		d.logToolCall(call, dur, true, nil)
	}
	d.observe(res, dur)
	return res
}

func (d *Dispatcher) execute(ctx context.Context, ts Toolset, caller Caller, call core.ToolCall) (res Result) {
	if call.Arguments == nil {
		call.Arguments = map[string]any{}
	}

	if !d.opts.SkipValidation {
		if schema, ok := d.registry.Schema(call.ToolsetID, call.Name); ok {
			if err := util.ValidateArguments(call.Arguments, schema.Arguments); err != nil {
				return Errored(call, &ToolError{
					Tool:    call.Name,
					Message: fmt.Sprintf("parameter validation failed: %v", err),
					Code:    CodeValidation,
					Details: err,
				})
			}
		}
	}

	defer func() { // panic safety, covers normalization too
		if r := recover(); r != nil {
			d.logger.Error("tool.dispatch.panic", "toolset_id", call.ToolsetID, "tool", call.Name, "recover", r)
			res = Errored(call, panicError(r))
		}
	}()

	value, err := ts.Handle(ctx, caller, call)
	if err != nil {
		return Errored(call, err)
	}
	return Normalize(value)
}

func (d *Dispatcher) logToolCall(call core.ToolCall, dur time.Duration, success bool, err error) {
	if l, ok := d.logger.(toolCallLogger); ok {
		l.LogToolCall(call.ToolsetID, call.Name, dur, success, err)
		return
	}
	if success {
		d.logger.Info("tool.dispatch.completed", "toolset_id", call.ToolsetID, "tool", call.Name, "duration_ms", dur.Milliseconds())
		return
	}
	d.logger.Error("tool.dispatch.failed", "toolset_id", call.ToolsetID, "tool", call.Name, "duration_ms", dur.Milliseconds(), "error", err)
}

func (d *Dispatcher) observe(res Result, dur time.Duration) {
	if d.opts.Metrics != nil {
		d.opts.Metrics.ObserveToolCall(res.Call.ToolsetID, res.Call.Name, res.Kind.String(), dur)
	}
}

// panicError converts a recovered panic value to an error.
func panicError(r any) error { return &panicErr{val: r, stack: debug.Stack()} }

type panicErr struct {
	val   any
	stack []byte
}

func (p *panicErr) Error() string { return fmt.Sprintf("panic: %v", p.val) }
