package agent

import (
	"errors"
	"time"

	"github.com/hupe1980/agenthive/apps"
	"github.com/hupe1980/agenthive/core"
	"github.com/hupe1980/agenthive/logging"
	"github.com/hupe1980/agenthive/model"
	"github.com/hupe1980/agenthive/prompt"
	"github.com/hupe1980/agenthive/tool"
)

// Metrics receives per-pass and per-model-call measurements.
type Metrics interface {
	ObservePass(outcome string, dur time.Duration)
	ObserveModelCall(provider, stage, kind string, dur time.Duration)
}

// AgentContext bundles the collaborators of one agent. Each agent gets its own
// context; nothing here is looked up from package level state.
type AgentContext struct {
	// Model produces decisions and summaries. Required.
	Model model.Model
	// ModelName is recorded on pass records. Defaults to Model.Info().Name.
	ModelName string
	// Dispatcher executes tool calls. Required.
	Dispatcher *tool.Dispatcher
	// Apps supplies the visible capabilities. Nil means none are shown.
	Apps *apps.Manager
	// Store persists checkpoints and records. Nil disables persistence.
	Store core.Store
	// Logger defaults to a NoOpLogger.
	Logger logging.Logger
	// Metrics is optional.
	Metrics Metrics
	// Clock defaults to time.Now.
	Clock prompt.Clock
}

func (c *AgentContext) validate() error {
	if c == nil {
		return errors.New("agent context is nil")
	}
	if c.Model == nil {
		return errors.New("agent context has no model")
	}
	if c.Dispatcher == nil {
		return errors.New("agent context has no dispatcher")
	}
	return nil
}

func (c *AgentContext) modelName() string {
	if c.ModelName != "" {
		return c.ModelName
	}
	return c.Model.Info().Name
}

func (c *AgentContext) now() time.Time {
	if c.Clock == nil {
		return time.Now()
	}
	return c.Clock()
}

func (c *AgentContext) capabilities() []core.ToolSchema {
	if c.Apps == nil {
		return nil
	}
	return c.Apps.VisibleSchemas()
}
