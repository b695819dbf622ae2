package agenthive

import (
	"encoding/json"
	"fmt"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/hupe1980/agenthive/config"
	"github.com/hupe1980/agenthive/core"
	"github.com/hupe1980/agenthive/logging"
	"github.com/hupe1980/agenthive/model"
	"github.com/hupe1980/agenthive/model/anthropic"
	"github.com/hupe1980/agenthive/model/gollm"
	"github.com/hupe1980/agenthive/model/openai"
	"github.com/hupe1980/agenthive/prompt"
	"github.com/hupe1980/agenthive/store/memory"
	"github.com/hupe1980/agenthive/store/sqlite"
)

// NewLogger builds the process logger from cfg.
func NewLogger(cfg config.LoggingConfig) (*logging.HiveLogger, error) {
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	return logging.NewSlogLogger(level, cfg.Format, false), nil
}

// NewModel builds the configured provider adapter and wraps it in a
// model.Guard carrying the timeout, rate limit, retry and breaker policy.
func NewModel(cfg config.ModelConfig, logger logging.Logger) (model.Model, error) {
	var inner model.Model
	switch cfg.Provider {
	case config.ProviderOpenAI:
		inner = openai.NewModel(func(o *openai.Options) {
			o.Model = cfg.Model
			o.BaseURL = cfg.BaseURL
			o.APIKey = cfg.APIKey
			if cfg.Temperature != 0 {
				o.Temperature = cfg.Temperature
			}
			if cfg.MaxTokens > 0 {
				o.MaxCompletionTokens = int64(cfg.MaxTokens)
			}
		})
	case config.ProviderAnthropic:
		inner = anthropic.NewModel(func(o *anthropic.Options) {
			o.Model = anthropicsdk.Model(cfg.Model)
			o.BaseURL = cfg.BaseURL
			o.APIKey = cfg.APIKey
			if cfg.Temperature != 0 {
				o.Temperature = cfg.Temperature
			}
			if cfg.MaxTokens > 0 {
				o.MaxTokens = int64(cfg.MaxTokens)
			}
		})
	case config.ProviderGollm:
		m, err := gollm.NewModel(func(o *gollm.Options) {
			o.Provider = cfg.GollmProvider
			o.Model = cfg.Model
			o.APIKey = cfg.APIKey
			if cfg.Temperature != 0 {
				o.Temperature = cfg.Temperature
			}
			if cfg.MaxTokens > 0 {
				o.MaxTokens = cfg.MaxTokens
			}
		})
		if err != nil {
			return nil, err
		}
		inner = m
	case config.ProviderMock:
		inner = NewDemoModel(cfg.Model)
	default:
		return nil, fmt.Errorf("%w: unknown model provider %q", config.ErrInvalid, cfg.Provider)
	}

	return model.NewGuard(inner, func(o *model.GuardOptions) {
		o.Timeout = cfg.Timeout
		o.RateLimit = cfg.RateLimit
		if cfg.Burst > 0 {
			o.Burst = cfg.Burst
		}
		o.MaxRetries = cfg.MaxRetries
		if cfg.Breaker.MaxFailures > 0 {
			o.Breaker.MaxFailures = cfg.Breaker.MaxFailures
		}
		if cfg.Breaker.Timeout > 0 {
			o.Breaker.Timeout = cfg.Breaker.Timeout
		}
		if cfg.Breaker.Interval > 0 {
			o.Breaker.Interval = cfg.Breaker.Interval
		}
		o.Logger = logger
	}), nil
}

// NewDemoModel returns a mock model that lists the apps once and stops.
// It answers decision requests and summary requests by schema name.
func NewDemoModel(name string) *model.MockModel {
	if name == "" {
		name = "demo"
	}
	return model.NewMockModel(name).Respond(func(req model.Request) (string, error) {
		var v any
		if req.Schema != nil && req.Schema.Name == prompt.SummarySchema.Name {
			v = core.PassSummary{
				Thoughts:                "the demo pass listed the apps",
				ActionsTaken:            []string{"listed apps"},
				Notes:                   []string{},
				Summary:                 "listed the available apps and stopped",
				InstructionsForNextPass: "none",
			}
		} else {
			v = core.Decision{
				Thoughts:       "look at what is available, then stop",
				ToolCalls:      []core.ToolCall{{ToolsetID: "app_manager", Name: "list_apps", Arguments: map[string]any{}}},
				ShouldContinue: false,
			}
		}
		b, err := json.Marshal(v)
		return string(b), err
	})
}

// OpenStore opens the configured persistence backend.
func OpenStore(cfg config.StoreConfig) (core.Store, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return memory.New(), nil
	case config.DriverSQLite:
		s, err := sqlite.Open(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store %s: %w", cfg.Path, err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("%w: unknown store driver %q", config.ErrInvalid, cfg.Driver)
	}
}
