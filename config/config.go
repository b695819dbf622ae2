// Package config loads the YAML configuration of an agenthive deployment.
// Environment variables in the file (${VAR} or $VAR) are expanded before
// parsing, so secrets such as API keys can stay out of the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/agenthive/core"
	"github.com/hupe1980/agenthive/logging"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Model providers.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGollm     = "gollm"
	ProviderMock      = "mock"
)

// Store drivers.
const (
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// Config is the top level configuration.
type Config struct {
	Model               ModelConfig      `yaml:"model"`
	Store               StoreConfig      `yaml:"store"`
	BufferSize          int              `yaml:"buffer_size"`
	MaxSweeps           int              `yaml:"max_sweeps"`
	Logging             LoggingConfig    `yaml:"logging"`
	MetricsAddr         string           `yaml:"metrics_addr"`
	Tracing             bool             `yaml:"tracing"`
	Agents              []AgentConfig    `yaml:"agents"`
	PostSystemToolCalls []ToolCallConfig `yaml:"post_system_tool_calls"`
	// DefaultApps are loaded for every agent at startup.
	DefaultApps []string `yaml:"default_apps"`
}

// ModelConfig selects the model backend and the caller-side guard policy.
type ModelConfig struct {
	Provider string `yaml:"provider"`
	// GollmProvider is the gollm backend name (ollama, groq, mistral, ...)
	// used when Provider is "gollm".
	GollmProvider string        `yaml:"gollm_provider"`
	Model         string        `yaml:"model"`
	BaseURL       string        `yaml:"base_url"`
	APIKey        string        `yaml:"api_key"`
	Temperature   float64       `yaml:"temperature"`
	MaxTokens     int           `yaml:"max_tokens"`
	Timeout       time.Duration `yaml:"timeout"`
	// RateLimit is requests per second. 0 disables limiting.
	RateLimit  float64       `yaml:"rate_limit"`
	Burst      int           `yaml:"burst"`
	MaxRetries int           `yaml:"max_retries"`
	Breaker    BreakerConfig `yaml:"breaker"`
}

// BreakerConfig configures the model circuit breaker.
type BreakerConfig struct {
	MaxFailures uint32        `yaml:"max_failures"`
	Timeout     time.Duration `yaml:"timeout"`
	Interval    time.Duration `yaml:"interval"`
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// AgentConfig describes one agent.
type AgentConfig struct {
	Name                string           `yaml:"name"`
	PrivateKey          string           `yaml:"private_key"`
	InitialInstructions string           `yaml:"initial_instructions"`
	InitialNotes        []string         `yaml:"initial_notes"`
	Persona             string           `yaml:"persona"`
	StandingToolCalls   []ToolCallConfig `yaml:"standing_tool_calls"`
}

// ToolCallConfig is the YAML form of a core.ToolCall.
type ToolCallConfig struct {
	ToolsetID string         `yaml:"toolset_id"`
	Name      string         `yaml:"name"`
	Arguments map[string]any `yaml:"arguments"`
}

// ToolCall converts to the core type.
func (c ToolCallConfig) ToolCall() core.ToolCall {
	return core.ToolCall{ToolsetID: c.ToolsetID, Name: c.Name, Arguments: c.Arguments}
}

// ToolCalls converts a slice of configured calls.
func ToolCalls(cfgs []ToolCallConfig) []core.ToolCall {
	if len(cfgs) == 0 {
		return nil
	}
	out := make([]core.ToolCall, len(cfgs))
	for i, c := range cfgs {
		out[i] = c.ToolCall()
	}
	return out
}

// Default returns a configuration targeting a local Ollama model through gollm
// with a sqlite store.
func Default() *Config {
	return &Config{
		Model: ModelConfig{
			Provider:      ProviderGollm,
			GollmProvider: "ollama",
			Model:         "llama3.1:8b",
			Timeout:       2 * time.Minute,
			Burst:         1,
			Breaker: BreakerConfig{
				MaxFailures: 5,
				Timeout:     30 * time.Second,
			},
		},
		Store:      StoreConfig{Driver: DriverSQLite, Path: "agents.db"},
		BufferSize: 20,
		Logging:    LoggingConfig{Level: "info", Format: "json"},
	}
}

// Load reads path, expands environment variables and parses it over Default.
// The result is validated.
func Load(path string) (*Config, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("config path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse is Load for in-memory YAML.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every problem at once, wrapped in ErrInvalid.
func (c *Config) Validate() error {
	var problems []error
	add := func(format string, args ...any) { problems = append(problems, fmt.Errorf(format, args...)) }

	switch c.Model.Provider {
	case ProviderOpenAI, ProviderAnthropic, ProviderMock:
	case ProviderGollm:
		if c.Model.GollmProvider == "" {
			add("model.gollm_provider is required for provider %q", ProviderGollm)
		}
	default:
		add("model.provider %q is not one of openai, anthropic, gollm, mock", c.Model.Provider)
	}
	if c.Model.Provider != ProviderMock && c.Model.Model == "" {
		add("model.model is required")
	}
	if c.Model.Timeout < 0 {
		add("model.timeout must not be negative")
	}
	if c.Model.RateLimit < 0 {
		add("model.rate_limit must not be negative")
	}
	if c.Model.MaxRetries < 0 {
		add("model.max_retries must not be negative")
	}

	switch c.Store.Driver {
	case DriverMemory:
	case DriverSQLite:
		if c.Store.Path == "" {
			add("store.path is required for driver %q", DriverSQLite)
		}
	default:
		add("store.driver %q is not one of sqlite, memory", c.Store.Driver)
	}

	if c.BufferSize <= 0 {
		add("buffer_size must be positive")
	}
	if c.MaxSweeps < 0 {
		add("max_sweeps must not be negative")
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		add("logging.level: %v", err)
	}
	if f := c.Logging.Format; f != "json" && f != "text" {
		add("logging.format %q is not one of json, text", f)
	}

	keys := make(map[string]string)
	for i, a := range c.Agents {
		if a.Name == "" {
			add("agents[%d].name is required", i)
		}
		if a.PrivateKey == "" {
			add("agents[%d].private_key is required", i)
		} else if other, dup := keys[a.PrivateKey]; dup {
			add("agents[%d].private_key duplicates agent %q", i, other)
		} else {
			keys[a.PrivateKey] = a.Name
		}
		validateCalls(fmt.Sprintf("agents[%d].standing_tool_calls", i), a.StandingToolCalls, add)
	}
	validateCalls("post_system_tool_calls", c.PostSystemToolCalls, add)

	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(problems...))
}

func validateCalls(field string, calls []ToolCallConfig, add func(string, ...any)) {
	for i, call := range calls {
		if call.ToolsetID == "" || call.Name == "" {
			add("%s[%d] needs toolset_id and name", field, i)
		}
	}
}
