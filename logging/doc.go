// Package logging provides a minimal logging interface and adapters for agenthive.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn, Error)
// that the dispatcher, agents and orchestrator use for observability. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - HiveLogger with agent/component context and pass, tool and model helpers
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	orch := orchestrator.New(func(o *orchestrator.Options) { o.Logger = logger })
//
// Event names are dotted (agent.pass.completed, tool.dispatch.failed) so they
// can be filtered without parsing free text.
package logging
