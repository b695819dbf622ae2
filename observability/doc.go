// Package observability provides Prometheus metrics and OpenTelemetry tracing
// for agent passes, model calls, tool dispatch and orchestrator sweeps.
//
// Metrics implements the small recorder interfaces declared by the tool, agent
// and orchestrator packages, so a single value can be handed to all of them.
// Tracing is process global: Setup installs a tracer provider and StartSpan
// uses whichever provider is installed (a noop one by default).
package observability
