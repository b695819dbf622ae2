// Package orchestrator runs a population of agents in cooperative round-robin
// sweeps.
//
// Each sweep visits agents in registration order and runs one pass for every
// agent that is still running. A failed pass is logged and the sweep moves on.
// Run returns once every agent has stopped, the kill switch is flipped with
// Stop, the context is cancelled, or MaxSweeps is reached. Stop and
// cancellation are observed between agents, never inside a pass.
package orchestrator
