// Package core provides the foundational domain types shared by every layer
// of agenthive:
//
//   - Messages exchanged with the model (system, user, assistant, tool)
//   - Tool calls, tool schemas and toolset descriptors
//   - The structured model outputs (Decision, PassSummary)
//   - Pass records and agent checkpoints written to persistence
//   - The Store interface implemented by the persistence backends
//
// The package keeps implementation concerns (model transports, dispatch,
// scheduling, storage engines) out of scope so the higher level packages can
// depend on it without import cycles.
package core
