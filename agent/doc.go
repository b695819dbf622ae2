// Package agent implements the agent pass state machine.
//
// An Agent is RUNNING until a decision asks it to stop, after which it is
// STOPPED for good. Each call to RunPass gathers standing context, asks the
// model for a structured decision, dispatches the requested tool calls, asks
// for a summary, and persists a record of the pass. Collaborators are passed
// explicitly through an AgentContext.
//
// Errors that end a pass are wrapped in *PassError, which names the failing
// Stage. The underlying *model.TransportError or *core.ValidationError can be
// recovered with errors.As.
package agent
