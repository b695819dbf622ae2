// Package prompt builds the message lists sent to the model during a pass.
//
// Assemble produces the decision prompt in a fixed order: one system message,
// the orchestrator's post-system messages, the most recent buffered messages,
// and a continuation message carrying the previous pass summary. Its
// counterpart AssembleSummary produces the prompt for the end-of-pass summary.
package prompt
