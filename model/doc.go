// Package model defines the provider-agnostic contract between an agent pass
// and a language model: a list of messages plus an optional JSON schema in,
// raw text out.
//
// Core pieces:
//   - Model, the single-method transport interface
//   - TransportError with a Kind taxonomy, so callers branch via errors.As
//     and IsRetryable instead of matching strings
//   - Schema, reflected from Go structs and used both to instruct the model
//     and to validate its output
//   - Guard, caller-side policy (timeout, rate limit, circuit breaker, retry)
//   - MockModel, a scripted Model for tests and examples
//
// Providers (openai, anthropic, gollm) live in sub packages so the higher
// layers stay decoupled from vendor SDKs.
package model
