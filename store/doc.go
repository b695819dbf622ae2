// Package store groups the core.Store implementations: memory for tests and
// ephemeral runs, sqlite for durable runs. Both share the same semantics.
package store
