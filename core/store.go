package core

import (
	"context"
	"errors"
)

// ErrStoreClosed is returned by stores used after Close.
var ErrStoreClosed = errors.New("store is closed")

// Store persists agent checkpoints and pass records.
// Implementations must be safe for concurrent use.
type Store interface {
	// SaveAgent upserts the checkpoint keyed by AgentID.
	SaveAgent(ctx context.Context, cp Checkpoint) error
	// SaveRunResult appends a pass record.
	SaveRunResult(ctx context.Context, rec PassRecord) error
	// RunResults pages through an agent's pass records, newest first.
	RunResults(ctx context.Context, agentID string, limit, offset int) ([]PassRecord, error)
	// Agents lists all checkpoints ordered by agent id.
	Agents(ctx context.Context) ([]Checkpoint, error)
	// Close releases backend resources.
	Close() error
}
