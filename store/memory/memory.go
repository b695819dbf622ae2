// Package memory provides a volatile core.Store backed by process memory.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/hupe1980/agenthive/core"
)

// Store is a core.Store keeping checkpoints and pass records in maps. It is
// safe for concurrent access. Values are cloned on the way in and out.
type Store struct {
	mu      sync.RWMutex
	agents  map[string]core.Checkpoint
	records map[string][]core.PassRecord
	closed  bool
}

// New constructs an empty store.
func New() *Store {
	return &Store{
		agents:  make(map[string]core.Checkpoint),
		records: make(map[string][]core.PassRecord),
	}
}

// SaveAgent upserts the checkpoint keyed by AgentID.
func (s *Store) SaveAgent(_ context.Context, cp core.Checkpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return core.ErrStoreClosed
	}
	s.agents[cp.AgentID] = cp
	return nil
}

// SaveRunResult appends a pass record.
func (s *Store) SaveRunResult(_ context.Context, rec core.PassRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return core.ErrStoreClosed
	}
	s.records[rec.AgentID] = append(s.records[rec.AgentID], rec.Clone())
	return nil
}

// RunResults returns an agent's records newest first. A non-positive limit
// returns everything after offset.
func (s *Store) RunResults(_ context.Context, agentID string, limit, offset int) ([]core.PassRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, core.ErrStoreClosed
	}

	recs := s.records[agentID]
	if offset < 0 {
		offset = 0
	}
	out := make([]core.PassRecord, 0)
	for i := len(recs) - 1 - offset; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, recs[i].Clone())
	}
	return out, nil
}

// Agents lists checkpoints ordered by agent id.
func (s *Store) Agents(_ context.Context) ([]core.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, core.ErrStoreClosed
	}
	out := make([]core.Checkpoint, 0, len(s.agents))
	for _, cp := range s.agents {
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AgentID < out[j].AgentID })
	return out, nil
}

// Count returns the number of records stored for an agent.
func (s *Store) Count(agentID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records[agentID])
}

// Close discards all data. Further calls return core.ErrStoreClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.agents = nil
	s.records = nil
	return nil
}

var _ core.Store = (*Store)(nil)
