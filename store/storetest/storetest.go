// Package storetest holds a behavioural test suite shared by every core.Store
// implementation.
package storetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agenthive/core"
)

// Record builds a small but complete pass record.
func Record(agentID string, pass int) core.PassRecord {
	return core.PassRecord{
		PassID:      fmt.Sprintf("%s-pass-%d", agentID, pass),
		AgentID:     agentID,
		PassNumber:  pass,
		Model:       "mock",
		RunMessages: []core.Message{core.SystemMessage("sys"), core.UserMessage("go")},
		Decision: core.Decision{
			Thoughts:       "t",
			ToolCalls:      []core.ToolCall{{ToolsetID: "notes", Name: "add_note", Arguments: map[string]any{"note": "n"}}},
			ShouldContinue: true,
		},
		ToolResults: []core.Message{core.ToolMessage("ok")},
		Summary:     core.PassSummary{Summary: fmt.Sprintf("pass %d", pass), Notes: []string{"n"}},
		RunDate:     time.Date(2024, 5, 1, 12, 0, pass, 0, time.UTC),
	}
}

// Run exercises the core.Store contract against stores produced by newStore.
func Run(t *testing.T, newStore func(t *testing.T) core.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("SaveAgentUpserts", func(t *testing.T) {
		s := newStore(t)
		date := time.Date(2024, 5, 1, 12, 0, 0, 0, time.Local)

		require.NoError(t, s.SaveAgent(ctx, core.Checkpoint{AgentID: "b", AgentName: "bob", PassNumber: 1, LastRunDate: date}))
		require.NoError(t, s.SaveAgent(ctx, core.Checkpoint{AgentID: "a", AgentName: "alice", PassNumber: 1, LastRunDate: date}))
		require.NoError(t, s.SaveAgent(ctx, core.Checkpoint{AgentID: "b", AgentName: "bobby", PassNumber: 2, LastRunDate: date.Add(time.Minute)}))

		agents, err := s.Agents(ctx)
		require.NoError(t, err)
		require.Len(t, agents, 2)
		assert.Equal(t, "a", agents[0].AgentID)
		assert.Equal(t, "b", agents[1].AgentID)
		assert.Equal(t, "bobby", agents[1].AgentName)
		assert.Equal(t, 2, agents[1].PassNumber)
		assert.True(t, date.Add(time.Minute).Equal(agents[1].LastRunDate))
	})

	t.Run("RunResultsNewestFirst", func(t *testing.T) {
		s := newStore(t)
		for i := 1; i <= 5; i++ {
			require.NoError(t, s.SaveRunResult(ctx, Record("a", i)))
		}
		require.NoError(t, s.SaveRunResult(ctx, Record("b", 1)))

		all, err := s.RunResults(ctx, "a", 0, 0)
		require.NoError(t, err)
		require.Len(t, all, 5)
		assert.Equal(t, 5, all[0].PassNumber)
		assert.Equal(t, 1, all[4].PassNumber)

		page, err := s.RunResults(ctx, "a", 2, 1)
		require.NoError(t, err)
		require.Len(t, page, 2)
		assert.Equal(t, []int{4, 3}, []int{page[0].PassNumber, page[1].PassNumber})

		beyond, err := s.RunResults(ctx, "a", 10, 10)
		require.NoError(t, err)
		assert.Empty(t, beyond)

		none, err := s.RunResults(ctx, "ghost", 10, 0)
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("RecordRoundTrip", func(t *testing.T) {
		s := newStore(t)
		rec := Record("a", 1)
		require.NoError(t, s.SaveRunResult(ctx, rec))

		got, err := s.RunResults(ctx, "a", 1, 0)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, rec.PassID, got[0].PassID)
		assert.Equal(t, rec.Decision.ToolCalls[0].ToolsetID, got[0].Decision.ToolCalls[0].ToolsetID)
		assert.Equal(t, "n", got[0].Decision.ToolCalls[0].Arguments["note"])
		assert.Equal(t, rec.Summary.Summary, got[0].Summary.Summary)
		assert.True(t, rec.RunDate.Equal(got[0].RunDate))
	})

	t.Run("ClosedStoreFails", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Close())
		assert.Error(t, s.SaveAgent(ctx, core.Checkpoint{AgentID: "a"}))
		assert.Error(t, s.SaveRunResult(ctx, Record("a", 1)))
	})
}
