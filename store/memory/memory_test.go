package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agenthive/core"
	"github.com/hupe1980/agenthive/store/storetest"
)

func TestStore_Contract(t *testing.T) {
	storetest.Run(t, func(*testing.T) core.Store { return New() })
}

func TestStore_IsolatesCallerMutation(t *testing.T) {
	ctx := context.Background()
	s := New()
	rec := storetest.Record("a", 1)
	require.NoError(t, s.SaveRunResult(ctx, rec))

	rec.Decision.ToolCalls[0].Arguments["note"] = "changed"
	rec.RunMessages[0].Content = "changed"

	got, err := s.RunResults(ctx, "a", 1, 0)
	require.NoError(t, err)
	assert.Equal(t, "n", got[0].Decision.ToolCalls[0].Arguments["note"])
	assert.Equal(t, "sys", got[0].RunMessages[0].Content)

	got[0].Summary.Notes[0] = "changed"
	again, _ := s.RunResults(ctx, "a", 1, 0)
	assert.Equal(t, "n", again[0].Summary.Notes[0])
	assert.Equal(t, 1, s.Count("a"))
}

func TestStore_ClosedErrors(t *testing.T) {
	s := New()
	require.NoError(t, s.Close())
	_, err := s.Agents(context.Background())
	assert.ErrorIs(t, err, core.ErrStoreClosed)
}
