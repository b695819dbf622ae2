package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agenthive/core"
	"github.com/hupe1980/agenthive/store/storetest"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	for _, stmt := range schemaStatements {
		mock.ExpectExec(regexp.QuoteMeta(stmt)).WillReturnResult(sqlmock.NewResult(0, 0))
	}
	s, err := NewFromDB(db)
	require.NoError(t, err)
	return s, mock
}

// -------------------- SQL Level Tests --------------------

func TestNewFromDB_Migrates(t *testing.T) {
	_, mock := newMockStore(t)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewFromDB_MigrationError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta(schemaStatements[0])).WillReturnError(errors.New("disk I/O error"))

	_, err = NewFromDB(db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migrate agent db")
}

func TestSaveAgent_Upsert(t *testing.T) {
	s, mock := newMockStore(t)
	date := time.Date(2024, 5, 1, 9, 30, 0, 0, time.Local)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO agents (agent_id, agent_name, pass_number, last_run_date) VALUES (?, ?, ?, ?) ON CONFLICT(agent_id) DO UPDATE")).
		WithArgs("a1", "alice", 3, "2024-05-01 09:30:00").
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, s.SaveAgent(context.Background(), core.Checkpoint{AgentID: "a1", AgentName: "alice", PassNumber: 3, LastRunDate: date}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveRunResult_StoresJSON(t *testing.T) {
	s, mock := newMockStore(t)
	rec := storetest.Record("a1", 2)
	payload, err := json.Marshal(rec)
	require.NoError(t, err)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO agent_run_results (pass_id, agent_id, pass_number, agent_run_result, run_date) VALUES (?, ?, ?, ?, ?)")).
		WithArgs(rec.PassID, "a1", 2, string(payload), rec.RunDate.Local().Format(TimeLayout)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, s.SaveRunResult(context.Background(), rec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveRunResult_WrapsError(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec("INSERT INTO agent_run_results").WillReturnError(errors.New("database is locked"))

	err := s.SaveRunResult(context.Background(), storetest.Record("a1", 1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "save run result a1-pass-1")
	assert.Contains(t, err.Error(), "database is locked")
}

func TestRunResults_Paging(t *testing.T) {
	s, mock := newMockStore(t)
	rec := storetest.Record("a1", 7)
	payload, err := json.Marshal(rec)
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT agent_run_result FROM agent_run_results WHERE agent_id = ? ORDER BY rowid DESC LIMIT ? OFFSET ?")).
		WithArgs("a1", -1, 0).
		WillReturnRows(sqlmock.NewRows([]string{"agent_run_result"}).AddRow(string(payload)))

	got, err := s.RunResults(context.Background(), "a1", 0, -4)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 7, got[0].PassNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunResults_CorruptPayload(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("SELECT agent_run_result").
		WillReturnRows(sqlmock.NewRows([]string{"agent_run_result"}).AddRow("{not json"))

	_, err := s.RunResults(context.Background(), "a1", 5, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode run result")
}

func TestAgents_ParsesDates(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT agent_id, agent_name, pass_number, last_run_date FROM agents ORDER BY agent_id")).
		WillReturnRows(sqlmock.NewRows([]string{"agent_id", "agent_name", "pass_number", "last_run_date"}).
			AddRow("a1", "alice", 2, "2024-05-01 09:30:00").
			AddRow("b2", nil, 0, nil))

	agents, err := s.Agents(context.Background())
	require.NoError(t, err)
	require.Len(t, agents, 2)
	assert.True(t, time.Date(2024, 5, 1, 9, 30, 0, 0, time.Local).Equal(agents[0].LastRunDate))
	assert.Equal(t, "", agents[1].AgentName)
	assert.True(t, agents[1].LastRunDate.IsZero())
}

// -------------------- File Backed Tests --------------------

func TestStore_Contract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) core.Store {
		s, err := Open(filepath.Join(t.TempDir(), "agents.db"))
		require.NoError(t, err)
		t.Cleanup(func() { s.Close() })
		return s
	})
}

func TestOpen_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "agents.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.SaveAgent(ctx, core.Checkpoint{AgentID: "a1", AgentName: "alice", PassNumber: 4}))
	require.NoError(t, s.SaveRunResult(ctx, storetest.Record("a1", 4)))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	agents, err := s.Agents(ctx)
	require.NoError(t, err)
	require.Len(t, agents, 1)
	assert.Equal(t, 4, agents[0].PassNumber)

	recs, err := s.RunResults(ctx, "a1", 10, 0)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}
