// Package sqlite provides a durable core.Store on SQLite (modernc.org/sqlite,
// no cgo). Checkpoints live in the agents table; each pass record is stored as
// JSON in agent_run_results.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hupe1980/agenthive/core"
)

// TimeLayout is the text format of the run_date and last_run_date columns,
// in local time.
const TimeLayout = "2006-01-02 15:04:05"

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS agents (
		agent_id      TEXT UNIQUE,
		agent_name    TEXT,
		pass_number   INTEGER,
		last_run_date TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS agent_run_results (
		pass_id          TEXT,
		agent_id         TEXT,
		pass_number      INTEGER,
		agent_run_result TEXT,
		run_date         TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_agent_run_results_agent_id ON agent_run_results(agent_id)`,
	`CREATE INDEX IF NOT EXISTS idx_agents_pass_number ON agents(pass_number)`,
	`CREATE INDEX IF NOT EXISTS idx_agent_run_results_run_date ON agent_run_results(run_date)`,
	`CREATE INDEX IF NOT EXISTS idx_agents_last_run_date ON agents(last_run_date)`,
	`CREATE INDEX IF NOT EXISTS idx_agent_run_results_pass_number ON agent_run_results(pass_number)`,
}

// Store implements core.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.Mutex // serializes writes
}

// Open opens (or creates) the database at path and runs the schema migration.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open agent db: %w", err)
	}
	// one connection, or every ":memory:" connection sees its own database
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	s, err := NewFromDB(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewFromDB wraps an open database and runs the schema migration.
func NewFromDB(db *sql.DB) (*Store, error) {
	if err := migrate(db); err != nil {
		return nil, fmt.Errorf("migrate agent db: %w", err)
	}
	return &Store{db: db}, nil
}

func migrate(db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// SaveAgent upserts the checkpoint keyed by AgentID.
func (s *Store) SaveAgent(ctx context.Context, cp core.Checkpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO agents (agent_id, agent_name, pass_number, last_run_date) VALUES (?, ?, ?, ?)
		ON CONFLICT(agent_id) DO UPDATE SET
			agent_name = excluded.agent_name,
			pass_number = excluded.pass_number,
			last_run_date = excluded.last_run_date`,
		cp.AgentID, cp.AgentName, cp.PassNumber, formatTime(cp.LastRunDate),
	)
	if err != nil {
		return fmt.Errorf("save agent %s: %w", cp.AgentID, err)
	}
	return nil
}

// SaveRunResult appends a pass record.
func (s *Store) SaveRunResult(ctx context.Context, rec core.PassRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal run result: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO agent_run_results (pass_id, agent_id, pass_number, agent_run_result, run_date) VALUES (?, ?, ?, ?, ?)",
		rec.PassID, rec.AgentID, rec.PassNumber, string(payload), formatTime(rec.RunDate),
	)
	if err != nil {
		return fmt.Errorf("save run result %s: %w", rec.PassID, err)
	}
	return nil
}

// RunResults returns an agent's records newest first. A non-positive limit
// returns everything after offset.
func (s *Store) RunResults(ctx context.Context, agentID string, limit, offset int) ([]core.PassRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT agent_run_result FROM agent_run_results WHERE agent_id = ? ORDER BY rowid DESC LIMIT ? OFFSET ?",
		agentID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("query run results: %w", err)
	}
	defer rows.Close()

	out := make([]core.PassRecord, 0)
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan run result: %w", err)
		}
		var rec core.PassRecord
		if err := json.Unmarshal([]byte(payload), &rec); err != nil {
			return nil, fmt.Errorf("decode run result: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Agents lists checkpoints ordered by agent id.
func (s *Store) Agents(ctx context.Context) ([]core.Checkpoint, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT agent_id, agent_name, pass_number, last_run_date FROM agents ORDER BY agent_id")
	if err != nil {
		return nil, fmt.Errorf("query agents: %w", err)
	}
	defer rows.Close()

	out := make([]core.Checkpoint, 0)
	for rows.Next() {
		var (
			cp   core.Checkpoint
			name sql.NullString
			date sql.NullString
		)
		if err := rows.Scan(&cp.AgentID, &name, &cp.PassNumber, &date); err != nil {
			return nil, fmt.Errorf("scan agent: %w", err)
		}
		cp.AgentName = name.String
		if date.Valid && date.String != "" {
			t, err := time.ParseInLocation(TimeLayout, date.String, time.Local)
			if err != nil {
				return nil, fmt.Errorf("parse last_run_date %q: %w", date.String, err)
			}
			cp.LastRunDate = t
		}
		out = append(out, cp)
	}
	return out, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(TimeLayout)
}

var _ core.Store = (*Store)(nil)
