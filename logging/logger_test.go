package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(level LogLevel) (*HiveLogger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	cfg := DefaultLoggerConfig()
	cfg.Level = level
	cfg.Output = buf
	return NewLogger(cfg), buf
}

func lastEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.NotEmpty(t, lines)
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &entry))
	return entry
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    LogLevel
		wantErr bool
	}{
		{"debug", LogLevelDebug, false},
		{"INFO", LogLevelInfo, false},
		{"", LogLevelInfo, false},
		{"warning", LogLevelWarn, false},
		{"error", LogLevelError, false},
		{"loud", LogLevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		assert.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestHiveLogger_WithAgentAddsIdentity(t *testing.T) {
	l, buf := newBufferLogger(LogLevelDebug)
	l.WithComponent("agent").WithAgent("abc", "scout").Info("agent.pass.start", "pass_number", 3)

	entry := lastEntry(t, buf)
	assert.Equal(t, "agent.pass.start", entry["msg"])
	assert.Equal(t, "agent", entry["component"])
	assert.Equal(t, "abc", entry["agent_id"])
	assert.Equal(t, "scout", entry["agent_name"])
	assert.Equal(t, float64(3), entry["pass_number"])
}

func TestHiveLogger_WithContextDoesNotLeak(t *testing.T) {
	base, buf := newBufferLogger(LogLevelDebug)
	_ = base.WithContext("k", "v")
	base.Info("plain")

	entry := lastEntry(t, buf)
	_, ok := entry["k"]
	assert.False(t, ok)
}

func TestHiveLogger_LevelFiltering(t *testing.T) {
	l, buf := newBufferLogger(LogLevelWarn)
	l.Debug("hidden")
	l.Info("hidden")
	assert.Empty(t, buf.String())

	l.Warn("shown")
	assert.Equal(t, "shown", lastEntry(t, buf)["msg"])
}

func TestHiveLogger_LogToolCall(t *testing.T) {
	l, buf := newBufferLogger(LogLevelInfo)
	l.LogToolCall("notes_manager", "add_note", 5*time.Millisecond, false, errors.New("boom"))

	entry := lastEntry(t, buf)
	assert.Equal(t, "tool.dispatch.failed", entry["msg"])
	assert.Equal(t, "notes_manager", entry["toolset_id"])
	assert.Equal(t, "add_note", entry["tool_name"])
	assert.Equal(t, "boom", entry["error"])
	assert.Equal(t, false, entry["success"])
}

func TestHiveLogger_LogPass(t *testing.T) {
	l, buf := newBufferLogger(LogLevelInfo)
	l.LogPass(2, 1, time.Second, true, nil)
	entry := lastEntry(t, buf)
	assert.Equal(t, "agent.pass.completed", entry["msg"])
	assert.Equal(t, float64(2), entry["pass_number"])

	l.LogPass(2, 0, time.Second, true, errors.New("decode"))
	assert.Equal(t, "agent.pass.failed", lastEntry(t, buf)["msg"])
}

func TestOrNoOp(t *testing.T) {
	assert.IsType(t, NoOpLogger{}, OrNoOp(nil))
	l, _ := newBufferLogger(LogLevelInfo)
	assert.Same(t, l, OrNoOp(l))
}
