package agent

import (
	"errors"
	"fmt"
)

// ErrStopped is returned by RunPass on an agent that is no longer running.
var ErrStopped = errors.New("agent is stopped")

// Stage names the step of a pass that failed.
type Stage string

const (
	// StageDecision covers the decision model call and its validation.
	StageDecision Stage = "decision"
	// StageSummary covers the summary model call and its validation.
	StageSummary Stage = "summary"
	// StagePersist covers saving the record after the pass completed.
	// Agent state has already advanced when this stage fails.
	StagePersist Stage = "persist"
)

// PassError wraps a pass-fatal error with where it happened.
// Use errors.As to reach the *model.TransportError or *core.ValidationError inside.
type PassError struct {
	AgentID    string
	PassNumber int
	Stage      Stage
	Err        error
}

func (e *PassError) Error() string {
	return fmt.Sprintf("agent %s pass %d: %s: %v", e.AgentID, e.PassNumber, e.Stage, e.Err)
}

func (e *PassError) Unwrap() error { return e.Err }
