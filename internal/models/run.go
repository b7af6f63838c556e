package models

import "time"

// RunState tracks the lifecycle of one analysis run.
type RunState string

const (
	RunStatePending            RunState = "pending"
	RunStateRunning            RunState = "running"
	RunStateCompleted          RunState = "completed"
	RunStatePartiallyCompleted RunState = "partially_completed"
	RunStateFailed             RunState = "failed"
	RunStateCancelled          RunState = "cancelled"
)

// Terminal reports whether the state is final.
func (s RunState) Terminal() bool {
	switch s {
	case RunStateCompleted, RunStatePartiallyCompleted, RunStateFailed, RunStateCancelled:
		return true
	}
	return false
}

// Run is the status view of one end-to-end analysis execution for a ticker.
type Run struct {
	ID          string      `json:"id"`
	Ticker      string      `json:"ticker"`
	State       RunState    `json:"state"`
	FailureKind FailureKind `json:"failure_kind,omitempty"`
	Error       string      `json:"error,omitempty"`
	StartedAt   time.Time   `json:"started_at"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
}
