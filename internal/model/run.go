package model

import "time"

// RunStatus represents the current state of a lookup run.
type RunStatus string

const (
	RunStatusQueued      RunStatus = "queued"
	RunStatusSearching   RunStatus = "searching"
	RunStatusResolving   RunStatus = "resolving"
	RunStatusCollecting  RunStatus = "collecting"
	RunStatusAggregating RunStatus = "aggregating"
	RunStatusComplete    RunStatus = "complete"
	RunStatusFailed      RunStatus = "failed"
)

// Subject is the lookup target: a name plus its anchors.
type Subject struct {
	Name    string  `json:"name"`
	Anchors Anchors `json:"anchors"`
}

// Run records one pipeline execution for the store.
type Run struct {
	ID        string    `json:"id"`
	Subject   Subject   `json:"subject"`
	Status    RunStatus `json:"status"`
	Outcome   Outcome   `json:"outcome,omitempty"`
	Profile   *Profile  `json:"profile,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RunPhase is one tracked phase row within a run.
type RunPhase struct {
	ID        string      `json:"id"`
	RunID     string      `json:"run_id"`
	Name      string      `json:"name"`
	Status    PhaseStatus `json:"status"`
	StartedAt time.Time   `json:"started_at"`
}

// PhaseStatus represents the current state of a pipeline phase.
type PhaseStatus string

const (
	PhaseStatusRunning  PhaseStatus = "running"
	PhaseStatusComplete PhaseStatus = "complete"
	PhaseStatusFailed   PhaseStatus = "failed"
	PhaseStatusSkipped  PhaseStatus = "skipped"
)

// PhaseResult holds the outcome of a pipeline phase.
type PhaseResult struct {
	Name     string         `json:"name"`
	Status   PhaseStatus    `json:"status"`
	Duration int64          `json:"duration_ms"`
	Error    string         `json:"error,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}
