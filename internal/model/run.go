package model

import (
	"time"

	"github.com/google/uuid"
)

// ProbeStatus represents the lifecycle state of a single probe.
type ProbeStatus string

const (
	ProbeStatusPending   ProbeStatus = "pending"
	ProbeStatusRunning   ProbeStatus = "running"
	ProbeStatusSucceeded ProbeStatus = "succeeded"
	ProbeStatusFailed    ProbeStatus = "failed"
	ProbeStatusSkipped   ProbeStatus = "skipped"
)

// Terminal reports whether the status is a terminal state.
func (s ProbeStatus) Terminal() bool {
	switch s {
	case ProbeStatusSucceeded, ProbeStatusFailed, ProbeStatusSkipped:
		return true
	}
	return false
}

// ProbeResult records the outcome of one probe invocation. It is written
// exactly once by the orchestrator's merge step and never mutated afterwards.
type ProbeResult struct {
	Name       string      `json:"name"`
	Status     ProbeStatus `json:"status"`
	Payload    any         `json:"payload,omitempty"`
	Error      string      `json:"error,omitempty"`
	StartedAt  time.Time   `json:"started_at,omitzero"`
	FinishedAt time.Time   `json:"finished_at,omitzero"`
	DurationMs int64       `json:"duration_ms"`
}

// Succeeded reports whether the probe finished with a usable payload.
func (r ProbeResult) Succeeded() bool {
	return r.Status == ProbeStatusSucceeded && r.Payload != nil
}

// AssessmentRun is the aggregate record of one end-to-end assessment.
// Results are written only by the orchestrator; CanonicalMetrics and
// CompositeScore are filled in by the decompose/aggregate stage. Once
// finalized the run is immutable and handed to the store.
type AssessmentRun struct {
	ID               string                 `json:"id"`
	Target           Target                 `json:"target"`
	StartedAt        time.Time              `json:"started_at"`
	FinishedAt       time.Time              `json:"finished_at,omitzero"`
	Results          map[string]ProbeResult `json:"results"`
	CompositeScore   *float64               `json:"composite_score"`
	CanonicalMetrics map[string]any         `json:"canonical_metrics,omitempty"`
}

// NewAssessmentRun creates a run with pending results for the given probes.
func NewAssessmentRun(target Target, probeNames []string) *AssessmentRun {
	results := make(map[string]ProbeResult, len(probeNames))
	for _, name := range probeNames {
		results[name] = ProbeResult{Name: name, Status: ProbeStatusPending}
	}
	return &AssessmentRun{
		ID:        uuid.New().String(),
		Target:    target,
		StartedAt: time.Now().UTC(),
		Results:   results,
	}
}

// CloneResults returns a shallow copy of the results map. Payloads are not
// deep-copied; consumers treat them as read-only.
func (a *AssessmentRun) CloneResults() map[string]ProbeResult {
	out := make(map[string]ProbeResult, len(a.Results))
	for k, v := range a.Results {
		out[k] = v
	}
	return out
}
