package state

import (
	"fmt"
	"time"
)

// ProcessPhase is the on/off state of the normal-operation process.
type ProcessPhase string

const (
	ProcessOff     ProcessPhase = "Off"
	ProcessRunning ProcessPhase = "Running"
)

// Process phase statuses.
const (
	StatusRunning   = "Running"
	StatusCompleted = "Completed"
)

// ProcessPhaseDetails records one run of the normal-operation process.
// Not safe for concurrent use; the owning process model guards it.
type ProcessPhaseDetails struct {
	Phase     ProcessPhase  `json:"phase"`
	ID        string        `json:"phase_id"`
	Type      string        `json:"phase_type"`
	Status    string        `json:"phase_status"`
	StartedAt time.Time     `json:"phase_start_time"`
	EndedAt   time.Time     `json:"phase_end_time,omitzero"`
	Duration  time.Duration `json:"phase_duration,omitempty"`
	Result    string        `json:"phase_result,omitempty"`
	Message   string        `json:"phase_message,omitempty"`
}

// NewProcessPhaseDetails starts tracking phase.
func NewProcessPhaseDetails(phase ProcessPhase) *ProcessPhaseDetails {
	d := &ProcessPhaseDetails{Type: "Process"}
	d.Set(phase)
	return d
}

// Set switches to phase and restarts the clock.
func (d *ProcessPhaseDetails) Set(phase ProcessPhase) {
	*d = ProcessPhaseDetails{
		Phase:     phase,
		ID:        string(phase),
		Type:      d.Type,
		Status:    StatusRunning,
		StartedAt: time.Now().UTC(),
	}
}

// Complete stamps the end of the phase and returns a report line.
func (d *ProcessPhaseDetails) Complete(result, message string) string {
	d.EndedAt = time.Now().UTC()
	d.Duration = d.EndedAt.Sub(d.StartedAt)
	d.Status = StatusCompleted
	d.Result = result
	d.Message = message
	return d.String()
}

func (d *ProcessPhaseDetails) String() string {
	return fmt.Sprintf("ProcessPhaseDetails(phase=%s, id=%s, type=%s, status=%s, started=%s, ended=%s, duration=%s, result=%s, message=%s)",
		d.Phase, d.ID, d.Type, d.Status,
		d.StartedAt.Format(time.RFC3339), d.EndedAt.Format(time.RFC3339), d.Duration, d.Result, d.Message)
}
