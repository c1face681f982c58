// Package task defines the interrupt work items the scheduler processes
// ahead of normal operation, and their per-priority FIFO queues.
package task

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Rob9999/ethos-ai-clim/internal/state"
	"github.com/Rob9999/ethos-ai-clim/pkg/blackboard"
)

// Type names what a task asks the individual to do.
type Type string

const (
	TypeService         Type = "SERVICE"
	TypeDream           Type = "DREAM"
	TypeTrainEthic      Type = "TRAIN_ETHIC"
	TypeTrainIndividual Type = "TRAIN_INDIVIDUAL"
	TypeTrainClim       Type = "TRAIN_CLIM"
	TypeStop            Type = "STOP"
	TypeStart           Type = "START"
	TypeAutonomLiving   Type = "AUTONOM_LIVING"
	TypeAdvisedLiving   Type = "ADVISED_LIVING"
)

// Types lists every task type.
func Types() []Type {
	return []Type{
		TypeService, TypeDream, TypeTrainEthic, TypeTrainIndividual, TypeTrainClim,
		TypeStop, TypeStart, TypeAutonomLiving, TypeAdvisedLiving,
	}
}

// ParseType accepts a task type in any case.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Types() {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown task type %q", s)
}

// Task is one queued work item.
type Task struct {
	ID          string         `json:"id"`
	Type        Type           `json:"type"`
	Priority    state.Priority `json:"priority"`
	SubmittedAt time.Time      `json:"submitted_at"`
}

// New creates a task with a fresh ID.
func New(t Type, p state.Priority) *Task {
	return &Task{ID: uuid.New().String(), Type: t, Priority: p, SubmittedAt: time.Now()}
}

// Record returns the external view mirrored to Redis.
func (t *Task) Record() blackboard.TaskRecord {
	return blackboard.TaskRecord{
		ID:            t.ID,
		Type:          string(t.Type),
		Priority:      t.Priority.String(),
		SubmittedAtMs: t.SubmittedAt.UnixMilli(),
	}
}

func (t *Task) String() string {
	return string(t.Type)
}

// ErrUnknownType is the cause of an ExecutionError for a task type the
// scheduler has no handler for.
var ErrUnknownType = errors.New("unknown task type")

// ExecutionError reports a task the scheduler could not process.
type ExecutionError struct {
	Task *Task
	Err  error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("task %s (%s) failed: %v", e.Task.Type, e.Task.ID, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}
