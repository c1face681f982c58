package blackboard

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Rob9999/ethos-ai-clim/internal/decision"
)

// Key identifies one entry on a blackboard.
type Key struct {
	Layer string `json:"layer"` // Layer name, e.g. "ETHIC"
	Stage string `json:"stage"` // Stage tag, e.g. "prerun" or "EMERGENCY_SURVIVAL"
}

// String renders the key as LAYER/stage.
func (k Key) String() string {
	return k.Layer + "/" + k.Stage
}

// Entry is the record one layer leaves for one stage.
type Entry struct {
	Layer             string            `json:"layer"`
	Stage             string            `json:"stage"`
	Prompt            string            `json:"prompt"`
	Response          string            `json:"response"`
	Decision          decision.Decision `json:"decision"`
	SubjectOfDecision string            `json:"subject_of_decision"`
}

// Key returns the entry's blackboard key.
func (e *Entry) Key() Key {
	return Key{Layer: e.Layer, Stage: e.Stage}
}

// Blackboard is the working memory of one pipeline run.
// It is not safe for concurrent use; one run owns it at a time.
type Blackboard struct {
	ID           string            `json:"id"`
	Request      string            `json:"request"`
	LastResponse string            `json:"last_response"`
	LastDecision decision.Decision `json:"last_decision"`
	CreatedAtMs  int64             `json:"created_at_ms"`

	entries []*Entry
	index   map[Key]*Entry
}

// New creates a blackboard whose LastResponse is seeded with request, so the
// first layer of the pipeline formats its prompt with the request text.
func New(request string) *Blackboard {
	return &Blackboard{
		ID:           uuid.New().String(),
		Request:      request,
		LastResponse: request,
		CreatedAtMs:  time.Now().UnixMilli(),
		index:        make(map[Key]*Entry),
	}
}

// Entry returns the entry for (layer, stage), creating it on first access.
func (b *Blackboard) Entry(layer, stage string) *Entry {
	if b.index == nil {
		b.index = make(map[Key]*Entry)
	}
	key := Key{Layer: layer, Stage: stage}
	if e, ok := b.index[key]; ok {
		return e
	}
	e := &Entry{Layer: layer, Stage: stage}
	b.entries = append(b.entries, e)
	b.index[key] = e
	return e
}

// Lookup returns the entry for (layer, stage) without creating it.
func (b *Blackboard) Lookup(layer, stage string) (*Entry, bool) {
	e, ok := b.index[Key{Layer: layer, Stage: stage}]
	return e, ok
}

// Entries returns the entries in the order they were first written.
func (b *Blackboard) Entries() []*Entry {
	out := make([]*Entry, len(b.entries))
	copy(out, b.entries)
	return out
}

// Len returns the number of entries.
func (b *Blackboard) Len() int {
	return len(b.entries)
}

// SetLastResponse records the latest filtered layer response.
func (b *Blackboard) SetLastResponse(response string) {
	b.LastResponse = response
}

// SetLastDecision records the latest layer decision.
func (b *Blackboard) SetLastDecision(d decision.Decision) {
	b.LastDecision = d
}

// Transcript renders every entry as one line, in write order.
// Used as the human-readable rationale of a simulation.
func (b *Blackboard) Transcript() string {
	var sb strings.Builder
	for i, e := range b.entries {
		if i > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "%s: %s - %s", e.Key(), e.Decision, e.Response)
	}
	return sb.String()
}

// Validate checks the fields required before a blackboard is persisted.
func (b *Blackboard) Validate() error {
	if _, err := uuid.Parse(b.ID); err != nil {
		return fmt.Errorf("invalid blackboard ID: %w", err)
	}
	for _, e := range b.entries {
		if e.Layer == "" || e.Stage == "" {
			return fmt.Errorf("entry with empty layer or stage")
		}
	}
	return nil
}

// restore replaces the entries, rebuilding the index. Used by deserialization.
func (b *Blackboard) restore(entries []*Entry) {
	b.entries = nil
	b.index = make(map[Key]*Entry, len(entries))
	for _, e := range entries {
		if _, dup := b.index[e.Key()]; dup {
			continue
		}
		b.entries = append(b.entries, e)
		b.index[e.Key()] = e
	}
}

// EventType classifies events published on the events channel.
type EventType string

const (
	// EventDecision is published when a finished blackboard is saved
	EventDecision EventType = "decision"

	// EventTopic is published when a topic is released, denied or requeued
	EventTopic EventType = "topic"

	// EventPhase is published when the agent changes phase
	EventPhase EventType = "phase"

	// EventTask is published when a task is submitted, done or failed
	EventTask EventType = "task"
)

// Validate checks that the event type is known.
func (t EventType) Validate() error {
	switch t {
	case EventDecision, EventTopic, EventPhase, EventTask:
		return nil
	default:
		return fmt.Errorf("invalid event type: %q", t)
	}
}

// Event is the envelope published to the events channel.
type Event struct {
	Type        EventType `json:"type"`
	Subject     string    `json:"subject"`          // Blackboard ID, topic description, phase or task ID
	Status      string    `json:"status,omitempty"` // Decision, phase name, "released", "denied", ...
	Detail      string    `json:"detail,omitempty"`
	TimestampMs int64     `json:"timestamp_ms"`
}

// Validate checks the event before publishing.
func (e *Event) Validate() error {
	if err := e.Type.Validate(); err != nil {
		return err
	}
	if e.Subject == "" {
		return fmt.Errorf("event subject cannot be empty")
	}
	return nil
}

// TaskRecord is the external view of a queued task, mirrored to Redis.
type TaskRecord struct {
	ID            string `json:"id"`
	Type          string `json:"type"`
	Priority      string `json:"priority"`
	SubmittedAtMs int64  `json:"submitted_at_ms"`
}
