// Package state defines the agent's phases, priorities and the bookkeeping
// record of the normal-operation process.
package state

import (
	"fmt"
	"strings"
)

// Priority orders work; a lower value is more urgent.
type Priority int

const (
	PriorityEmergency Priority = iota + 1
	Priority1
	Priority2
	PriorityNormal
	PriorityLow
)

type priorityInfo struct {
	key         string
	display     string
	description string
}

var priorities = map[Priority]priorityInfo{
	PriorityEmergency: {"EMERGENCY", "Emergency", "Most urgent priority"},
	Priority1:         {"PRIO_1", "Priority 1", "Very high priority"},
	Priority2:         {"PRIO_2", "Priority 2", "High priority"},
	PriorityNormal:    {"NORMAL", "Normal", "Normal priority"},
	PriorityLow:       {"PRIO_LOW", "Low priority", "Low priority"},
}

// InterruptTiers are the tiers the scheduler checks before normal operation,
// most urgent first.
var InterruptTiers = []Priority{Priority1, Priority2, PriorityLow}

// String returns the priority key, e.g. "PRIO_1".
func (p Priority) String() string {
	if info, ok := priorities[p]; ok {
		return info.key
	}
	return fmt.Sprintf("Priority(%d)", int(p))
}

// DisplayName returns the human-readable name.
func (p Priority) DisplayName() string {
	return priorities[p].display
}

// Description returns the long description.
func (p Priority) Description() string {
	return priorities[p].description
}

// Less reports whether p is more urgent than other.
func (p Priority) Less(other Priority) bool {
	return p < other
}

// ParsePriority accepts a priority key in any case.
func ParsePriority(s string) (Priority, error) {
	key := strings.ToUpper(strings.TrimSpace(s))
	for p, info := range priorities {
		if info.key == key {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown priority %q", s)
}

func (p Priority) MarshalText() ([]byte, error) {
	if _, ok := priorities[p]; !ok {
		return nil, fmt.Errorf("unknown priority %d", int(p))
	}
	return []byte(p.String()), nil
}

func (p *Priority) UnmarshalText(text []byte) error {
	parsed, err := ParsePriority(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
