// Package filter selects ledger records and live events for the CLI.
package filter

import (
	"path/filepath"
	"time"

	"github.com/Rob9999/ethos-ai-clim/internal/audit"
	"github.com/Rob9999/ethos-ai-clim/pkg/blackboard"
)

// Criteria are ANDed; zero values match everything.
type Criteria struct {
	Since time.Time
	Until time.Time
	Kind  string // Glob over the ledger kind or event type, e.g. "topic_*"
	Actor string // Exact ledger actor
}

// HasFilters reports whether any criterion is set.
func (c *Criteria) HasFilters() bool {
	return !c.Since.IsZero() || !c.Until.IsZero() || c.Kind != "" || c.Actor != ""
}

// MatchesRecord reports whether r passes every criterion.
func (c *Criteria) MatchesRecord(r audit.Record) bool {
	if !c.inRange(r.CreatedAt) || !c.kindMatches(r.Kind) {
		return false
	}
	return c.Actor == "" || r.Actor == c.Actor
}

// MatchesEvent reports whether ev passes. Actor does not apply to events.
func (c *Criteria) MatchesEvent(ev *blackboard.Event) bool {
	return c.inRange(time.UnixMilli(ev.TimestampMs)) && c.kindMatches(string(ev.Type))
}

func (c *Criteria) inRange(t time.Time) bool {
	if !c.Since.IsZero() && t.Before(c.Since) {
		return false
	}
	return c.Until.IsZero() || !t.After(c.Until)
}

func (c *Criteria) kindMatches(kind string) bool {
	if c.Kind == "" {
		return true
	}
	matched, err := filepath.Match(c.Kind, kind)
	return err == nil && matched
}

// Records returns the records of rs that match, in order.
func (c *Criteria) Records(rs []audit.Record) []audit.Record {
	if !c.HasFilters() {
		return rs
	}
	out := make([]audit.Record, 0, len(rs))
	for _, r := range rs {
		if c.MatchesRecord(r) {
			out = append(out, r)
		}
	}
	return out
}
