package blackboard

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/Rob9999/ethos-ai-clim/internal/decision"
)

// Serialization helpers for converting between blackboards and Redis hashes.
//
// Scalar fields map to hash fields; the ordered entry list is JSON-encoded
// into a single field.

// BlackboardToHash converts a Blackboard to Redis hash format.
func BlackboardToHash(b *Blackboard) (map[string]interface{}, error) {
	entries := b.entries
	if entries == nil {
		entries = []*Entry{}
	}
	entriesJSON, err := json.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal entries: %w", err)
	}

	lastDecision, err := b.LastDecision.MarshalText()
	if err != nil {
		return nil, fmt.Errorf("failed to encode last decision: %w", err)
	}

	return map[string]interface{}{
		"id":            b.ID,
		"request":       b.Request,
		"last_response": b.LastResponse,
		"last_decision": string(lastDecision),
		"created_at_ms": b.CreatedAtMs,
		"entries":       string(entriesJSON),
	}, nil
}

// HashToBlackboard converts a Redis hash back to a Blackboard.
func HashToBlackboard(hash map[string]string) (*Blackboard, error) {
	var lastDecision decision.Decision
	if err := lastDecision.UnmarshalText([]byte(hash["last_decision"])); err != nil {
		return nil, fmt.Errorf("invalid last_decision field: %w", err)
	}

	var entries []*Entry
	if raw := hash["entries"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &entries); err != nil {
			return nil, fmt.Errorf("failed to unmarshal entries: %w", err)
		}
	}

	createdAtMs, _ := strconv.ParseInt(hash["created_at_ms"], 10, 64)

	b := &Blackboard{
		ID:           hash["id"],
		Request:      hash["request"],
		LastResponse: hash["last_response"],
		LastDecision: lastDecision,
		CreatedAtMs:  createdAtMs,
	}
	b.restore(entries)
	return b, nil
}
