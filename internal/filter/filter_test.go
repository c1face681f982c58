package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Rob9999/ethos-ai-clim/internal/audit"
	"github.com/Rob9999/ethos-ai-clim/pkg/blackboard"
)

var base = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

func TestMatchesRecord(t *testing.T) {
	r := audit.Record{Kind: audit.KindTopicDenied, Actor: "Advisor", CreatedAt: base}

	tests := []struct {
		name string
		c    Criteria
		want bool
	}{
		{"no filters", Criteria{}, true},
		{"kind glob", Criteria{Kind: "topic_*"}, true},
		{"kind mismatch", Criteria{Kind: "task_*"}, false},
		{"actor", Criteria{Actor: "Advisor"}, true},
		{"actor mismatch", Criteria{Actor: "EthosAI Life ONE"}, false},
		{"since before", Criteria{Since: base.Add(-time.Minute)}, true},
		{"since after", Criteria{Since: base.Add(time.Minute)}, false},
		{"until inclusive", Criteria{Until: base}, true},
		{"until before", Criteria{Until: base.Add(-time.Second)}, false},
		{"bad glob", Criteria{Kind: "["}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.c.MatchesRecord(r))
		})
	}
}

func TestMatchesEvent(t *testing.T) {
	ev := &blackboard.Event{Type: blackboard.EventPhase, Subject: "DREAMING", TimestampMs: base.UnixMilli()}

	assert.True(t, (&Criteria{Kind: "phase"}).MatchesEvent(ev))
	assert.False(t, (&Criteria{Kind: "task"}).MatchesEvent(ev))
	assert.True(t, (&Criteria{Actor: "ignored"}).MatchesEvent(ev))
	assert.False(t, (&Criteria{Since: base.Add(time.Hour)}).MatchesEvent(ev))
}

func TestRecords(t *testing.T) {
	rs := []audit.Record{
		{ID: 1, Kind: audit.KindTaskDone},
		{ID: 2, Kind: audit.KindTopicReleased},
		{ID: 3, Kind: audit.KindTaskFailed},
	}

	c := Criteria{}
	assert.Len(t, c.Records(rs), 3)

	c.Kind = "task_*"
	got := c.Records(rs)
	if assert.Len(t, got, 2) {
		assert.Equal(t, int64(1), got[0].ID)
		assert.Equal(t, int64(3), got[1].ID)
	}
}
