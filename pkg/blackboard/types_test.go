package blackboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rob9999/ethos-ai-clim/internal/decision"
)

func TestNew_SeedsLastResponse(t *testing.T) {
	bb := New("Should I help?")

	assert.Equal(t, "Should I help?", bb.Request)
	assert.Equal(t, "Should I help?", bb.LastResponse)
	assert.Equal(t, decision.None, bb.LastDecision)
	assert.NoError(t, bb.Validate())
}

func TestEntry_GetOrCreate(t *testing.T) {
	bb := New("x")

	first := bb.Entry("ETHIC", "prerun")
	first.Response = "GO"
	again := bb.Entry("ETHIC", "prerun")
	assert.Same(t, first, again)

	bb.Entry("SAMT", "prerun")
	assert.Equal(t, 2, bb.Len())

	_, ok := bb.Lookup("SAMT", "final")
	assert.False(t, ok)
	got, ok := bb.Lookup("ETHIC", "prerun")
	require.True(t, ok)
	assert.Equal(t, "GO", got.Response)
}

func TestEntries_KeepsWriteOrder(t *testing.T) {
	bb := New("x")
	bb.Entry("LTCLIM", "all")
	bb.Entry("ETHIC", "prerun")
	bb.Entry("SAMT", "final")

	var keys []string
	for _, e := range bb.Entries() {
		keys = append(keys, e.Key().String())
	}
	assert.Equal(t, []string{"LTCLIM/all", "ETHIC/prerun", "SAMT/final"}, keys)
}

func TestTranscript(t *testing.T) {
	bb := New("x")
	e := bb.Entry("ETHIC", "prerun")
	e.Decision = decision.Go
	e.Response = "GO, it is fine"
	e = bb.Entry("SAMT", "prerun")
	e.Decision = decision.Wait
	e.Response = "WAIT for help"

	assert.Equal(t, "ETHIC/prerun: GO - GO, it is fine\nSAMT/prerun: WAIT - WAIT for help", bb.Transcript())
}

func TestBlackboardValidate(t *testing.T) {
	bb := New("x")
	bb.ID = "not-a-uuid"
	assert.Error(t, bb.Validate())

	bb = New("x")
	bb.Entry("", "prerun")
	assert.Error(t, bb.Validate())
}

func TestEventValidate(t *testing.T) {
	tests := []struct {
		name    string
		event   Event
		wantErr bool
	}{
		{"valid decision", Event{Type: EventDecision, Subject: "id"}, false},
		{"valid phase", Event{Type: EventPhase, Subject: "DREAMING"}, false},
		{"unknown type", Event{Type: "other", Subject: "id"}, true},
		{"empty subject", Event{Type: EventTask}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.event.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
