package state

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriority_Order(t *testing.T) {
	assert.True(t, PriorityEmergency.Less(Priority1))
	assert.True(t, Priority1.Less(Priority2))
	assert.True(t, Priority2.Less(PriorityNormal))
	assert.True(t, PriorityNormal.Less(PriorityLow))
	assert.False(t, PriorityLow.Less(Priority1))
}

func TestParsePriority(t *testing.T) {
	tests := []struct {
		in      string
		want    Priority
		wantErr bool
	}{
		{"PRIO_1", Priority1, false},
		{"prio_low", PriorityLow, false},
		{"EMERGENCY", PriorityEmergency, false},
		{"URGENT", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePriority(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPriority_JSON(t *testing.T) {
	data, err := json.Marshal(map[string]Priority{"p": Priority2})
	require.NoError(t, err)
	assert.JSONEq(t, `{"p":"PRIO_2"}`, string(data))
	assert.Equal(t, "Priority 2", Priority2.DisplayName())
}

func TestPhase_Next(t *testing.T) {
	tests := []struct {
		from, want Phase
	}{
		{PhaseDreaming, PhaseSleeping},
		{PhaseSleeping, PhaseWaking},
		{PhaseWaking, PhaseDreaming},
		{PhaseThinking, PhaseActing},
		{PhaseActing, PhaseThinking},
		{PhaseStopping, PhaseOff},
		{PhaseMaintenance, PhaseDreaming},
		{PhaseHandlePriority1Tasks, PhaseDreaming},
		{Phase("UNKNOWN"), PhaseDreaming},
	}
	for _, tt := range tests {
		t.Run(string(tt.from), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.Next())
		})
	}
}

func TestPhase_Metadata(t *testing.T) {
	assert.Len(t, Phases(), 28)
	for _, p := range Phases() {
		assert.NotEmpty(t, p.DisplayName(), p)
		assert.True(t, p.Valid())
	}
	assert.Equal(t, Priority1, PhaseHandlePriority1Tasks.Priority())
	assert.Equal(t, PriorityEmergency, PhaseEmergency.Priority())
	assert.Equal(t, PriorityNormal, PhaseDreaming.Priority())
	assert.False(t, Phase("NOPE").Valid())
}

func TestTierPhases(t *testing.T) {
	assert.Equal(t, PhaseHandlePriority2Tasks, HandlePhaseFor(Priority2))
	assert.Equal(t, MaintenanceCheckingPriorityLow, CheckingPhaseFor(PriorityLow))
	assert.Equal(t, MaintenanceHandlingPriority1, HandlingPhaseFor(Priority1))
	assert.Equal(t, MaintenanceNone, CheckingPhaseFor(PriorityNormal))
}

func TestProcessPhaseDetails(t *testing.T) {
	d := NewProcessPhaseDetails(ProcessRunning)
	assert.Equal(t, ProcessRunning, d.Phase)
	assert.Equal(t, StatusRunning, d.Status)
	assert.False(t, d.StartedAt.IsZero())

	report := d.Complete("stopped", "Process model stopped.")
	assert.Equal(t, StatusCompleted, d.Status)
	assert.GreaterOrEqual(t, d.Duration.Nanoseconds(), int64(0))
	assert.Contains(t, report, "result=stopped")
	assert.Contains(t, report, "message=Process model stopped.")

	d.Set(ProcessOff)
	assert.Equal(t, ProcessOff, d.Phase)
	assert.Equal(t, StatusRunning, d.Status)
	assert.Empty(t, d.Result)
	assert.Equal(t, "Process", d.Type)
}
