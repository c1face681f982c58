package blackboard

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rob9999/ethos-ai-clim/internal/decision"
)

func TestBlackboardHashRoundTrip(t *testing.T) {
	bb := New("help a friend")
	e := bb.Entry("ETHIC", "prerun")
	e.Prompt = "p"
	e.Response = "GO"
	e.Decision = decision.Go
	e.SubjectOfDecision = "Response: GO"
	bb.LastDecision = decision.Go
	bb.LastResponse = "GO"

	hash, err := BlackboardToHash(bb)
	require.NoError(t, err)

	// Redis returns every field as a string
	strHash := make(map[string]string, len(hash))
	for k, v := range hash {
		switch val := v.(type) {
		case string:
			strHash[k] = val
		case int64:
			strHash[k] = strconv.FormatInt(val, 10)
		}
	}

	restored, err := HashToBlackboard(strHash)
	require.NoError(t, err)
	assert.Equal(t, bb.ID, restored.ID)
	assert.Equal(t, decision.Go, restored.LastDecision)
	assert.Equal(t, bb.CreatedAtMs, restored.CreatedAtMs)

	got, ok := restored.Lookup("ETHIC", "prerun")
	require.True(t, ok)
	assert.Equal(t, *e, *got)
}

func TestHashToBlackboard_Errors(t *testing.T) {
	_, err := HashToBlackboard(map[string]string{"last_decision": "PERHAPS"})
	assert.Error(t, err)

	_, err = HashToBlackboard(map[string]string{"entries": "{not json"})
	assert.Error(t, err)
}

func TestHashToBlackboard_NoEntries(t *testing.T) {
	bb, err := HashToBlackboard(map[string]string{"id": "x"})
	require.NoError(t, err)
	assert.Equal(t, 0, bb.Len())
	assert.Equal(t, decision.None, bb.LastDecision)
}
