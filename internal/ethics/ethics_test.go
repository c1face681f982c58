package ethics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Rob9999/ethos-ai-clim/internal/decision"
	"github.com/Rob9999/ethos-ai-clim/internal/i18n"
)

func translator(t *testing.T) *i18n.Translator {
	t.Helper()
	tr, err := i18n.New("en")
	require.NoError(t, err)
	return tr
}

func TestDomainValue(t *testing.T) {
	tests := []struct {
		name  string
		score float64
		d     Domain
		want  float64
	}{
		{"at threshold", 0.7, Domain{Threshold: 0.7, Importance: 1}, 0},
		{"full score", 1.0, Domain{Threshold: 0.5, Importance: 0.7}, 7},
		{"below threshold", 0.5, Domain{Threshold: 0.6, Importance: 0.8}, -2},
		{"threshold capped at .99", 1.0, Domain{Threshold: 1.0, Importance: 1}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, DomainValue(tt.score, tt.d), 1e-9)
		})
	}
}

func TestEvaluate(t *testing.T) {
	m := NewModule(Domains(), translator(t))

	t.Run("neutral signal is critical everywhere", func(t *testing.T) {
		ev := m.Evaluate(nil)
		require.Len(t, ev.DomainValues, 11)
		assert.Less(t, ev.Overall, 0.0)
		assert.Equal(t, decision.NoGo, ev.Decision)
		assert.True(t, strings.HasPrefix(ev.Summary, "Decision: NOGO."))
		assert.Contains(t, ev.Summary, "Domain 1 (Risk of Injury): critical value of")
	})

	t.Run("strong signal is supportive", func(t *testing.T) {
		ev := m.Evaluate([]float64{8, 10, 12})
		assert.Greater(t, ev.Overall, 0.0)
		assert.Equal(t, decision.Go, ev.Decision)
		assert.Contains(t, ev.Summary, "Domain 11 (Responsibility): supportive value of")
	})
}

func TestQuestions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ethics", "ethics.json")
	q := NewQuestions(Domains(), translator(t), path, zap.NewNop())

	all := q.All()
	require.Len(t, all, 11)
	assert.Equal(t, "Is there a need for action regarding the domain Risk of Injury in the current state?", all[0])

	assert.False(t, q.Add("Why?"), "too short")
	assert.False(t, q.Add("This is not a question"), "no question mark")
	assert.True(t, q.Add("Should I call my parents more often?"))
	assert.False(t, q.Add("Should I call my parents more often?"), "duplicate")
	assert.Len(t, q.All(), 12)

	require.NoError(t, q.Save())

	reloaded := NewQuestions(Domains(), translator(t), path, zap.NewNop())
	assert.Equal(t, q.All(), reloaded.All())
}

func TestQuestions_CorruptFileIgnored(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ethics.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))

	q := NewQuestions(Domains(), translator(t), path, zap.NewNop())
	assert.Len(t, q.All(), 11)
}
