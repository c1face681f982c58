package topic

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Rob9999/ethos-ai-clim/internal/decision"
	"github.com/Rob9999/ethos-ai-clim/internal/i18n"
	"github.com/Rob9999/ethos-ai-clim/internal/security"
)

func goSimulation() Simulation {
	return Simulation{
		Description:       "water the plants",
		Answer:            "use the watering can",
		OverallEthicValue: 10,
		Decision:          decision.Go,
		DomainEthicValues: []float64{6, 7},
		SummaryReason:     "plants need water",
	}
}

func newCard(t *testing.T, level security.Level) *security.IdentityCard {
	t.Helper()
	card, err := security.NewIdentityCard(security.CardOptions{
		Name:       "tester",
		Password:   "secret",
		Level:      level,
		KeyDir:     t.TempDir(),
		BcryptCost: bcrypt.MinCost,
	})
	require.NoError(t, err)
	return card
}

func refinedToDo(t *testing.T) *ToDo {
	t.Helper()
	tr, err := i18n.New("en")
	require.NoError(t, err)
	asp := PromoteToAspiration(goSimulation(), tr)
	asp.Refine("water the plants every morning")
	return PromoteToToDo(asp)
}

func TestSimulation_Equal(t *testing.T) {
	a := goSimulation()
	b := goSimulation()
	b.Answer = "different answer"
	assert.True(t, a.Equal(b))

	b.Parameters = map[string]string{"where": "garden"}
	assert.False(t, a.Equal(b))
}

func TestPromoteToAspiration(t *testing.T) {
	tr, err := i18n.New("en")
	require.NoError(t, err)

	asp := PromoteToAspiration(goSimulation(), tr)
	assert.Equal(t,
		"Set the goal to achieve use the watering can in order to successfully accomplish water the plants."+
			"Take into account the following ethical aspects: plants need water.",
		asp.Text)
	assert.False(t, asp.Refined)

	nogo := goSimulation()
	nogo.Decision = decision.NoGo
	assert.Empty(t, PromoteToAspiration(nogo, tr).Text)

	asp.Refine("better goal")
	asp.Refine("best goal")
	assert.Equal(t, 2, asp.RefineCount)
	assert.Equal(t, "best goal", asp.Text)
	assert.True(t, asp.Refined)
}

func TestPromoteToToDo_UnrefinedGivesPlaceholder(t *testing.T) {
	tr, err := i18n.New("en")
	require.NoError(t, err)

	todo := PromoteToToDo(PromoteToAspiration(goSimulation(), tr))
	require.True(t, todo.IsPlaceholder())
	assert.Equal(t, "Check your code", todo.Description)
	assert.Equal(t, "Review the code and fix the errors.", todo.Answer)
	assert.Equal(t, 5.0, todo.OverallEthicValue)
	assert.Equal(t, decision.Go, todo.Decision)
	assert.Equal(t, []float64{5, 5, 5}, todo.DomainEthicValues)
	assert.Equal(t, "Write error-free code.", todo.Text)
	assert.True(t, todo.Ready)
	assert.Equal(t, security.LevelLow, todo.Level)
}

func TestPromoteToToDo_Refined(t *testing.T) {
	todo := refinedToDo(t)
	assert.False(t, todo.IsPlaceholder())
	assert.Equal(t, "water the plants", todo.Description)
	assert.True(t, todo.Ready)
	assert.False(t, todo.Denied)
}

func TestReleaseForExecution(t *testing.T) {
	t.Run("success signs a receipt", func(t *testing.T) {
		card := newCard(t, security.LevelLow)
		todo := refinedToDo(t)

		require.NoError(t, todo.ReleaseForExecution(card, "secret"))
		assert.True(t, todo.IsReleased())
		assert.Equal(t, "tester", todo.ReleasedBy)
		assert.False(t, todo.ReleasedAt.IsZero())

		receipt, err := card.VerifySignature(todo.Receipt)
		require.NoError(t, err)
		assert.Equal(t, "released: water the plants", receipt.Message)
	})

	t.Run("wrong password denies", func(t *testing.T) {
		card := newCard(t, security.LevelMedium)
		todo := refinedToDo(t)
		todo.Level = security.LevelHigh

		err := todo.ReleaseForExecution(card, "wrong")
		var accessErr *security.AccessError
		require.True(t, errors.As(err, &accessErr))
		assert.Equal(t, security.MsgInvalidPassword, accessErr.Message)
		assert.Equal(t, "water the plants", accessErr.Subject)
		assert.Equal(t, security.LevelHigh, accessErr.Required)
		assert.Equal(t, security.LevelMedium, accessErr.Current)

		assert.False(t, todo.Ready)
		assert.True(t, todo.Denied)
		assert.Equal(t, security.MsgInvalidPassword, todo.Advice)
		assert.False(t, todo.IsReleased())
	})

	t.Run("denied stays denied", func(t *testing.T) {
		card := newCard(t, security.LevelLow)
		todo := refinedToDo(t)
		todo.DenyByAdvisor("too risky")

		err := todo.ReleaseForExecution(card, "secret")
		var accessErr *security.AccessError
		require.True(t, errors.As(err, &accessErr))
		assert.Equal(t, MsgDenied, accessErr.Message)
	})

	t.Run("nil card", func(t *testing.T) {
		todo := refinedToDo(t)
		err := todo.ReleaseForExecution(nil, "secret")
		var accessErr *security.AccessError
		require.True(t, errors.As(err, &accessErr))
		assert.Equal(t, MsgNoCard, accessErr.Message)
		assert.True(t, todo.Denied)
	})
}

func TestSuccessChance(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"neutral", []float64{5, 5}, 75},
		{"positive", []float64{6, 7}, 81},
		{"clamped high", []float64{20}, 100},
		{"clamped low", []float64{-40}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			todo := NewToDo(Aspiration{Simulation: Simulation{DomainEthicValues: tt.values}})
			assert.Equal(t, tt.want, todo.SuccessChance())
		})
	}
}

func TestInstructions(t *testing.T) {
	out := refinedToDo(t).Instructions()
	assert.Contains(t, out, "Goal: water the plants every morning\n")
	assert.Contains(t, out, "1. use the watering can - ")
	assert.Contains(t, out, "Success chance: 81.00%")
}
