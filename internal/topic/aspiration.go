package topic

import (
	"fmt"

	"github.com/Rob9999/ethos-ai-clim/internal/decision"
)

// Translator renders the goal text of an aspiration.
type Translator interface {
	T(key string, args ...any) string
}

// Aspiration is a simulated topic worth pursuing, with a goal text that is
// refined until it is ready to become a to-do.
type Aspiration struct {
	Simulation
	Text        string `json:"aspiration"`
	RefineCount int    `json:"refine_count"`
	Refined     bool   `json:"refined"`
}

// PromoteToAspiration wraps sim. A goal text is generated only for GO.
func PromoteToAspiration(sim Simulation, tr Translator) *Aspiration {
	a := &Aspiration{Simulation: sim}
	if sim.Decision == decision.Go {
		a.Text = tr.T("ASPIRATION_GOAL", sim.Answer, sim.Description) +
			tr.T("ASPIRATION_CONSIDERATION", sim.SummaryReason)
	}
	return a
}

// Refine replaces the goal text and marks the aspiration refined.
func (a *Aspiration) Refine(text string) {
	a.RefineCount++
	a.Text = text
	a.Refined = true
}

func (a *Aspiration) String() string {
	return fmt.Sprintf("%s\nGoal: %s\nRefined: %t\nRefinements: %d", a.Simulation, a.Text, a.Refined, a.RefineCount)
}
