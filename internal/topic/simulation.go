// Package topic holds the stages a topic moves through: a simulated
// scenario, an aspiration (a goal worth pursuing) and a to-do that must be
// released by an identity card before it is executed.
package topic

import (
	"fmt"
	"maps"

	"github.com/Rob9999/ethos-ai-clim/internal/decision"
)

// Simulation is the outcome of running one scenario through the stack.
type Simulation struct {
	Description       string            `json:"description"`
	Parameters        map[string]string `json:"parameters,omitempty"`
	Answer            string            `json:"answer"`
	OverallEthicValue float64           `json:"overall_ethic_value"`
	Decision          decision.Decision `json:"decision"`
	DomainEthicValues []float64         `json:"domain_ethic_values,omitempty"`
	SummaryReason     string            `json:"summary_reason"`
}

// Equal compares identity only: description and parameters.
func (s Simulation) Equal(other Simulation) bool {
	return s.Description == other.Description && maps.Equal(s.Parameters, other.Parameters)
}

func (s Simulation) String() string {
	return fmt.Sprintf("Description: %s\nParameters: %v\nAnswer: %s\nEthic value: %.2f\nDecision: %s\nReasons: %s",
		s.Description, s.Parameters, s.Answer, s.OverallEthicValue, s.Decision, s.SummaryReason)
}
