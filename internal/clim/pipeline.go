package clim

import "github.com/Rob9999/ethos-ai-clim/internal/decision"

// Step is one (stage, layer) pair of a pipeline.
type Step struct {
	Stage string
	Layer *Layer
}

// StandardPipeline is the full review: ethic, individual and short-term
// pre-checks, the long-term analysis, then the final checks in reverse.
func (s *Stack) StandardPipeline() []Step {
	return []Step{
		{StagePrerun, s.ethic},
		{StagePrerun, s.individual},
		{StagePrerun, s.samt},
		{StageAll, s.longTerm},
		{StageFinal, s.samt},
		{StageFinal, s.individual},
		{StageFinal, s.ethic},
	}
}

// EmergencyPipeline returns the bypass tier for an emergency decision, with
// every step tagged by the decision key. Returns nil for other decisions.
func (s *Stack) EmergencyPipeline(d decision.Decision) []Step {
	stage := d.String()
	switch d {
	case decision.EmergencySurvival:
		return []Step{{stage, s.ethic}, {stage, s.samt}}
	case decision.EmergencyEssential:
		return []Step{{stage, s.ethic}, {stage, s.samt}, {stage, s.individual}}
	case decision.EmergencyRecommended:
		return []Step{{stage, s.samt}, {stage, s.individual}}
	default:
		return nil
	}
}
