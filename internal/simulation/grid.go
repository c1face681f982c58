// Package simulation runs scenarios and their alternative action options
// through the layer stack and ranks the outcomes by ethic value.
package simulation

import (
	"cmp"
	"context"
	"fmt"
	"math/rand/v2"
	"slices"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Rob9999/ethos-ai-clim/internal/clim"
	"github.com/Rob9999/ethos-ai-clim/internal/decision"
	"github.com/Rob9999/ethos-ai-clim/internal/ethics"
	"github.com/Rob9999/ethos-ai-clim/internal/topic"
	"github.com/Rob9999/ethos-ai-clim/pkg/blackboard"
)

const (
	// DefaultConcurrency bounds parallel option simulations.
	DefaultConcurrency = 4

	// NoDecisionRationale is returned when no candidate could be ranked.
	NoDecisionRationale = "fatal: no decision possible"

	noisySignalSize = 512
)

var ethicValues = map[decision.Decision]float64{
	decision.Go:                   10,
	decision.EmergencySurvival:    10,
	decision.EmergencyEssential:   10,
	decision.EmergencyRecommended: 5,
	decision.NoGo:                 -5,
	decision.Stop:                 -10,
	decision.Escalate:             -10,
	decision.Wait:                 0,
	decision.Improve:              0,
	decision.Adjust:               0,
}

// EthicValue maps a decision to its ranking weight. Unknown decisions weigh 0.
func EthicValue(d decision.Decision) float64 {
	return ethicValues[d]
}

// Ranked is a simulated candidate with its generation index.
// Index 0 is the scenario itself, 1..n the generated options.
type Ranked struct {
	Index      int
	Simulation topic.Simulation
}

// Grid simulates scenarios on a stack.
type Grid struct {
	stack  *clim.Stack
	ethics *ethics.Module
	logger *zap.Logger

	// Concurrency bounds parallel simulations; <= 0 means DefaultConcurrency.
	Concurrency int
}

// NewGrid creates a grid. module may be nil when noisy copies are not used.
func NewGrid(stack *clim.Stack, module *ethics.Module, logger *zap.Logger) *Grid {
	return &Grid{stack: stack, ethics: module, logger: logger, Concurrency: DefaultConcurrency}
}

func (g *Grid) limit() int {
	if g.Concurrency <= 0 {
		return DefaultConcurrency
	}
	return g.Concurrency
}

// SimulateScenario runs description through the stack on a fresh blackboard.
func (g *Grid) SimulateScenario(ctx context.Context, description string) topic.Simulation {
	bb := g.stack.Process(ctx, blackboard.New(description))
	return topic.Simulation{
		Description:       description,
		Answer:            bb.LastResponse,
		OverallEthicValue: EthicValue(bb.LastDecision),
		Decision:          bb.LastDecision,
		SummaryReason:     bb.Transcript(),
	}
}

// SimulateScenarioWithOptions simulates the scenario and the action options
// the stack proposes for it, ranked by ethic value. Candidates with equal
// value keep their generation order.
func (g *Grid) SimulateScenarioWithOptions(ctx context.Context, description string) []Ranked {
	options := g.stack.GenerateAnswerList(ctx, "Generate at least 3 possible action options for: "+description)
	g.logger.Debug("Action options generated", zap.String("scenario", description), zap.Strings("options", options))

	scenarios := append([]string{description}, options...)
	ranked := make([]Ranked, len(scenarios))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.limit())
	for i, s := range scenarios {
		eg.Go(func() error {
			ranked[i] = Ranked{Index: i, Simulation: g.SimulateScenario(egCtx, s)}
			return nil
		})
	}
	_ = eg.Wait()

	Rank(ranked)
	g.logResults(ranked)
	return ranked
}

// Rank sorts candidates descending by ethic value, stable on ties.
func Rank(ranked []Ranked) {
	slices.SortStableFunc(ranked, func(a, b Ranked) int {
		return cmp.Compare(b.Simulation.OverallEthicValue, a.Simulation.OverallEthicValue)
	})
}

// Top returns the outcome of the best candidate, or the NOGO floor when
// there is none.
func Top(ranked []Ranked) (bool, decision.Decision, string) {
	if len(ranked) == 0 {
		return false, decision.NoGo, NoDecisionRationale
	}
	best := ranked[0].Simulation
	return true, best.Decision, best.SummaryReason
}

// RunSimulation ranks the scenario and its options and returns the top
// candidate's decision and rationale.
func (g *Grid) RunSimulation(ctx context.Context, description string) (bool, decision.Decision, string) {
	return Top(g.SimulateScenarioWithOptions(ctx, description))
}

// Robustness is a candidate re-scored under perturbed ethics signals.
type Robustness struct {
	Simulation   topic.Simulation
	AverageScore float64
}

// EvaluateNoisyCopies scores every candidate versions times against
// synthetic gaussian signals and ranks them by the average overall value.
func (g *Grid) EvaluateNoisyCopies(ranked []Ranked, versions int) ([]Robustness, error) {
	if g.ethics == nil {
		return nil, fmt.Errorf("no ethics module configured")
	}
	if versions <= 0 {
		versions = 5
	}

	out := make([]Robustness, 0, len(ranked))
	for _, r := range ranked {
		sum := 0.0
		for range versions {
			sum += g.ethics.Evaluate(noisySignal()).Overall
		}
		out = append(out, Robustness{Simulation: r.Simulation, AverageScore: sum / float64(versions)})
	}

	slices.SortStableFunc(out, func(a, b Robustness) int {
		return cmp.Compare(b.AverageScore, a.AverageScore)
	})
	return out, nil
}

func noisySignal() []float64 {
	scale := rand.Float64()*0.2 - 0.1
	signal := make([]float64, noisySignalSize)
	for i := range signal {
		signal[i] = rand.NormFloat64() + rand.NormFloat64()*scale
	}
	return signal
}

// RunSimulationOnLayer runs a single layer stage on a fresh blackboard
// seeded with request and returns the entry it wrote.
func (g *Grid) RunSimulationOnLayer(ctx context.Context, stage, layer, request string) (*blackboard.Entry, error) {
	l, ok := g.stack.Layer(layer)
	if !ok {
		return nil, fmt.Errorf("unknown layer %q", layer)
	}
	bb := blackboard.New(request)
	l.Process(ctx, stage, bb)
	entry, _ := bb.Lookup(layer, stage)
	return entry, nil
}

// MultipleRequests simulates every request and ranks the results.
func (g *Grid) MultipleRequests(ctx context.Context, requests []string) []topic.Simulation {
	ranked := make([]Ranked, len(requests))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.limit())
	for i, req := range requests {
		eg.Go(func() error {
			ranked[i] = Ranked{Index: i, Simulation: g.SimulateScenario(egCtx, req)}
			return nil
		})
	}
	_ = eg.Wait()

	Rank(ranked)
	out := make([]topic.Simulation, len(ranked))
	for i, r := range ranked {
		out[i] = r.Simulation
	}
	return out
}

func (g *Grid) logResults(ranked []Ranked) {
	for i, r := range ranked {
		g.logger.Info("Simulation result",
			zap.Int("rank", i+1),
			zap.Int("option", r.Index),
			zap.String("scenario", r.Simulation.Description),
			zap.String("answer", r.Simulation.Answer),
			zap.Float64("ethic_value", r.Simulation.OverallEthicValue),
			zap.String("decision", r.Simulation.Decision.String()))
	}
}
