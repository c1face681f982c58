package clim

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/Rob9999/ethos-ai-clim/internal/decision"
	"github.com/Rob9999/ethos-ai-clim/pkg/blackboard"
)

// Recorder persists finished blackboards. *blackboard.Client satisfies it.
type Recorder interface {
	SaveBlackboard(ctx context.Context, b *blackboard.Blackboard) error
}

// Stack is the layered review pipeline with its four layers.
type Stack struct {
	identity string

	ethic      *Layer
	individual *Layer
	samt       *Layer
	longTerm   *Layer
	layers     map[string]*Layer

	recorder Recorder
	logger   *zap.Logger

	mu     sync.Mutex
	active bool
}

// NewStack assembles a stack from its four layers. recorder may be nil.
func NewStack(identity string, ethic, individual, samt, longTerm *Layer, recorder Recorder, logger *zap.Logger) (*Stack, error) {
	for name, l := range map[string]*Layer{LayerEthic: ethic, LayerIndividual: individual, LayerSamt: samt, LayerLongTerm: longTerm} {
		if l == nil {
			return nil, fmt.Errorf("layer %s is required", name)
		}
	}

	return &Stack{
		identity:   identity,
		ethic:      ethic,
		individual: individual,
		samt:       samt,
		longTerm:   longTerm,
		layers: map[string]*Layer{
			ethic.Name():      ethic,
			individual.Name(): individual,
			samt.Name():       samt,
			longTerm.Name():   longTerm,
		},
		recorder: recorder,
		logger:   logger.With(zap.String("identity", identity)),
	}, nil
}

// Identity returns the name of the identity the stack reasons for.
func (s *Stack) Identity() string {
	return s.identity
}

// Layer looks up a layer by name.
func (s *Stack) Layer(name string) (*Layer, bool) {
	l, ok := s.layers[name]
	return l, ok
}

// Process runs bb through the standard pipeline.
//
// After every step the latest decision is re-checked. STOP ends the run. An
// emergency decision more severe than the current tier replaces the
// remaining steps with its bypass tier. Escalation is one-way, so every run
// ends after at most three re-routes.
func (s *Stack) Process(ctx context.Context, bb *blackboard.Blackboard) *blackboard.Blackboard {
	queue := s.StandardPipeline()
	tier := decision.None

	for len(queue) > 0 {
		if ctx.Err() != nil {
			s.logger.Warn("Pipeline interrupted", zap.String("blackboard_id", bb.ID), zap.Error(ctx.Err()))
			break
		}

		step := queue[0]
		queue = queue[1:]
		step.Layer.Process(ctx, step.Stage, bb)

		d := bb.LastDecision
		if d == decision.Stop {
			break
		}
		if d.IsEmergency() && d.Severity() > tier.Severity() {
			tier = d
			queue = s.EmergencyPipeline(d)
			s.logger.Info("Pipeline escalated",
				zap.String("event_type", "pipeline_escalated"),
				zap.String("blackboard_id", bb.ID),
				zap.String("tier", d.String()),
				zap.String("by_layer", step.Layer.Name()))
		}
	}

	if s.recorder != nil {
		if err := s.recorder.SaveBlackboard(ctx, bb); err != nil {
			s.logger.Warn("Failed to record blackboard", zap.String("blackboard_id", bb.ID), zap.Error(err))
		}
	}
	return bb
}

// GenerateText uses the long-term layer as the stack's general voice.
func (s *Stack) GenerateText(ctx context.Context, prompt string) (string, bool) {
	return s.longTerm.GenerateText(ctx, prompt)
}

// GenerateAnswerList generates a reply and returns its filtered lines.
func (s *Stack) GenerateAnswerList(ctx context.Context, prompt string) []string {
	text, ok := s.GenerateText(ctx, prompt)
	if !ok {
		return nil
	}
	return FilterAnswer(text, prompt)
}

// StartTrainingAsync starts training on every layer named in data.
// Unknown layer names are logged and skipped.
func (s *Stack) StartTrainingAsync(data map[string][]string, epochs, batchSize int, learningRate float64) {
	for name, examples := range data {
		layer, ok := s.layers[name]
		if !ok {
			s.logger.Warn("Training data for unknown layer discarded", zap.String("layer", name), zap.Int("examples", len(examples)))
			continue
		}
		if err := layer.trainer.StartAsync(examples, epochs, batchSize, learningRate); err != nil {
			s.logger.Warn("Training not started", zap.String("layer", name), zap.Error(err))
		}
	}
}

// TrainingStatus reports every layer's training status.
func (s *Stack) TrainingStatus() map[string]TrainingStatus {
	out := make(map[string]TrainingStatus, len(s.layers))
	for name, l := range s.layers {
		out[name] = l.trainer.Status()
	}
	return out
}

// RequestCancellationOfTraining asks every running layer training to stop.
func (s *Stack) RequestCancellationOfTraining() {
	for _, l := range s.layers {
		l.trainer.RequestCancellation()
	}
}

// WaitForTraining blocks until every layer's current run has finished.
func (s *Stack) WaitForTraining() {
	for _, l := range s.layers {
		l.trainer.Wait()
	}
}

// PersistModel writes every layer's examples. Errors are joined.
func (s *Stack) PersistModel() error {
	var errs []error
	for name, l := range s.layers {
		if l.examples == nil {
			continue
		}
		if err := l.examples.Persist(); err != nil {
			errs = append(errs, fmt.Errorf("layer %s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// Start marks the stack active.
func (s *Stack) Start(_ context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		return
	}
	s.active = true
	s.logger.Info("Imagination started")
}

// Stop persists changed layers and marks the stack inactive.
func (s *Stack) Stop() {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	s.active = false
	s.mu.Unlock()

	changed := false
	for _, l := range s.layers {
		changed = changed || l.trainer.Changed()
	}
	if changed {
		if err := s.PersistModel(); err != nil {
			s.logger.Error("Failed to persist layers", zap.Error(err))
		}
	}
	s.logger.Info("Imagination stopped")
}

// Restart stops and starts the stack.
func (s *Stack) Restart(ctx context.Context) {
	s.Stop()
	s.Start(ctx)
}

// IsActive reports whether Start has been called without a matching Stop.
func (s *Stack) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}
