package clim

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Rob9999/ethos-ai-clim/internal/decision"
	"github.com/Rob9999/ethos-ai-clim/internal/generator"
	"github.com/Rob9999/ethos-ai-clim/pkg/blackboard"
)

// Layer names.
const (
	LayerEthic      = "ETHIC"
	LayerIndividual = "INDIVIDUAL"
	LayerSamt       = "SAMT"
	LayerLongTerm   = "LTCLIM"
)

// Standard stage tags. Emergency stages are tagged with the decision key.
const (
	StagePrerun = "prerun"
	StageAll    = "all"
	StageFinal  = "final"
)

// Subjects recorded when a layer cannot produce a real decision.
const (
	SubjectUnknownLayer     = "Code: Fix unknown layer error"
	SubjectGenerationFailed = "Config or connection: Fix response generation error. Check logs, config files and connections."
)

// Layer is one review perspective: it turns the blackboard's last response
// into a prompt, asks its generator and records a decision.
type Layer struct {
	name     string
	gen      generator.Generator
	prompts  *Prompts
	vocab    *decision.Vocabulary
	examples *ExampleStore
	trainer  *Trainer
	logger   *zap.Logger
}

// NewLayer wires a layer. examples may be nil, in which case training
// runs are accepted but have no effect on prompting.
func NewLayer(name string, gen generator.Generator, prompts *Prompts, vocab *decision.Vocabulary, examples *ExampleStore, logger *zap.Logger) *Layer {
	logger = logger.With(zap.String("layer", name))

	epoch := func(context.Context, int, [][]string, float64) (float64, error) { return 0, nil }
	if examples != nil {
		epoch = examples.Epoch
	}

	return &Layer{
		name:     name,
		gen:      gen,
		prompts:  prompts,
		vocab:    vocab,
		examples: examples,
		trainer:  NewTrainer(name, epoch, logger),
		logger:   logger,
	}
}

// Name returns the layer name.
func (l *Layer) Name() string {
	return l.name
}

// Trainer returns the layer's trainer.
func (l *Layer) Trainer() *Trainer {
	return l.trainer
}

// GenerateText asks the generator for a reply. Returns false when the
// generator failed, panicked or returned only whitespace.
func (l *Layer) GenerateText(ctx context.Context, prompt string) (string, bool) {
	return l.generate(ctx, l.withExamples(prompt))
}

func (l *Layer) generate(ctx context.Context, sent string) (string, bool) {
	text := guard(l.logger, "GenerateText", "", func() (string, error) {
		return l.gen.Generate(ctx, sent)
	})
	if strings.TrimSpace(text) == "" {
		return "", false
	}
	return text, true
}

func (l *Layer) withExamples(prompt string) string {
	if l.examples == nil {
		return prompt
	}
	return l.examples.Context() + prompt
}

// Process runs one stage of this layer against bb and returns bb.
//
// The entry for (layer, stage) always receives a decision: STOP when the
// prompt is unknown or generation fails, IMPROVE when the reply contains no
// recognisable decision. LastDecision always mirrors the entry.
func (l *Layer) Process(ctx context.Context, stage string, bb *blackboard.Blackboard) *blackboard.Blackboard {
	entry := bb.Entry(l.name, stage)
	prompt, ok := l.prompts.Get(stage, l.name, bb.LastResponse)
	entry.Prompt = prompt

	switch {
	case !ok:
		entry.Response = l.prompts.ErrorPrompt(fmt.Sprintf("Prompt generation failed due to unknown layer %s", l.name))
		entry.Decision = decision.Stop
		entry.SubjectOfDecision = SubjectUnknownLayer
		l.logger.Error("No prompt for stage", zap.String("stage", stage), zap.String("key", PromptKey(stage, l.name)))

	default:
		sent := l.withExamples(prompt)
		response, generated := l.generate(ctx, sent)
		if !generated {
			entry.Response = l.prompts.ErrorPrompt("Response generation failed")
			entry.Decision = decision.Stop
			entry.SubjectOfDecision = SubjectGenerationFailed
			break
		}

		var filtered string
		if lines := FilterAnswer(response, sent); len(lines) > 0 {
			filtered = lines[0]
		}
		entry.Response = filtered
		bb.SetLastResponse(filtered)

		if d, found := l.vocab.Parse(filtered); found {
			entry.Decision = d
			entry.SubjectOfDecision = "Response: " + response
		} else {
			entry.Decision = decision.Improve
			entry.SubjectOfDecision = "Prompt: " + prompt
		}
	}

	bb.SetLastDecision(entry.Decision)

	l.logger.Debug("Layer processed",
		zap.String("event_type", "layer_processed"),
		zap.String("stage", stage),
		zap.String("decision", entry.Decision.String()))
	return bb
}
