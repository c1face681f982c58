package clim

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Rob9999/ethos-ai-clim/internal/decision"
	"github.com/Rob9999/ethos-ai-clim/internal/generator"
)

// BuildOptions configures Build.
type BuildOptions struct {
	Identity  string
	ModelsDir string
	Vocab     *decision.Vocabulary
	Prompts   *Prompts
	Recorder  Recorder
	Logger    *zap.Logger

	// Generator, when set, is shared by all layers instead of the
	// per-layer configured backends.
	Generator generator.Generator

	// MaxExamples bounds each layer's few-shot example store.
	MaxExamples int
}

// Build creates the four layers from their on-disk configuration and
// assembles the stack. Missing layer configs are created with defaults.
func Build(ctx context.Context, opts BuildOptions) (*Stack, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Prompts == nil {
		opts.Prompts = NewPrompts(opts.Vocab)
	}

	layers := make(map[string]*Layer, 4)
	for _, name := range []string{LayerEthic, LayerIndividual, LayerSamt, LayerLongTerm} {
		cfg, path, err := LoadLayerConfig(opts.ModelsDir, opts.Identity, name)
		if err != nil {
			return nil, fmt.Errorf("layer %s: %w", name, err)
		}

		gen := opts.Generator
		if gen == nil {
			if gen, err = generator.New(ctx, cfg.GeneratorConfig()); err != nil {
				return nil, fmt.Errorf("layer %s: %w", name, err)
			}
		}

		examples := NewExampleStore(filepath.Join(filepath.Dir(path), "examples.json"), opts.MaxExamples)
		if err := examples.Load(); err != nil {
			return nil, fmt.Errorf("layer %s: %w", name, err)
		}

		opts.Logger.Debug("Layer configured",
			zap.String("layer", name),
			zap.String("backend", cfg.Backend),
			zap.String("model", cfg.ModelName),
			zap.String("config", path))
		layers[name] = NewLayer(name, gen, opts.Prompts, opts.Vocab, examples, opts.Logger.Named("layer"))
	}

	return NewStack(opts.Identity,
		layers[LayerEthic], layers[LayerIndividual], layers[LayerSamt], layers[LayerLongTerm],
		opts.Recorder, opts.Logger.Named("pipeline"))
}
