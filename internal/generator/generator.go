// Package generator provides the text-generation backends behind the review
// layers. The pipeline only depends on the Generator interface; the
// concrete backend is picked per layer from its model configuration.
package generator

import (
	"context"
	"fmt"
	"os"
)

// Generator produces a free-text reply for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Backend names accepted in layer configurations.
const (
	BackendScripted = "scripted"
	BackendGenAI    = "genai"
	BackendOpenAI   = "openai"
)

// OfflineReply is what a scripted layer without rules answers.
const OfflineReply = "WAIT: no language model is configured for this layer."

// Config selects and parameterises a backend.
type Config struct {
	Backend      string
	ModelName    string
	APIKey       string
	BaseURL      string
	MaxNewTokens int

	// Scripted backend only.
	DefaultReply string
}

// New builds the backend named in cfg.Backend.
// An empty API key for the remote backends falls back to GEMINI_API_KEY or
// OPENAI_API_KEY from the environment.
func New(ctx context.Context, cfg Config) (Generator, error) {
	switch cfg.Backend {
	case "", BackendScripted:
		reply := cfg.DefaultReply
		if reply == "" {
			reply = OfflineReply
		}
		return &Scripted{Default: reply}, nil
	case BackendGenAI:
		key := cfg.APIKey
		if key == "" {
			key = os.Getenv("GEMINI_API_KEY")
		}
		return NewGenAI(ctx, key, cfg.ModelName, cfg.MaxNewTokens)
	case BackendOpenAI:
		key := cfg.APIKey
		if key == "" {
			key = os.Getenv("OPENAI_API_KEY")
		}
		return NewOpenAI(cfg.BaseURL, key, cfg.ModelName, cfg.MaxNewTokens), nil
	default:
		return nil, fmt.Errorf("unknown generator backend %q", cfg.Backend)
	}
}
