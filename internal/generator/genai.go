package generator

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

const defaultGenAIModel = "gemini-2.0-flash"

// GenAI generates text with Google's Gemini API.
type GenAI struct {
	client *genai.Client
	model  string
	config *genai.GenerateContentConfig
}

// NewGenAI creates a Gemini-backed generator.
// maxNewTokens <= 0 leaves the output length to the service default.
func NewGenAI(ctx context.Context, apiKey, model string, maxNewTokens int) (*GenAI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	if model == "" {
		model = defaultGenAIModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	cfg := &genai.GenerateContentConfig{}
	if maxNewTokens > 0 {
		cfg.MaxOutputTokens = int32(maxNewTokens)
	}

	return &GenAI{client: client, model: model, config: cfg}, nil
}

// Generate sends prompt as a single user turn and returns the reply text.
func (g *GenAI) Generate(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, g.config)
	if err != nil {
		return "", fmt.Errorf("genai generate: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("genai returned no text")
	}
	return text, nil
}
