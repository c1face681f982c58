package clim

import (
	"strings"
	"sync"

	"github.com/Rob9999/ethos-ai-clim/internal/decision"
	"github.com/Rob9999/ethos-ai-clim/internal/i18n"
)

// Prompt keys are "<STAGE>_<LAYER>" in upper case.
const (
	PromptInternalError = "INTERNAL_ERROR"
)

// Each template takes two positional "{}" arguments: the layer input and
// the decision list.
var defaultPrompts = map[string]string{
	"PRERUN_ETHIC":      "Analyze the ethical implications of the following situation: {}. Based on your analysis, what is the best course of action? Provide a decision: {}.",
	"PRERUN_INDIVIDUAL": "How should an individual respond to the following situation: {}? Consider personal and situational factors. Provide a decision: {}",
	"PRERUN_SAMT":       "Evaluate the short-term and medium-term implications of the following situation: {}. Considering the immediate needs and resources available, provide a decision: {}",
	"ALL_LTCLIM":        "Perform a deep analysis and provide a long-term perspective on the following situation: {}. Considering all known factors and potential outcomes, provide a decision: {}",
	"FINAL_SAMT":        "Evaluate the short-term and medium-term implications of the following situation: {}. Considering the immediate needs and resources available, provide a decision: {}",
	"FINAL_INDIVIDUAL":  "How should an individual respond to the following situation: {}? Consider personal and situational factors. Provide a decision: {}",
	"FINAL_ETHIC":       "Analyze the ethical implications of the following situation: {}. Based on your analysis, what is the best course of action? Provide a decision: {}.",

	"EMERGENCY_SURVIVAL_ETHIC":         "In a survival situation, analyze the ethical implications of the following situation: {}. What is the best course of action? Provide a decision: {}.",
	"EMERGENCY_SURVIVAL_SAMT":          "In a survival situation, evaluate the short-term and medium-term implications of the following situation: {}. Provide a decision: {}",
	"EMERGENCY_ESSENTIAL_ETHIC":        "In an essential emergency situation, analyze the ethical implications of the following situation: {}. What is the best course of action? Provide a decision: {}.",
	"EMERGENCY_ESSENTIAL_SAMT":         "In an essential emergency situation, evaluate the short-term and medium-term implications of the following situation: {}. Provide a decision: {}",
	"EMERGENCY_ESSENTIAL_INDIVIDUAL":   "In an essential emergency situation, how should an individual respond to the following situation: {}? Provide a decision: {}",
	"EMERGENCY_RECOMMENDED_SAMT":       "In a recommended emergency situation, evaluate the short-term and medium-term implications of the following situation: {}. Provide a decision: {}",
	"EMERGENCY_RECOMMENDED_INDIVIDUAL": "In a recommended emergency situation, how should an individual respond to the following situation: {}? Provide a decision: {}",

	PromptInternalError: "Internal error due to {}. Decision: {}",
}

// Prompts is the prompt table shared by all layers.
type Prompts struct {
	vocab *decision.Vocabulary

	mu        sync.RWMutex
	templates map[string]string
}

// NewPrompts returns a table seeded with the default templates.
func NewPrompts(vocab *decision.Vocabulary) *Prompts {
	templates := make(map[string]string, len(defaultPrompts))
	for k, v := range defaultPrompts {
		templates[k] = v
	}
	return &Prompts{vocab: vocab, templates: templates}
}

// PromptKey builds the table key for a stage and layer.
func PromptKey(stage, layer string) string {
	return strings.ToUpper(stage) + "_" + strings.ToUpper(layer)
}

// Get formats the prompt for (stage, layer) with input and the decision list.
// Returns false if the table has no template for the pair.
func (p *Prompts) Get(stage, layer, input string) (string, bool) {
	p.mu.RLock()
	tmpl, ok := p.templates[PromptKey(stage, layer)]
	p.mu.RUnlock()
	if !ok {
		return "", false
	}
	return i18n.Format(tmpl, input, p.vocab.List()), true
}

// ErrorPrompt renders the internal error text with a STOP decision.
func (p *Prompts) ErrorPrompt(reason string) string {
	p.mu.RLock()
	tmpl := p.templates[PromptInternalError]
	p.mu.RUnlock()
	return i18n.Format(tmpl, reason, p.vocab.Name(decision.Stop))
}

// Update replaces or adds a template.
func (p *Prompts) Update(key, text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.templates[strings.ToUpper(key)] = text
}

// Keys returns the keys currently in the table.
func (p *Prompts) Keys() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	keys := make([]string, 0, len(p.templates))
	for k := range p.templates {
		keys = append(keys, k)
	}
	return keys
}
