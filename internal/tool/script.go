package tool

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Rob9999/ethos-ai-clim/internal/decision"
	"github.com/Rob9999/ethos-ai-clim/internal/security"
	"github.com/Rob9999/ethos-ai-clim/internal/topic"
)

// TextGenerator produces free text; the layer stack satisfies it.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, bool)
}

// Translator renders the recommendation prompt.
type Translator interface {
	T(key string, args ...any) string
}

// Script is the outcome of asking for a tool recommendation.
type Script struct {
	Decision      decision.Decision // GO or NOGO
	Content       string
	Plan          string
	Tools         []string
	Missing       string
	Justification string
}

// ErrNoRecommendation is returned when the model gives no usable answer.
var ErrNoRecommendation = errors.New("no tool recommendation")

// GenerateScript asks gen which tools the to-do needs and, on GO, builds a
// script that activates them in order. The card's level limits the tools
// offered; with no card every LOW tool is offered.
func GenerateScript(ctx context.Context, gen TextGenerator, tr Translator, mgr *Manager, todo *topic.ToDo, card *security.IdentityCard, language string) (*Script, error) {
	level := security.LevelLow
	if card != nil {
		level = card.Level
	}

	prompt := tr.T("GENERATE_TOOL_RECOMMENDATION", todo.Description, language, strings.Join(mgr.Tools(level), ", "))
	output, ok := gen.GenerateText(ctx, prompt)
	if !ok {
		return nil, ErrNoRecommendation
	}
	return parseRecommendation(output, todo, language)
}

func parseRecommendation(output string, todo *topic.ToDo, language string) (*Script, error) {
	text := strings.TrimSpace(output)
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = strings.TrimSpace(text[:i])
	}
	head, rest, _ := strings.Cut(text, ":")
	head = strings.ToUpper(strings.TrimSpace(head))

	switch head {
	case "GO":
		var tools []string
		for _, name := range strings.Split(rest, ",") {
			if name = strings.TrimSpace(name); name != "" {
				tools = append(tools, name)
			}
		}
		return &Script{
			Decision: decision.Go,
			Content:  buildScript(todo, tools, language),
			Plan:     buildPlan(todo, tools),
			Tools:    tools,
		}, nil

	case "NO GO", "NOGO":
		missing, justification, _ := strings.Cut(rest, ":")
		return &Script{
			Decision:      decision.NoGo,
			Missing:       strings.TrimSpace(missing),
			Justification: strings.TrimSpace(justification),
		}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrNoRecommendation, output)
	}
}

func buildPlan(todo *topic.ToDo, tools []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Execution plan for to-do: %s\n", todo.Description)
	for _, t := range tools {
		fmt.Fprintf(&b, "Use tool: %s\n", t)
	}
	return b.String()
}

func buildScript(todo *topic.ToDo, tools []string, language string) string {
	var b strings.Builder
	b.WriteString(Comment("Script for to-do:\n"+todo.Description, language))
	b.WriteString(Comment("Aspiration:\n"+todo.Text, language))
	for _, t := range tools {
		fmt.Fprintf(&b, "activate_tool('%s')\n", t)
	}
	b.WriteString("print('Instruction script completed.')\n")
	return b.String()
}

// Comment turns text into line comments of language. Unknown languages
// yield an empty string.
func Comment(text, language string) string {
	var prefix string
	switch language {
	case "python", "shell", "sh":
		prefix = "# "
	case "javascript", "typescript":
		prefix = "// "
	default:
		return ""
	}

	var b strings.Builder
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		b.WriteString(prefix + line + "\n")
	}
	return b.String()
}
