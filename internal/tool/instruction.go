package tool

import (
	"context"
	"errors"
	"fmt"

	"github.com/Rob9999/ethos-ai-clim/internal/decision"
	"github.com/Rob9999/ethos-ai-clim/internal/security"
	"github.com/Rob9999/ethos-ai-clim/internal/topic"
)

// DefaultLanguage is the script language asked for when none is given.
const DefaultLanguage = "python"

// ErrNotReady is returned for to-dos that are not ready for execution.
var ErrNotReady = errors.New("to-do is not ready for execution")

// Instruction is an executable script derived from a released to-do.
type Instruction struct {
	ToDo     *topic.ToDo
	Script   string
	Language string
}

// InstructionOptions carries the collaborators NewInstruction needs to
// generate a script.
type InstructionOptions struct {
	Generator  TextGenerator
	Translator Translator
	Tools      *Manager
	Card       *security.IdentityCard
	Language   string
}

// NewInstruction builds the instruction for todo. A "script" parameter on
// the to-do is used verbatim (language from "script_language", default
// javascript); otherwise a script is generated.
func NewInstruction(ctx context.Context, todo *topic.ToDo, opts InstructionOptions) (*Instruction, error) {
	if !todo.Ready {
		return nil, fmt.Errorf("%w: %s", ErrNotReady, todo.Description)
	}

	if script := todo.Parameters["script"]; script != "" {
		lang := todo.Parameters["script_language"]
		if lang == "" {
			lang = "javascript"
		}
		return &Instruction{ToDo: todo, Script: script, Language: lang}, nil
	}

	lang := opts.Language
	if lang == "" {
		lang = DefaultLanguage
	}
	s, err := GenerateScript(ctx, opts.Generator, opts.Translator, opts.Tools, todo, opts.Card, lang)
	if err != nil {
		return nil, err
	}
	if s.Decision != decision.Go {
		return nil, fmt.Errorf("no script for %q: missing %s: %s", todo.Description, s.Missing, s.Justification)
	}
	return &Instruction{ToDo: todo, Script: s.Content, Language: lang}, nil
}

// Execute runs the script through runner and returns its output.
func (i *Instruction) Execute(ctx context.Context, runner Runner) (string, error) {
	out, err := runner.Run(ctx, i.ToDo.Description, i.Language, i.Script)
	if err != nil {
		return out, fmt.Errorf("instruction for %q failed: %w", i.ToDo.Description, err)
	}
	return out, nil
}

func (i *Instruction) String() string {
	return i.Script
}
