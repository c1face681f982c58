// Package advisor releases and executes to-dos. The Advisor asks the layer
// stack for advice before signing a to-do off; the Executor runs the
// unadvised path with the individual's own identity card.
package advisor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/Rob9999/ethos-ai-clim/internal/audit"
	"github.com/Rob9999/ethos-ai-clim/internal/security"
	"github.com/Rob9999/ethos-ai-clim/internal/tool"
	"github.com/Rob9999/ethos-ai-clim/internal/topic"
)

// Journal records release decisions. Kinds are the audit ledger kinds.
type Journal interface {
	Record(ctx context.Context, kind, subject, actor, detail string) error
}

// ErrNoToDo is returned by PopAndExecute when nothing is queued.
var ErrNoToDo = errors.New("no active to-dos")

// ErrNotReleased is returned when the advisor declines a to-do.
var ErrNotReleased = errors.New("to-do was not released")

// Deps are the collaborators shared by Advisor and Executor.
type Deps struct {
	Generator  tool.TextGenerator
	Translator tool.Translator
	Tools      *tool.Manager
	Runner     tool.Runner
	Journal    Journal // optional
	Logger     *zap.Logger
	Language   string
}

func (d Deps) instruction(ctx context.Context, todo *topic.ToDo, card *security.IdentityCard) (*tool.Instruction, error) {
	return tool.NewInstruction(ctx, todo, tool.InstructionOptions{
		Generator:  d.Generator,
		Translator: d.Translator,
		Tools:      d.Tools,
		Card:       card,
		Language:   d.Language,
	})
}

func (d Deps) record(ctx context.Context, kind, subject, actor, detail string) {
	if d.Journal == nil {
		return
	}
	if err := d.Journal.Record(ctx, kind, subject, actor, detail); err != nil {
		d.Logger.Warn("Failed to journal release decision", zap.String("kind", kind), zap.Error(err))
	}
}

// Advisor holds a card of its own and a list of to-dos to review.
type Advisor struct {
	card     *security.IdentityCard
	password string
	deps     Deps

	mu    sync.Mutex
	todos []*topic.ToDo
}

// New creates an advisor acting with card, unlocked by password.
func New(card *security.IdentityCard, password string, deps Deps) *Advisor {
	return &Advisor{card: card, password: password, deps: deps}
}

// Name returns the advisor's card name.
func (a *Advisor) Name() string {
	return a.card.Name
}

// AddToDo queues a to-do for review. Nil is rejected.
func (a *Advisor) AddToDo(todo *topic.ToDo) bool {
	if todo == nil {
		return false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.todos = append(a.todos, todo)
	return true
}

// Len returns the number of queued to-dos.
func (a *Advisor) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.todos)
}

// Consult asks the stack for advice on todo. Returns "" if no advice could
// be generated.
func (a *Advisor) Consult(ctx context.Context, todo *topic.ToDo) string {
	prompt := a.deps.Translator.T("ADVISOR_CONSULT", todo.Instructions(), todo.Text)
	advice, ok := a.deps.Generator.GenerateText(ctx, prompt)
	if !ok {
		return ""
	}
	a.deps.Logger.Debug("Advice received", zap.String("todo", todo.Description), zap.String("advice", advice))
	return advice
}

// Evaluate consults the stack and releases todo when the advice contains
// "GO" and the advisor passes a MEDIUM check. Otherwise todo is declined.
func (a *Advisor) Evaluate(ctx context.Context, todo *topic.ToDo) bool {
	advice := a.Consult(ctx, todo)

	if !strings.Contains(advice, "GO") {
		a.deps.Logger.Info("Advice indicates NO GO", zap.String("todo", todo.Description))
		a.decline(ctx, todo, advice)
		return false
	}

	if err := a.approve(todo); err != nil {
		a.deps.Logger.Warn("Release failed", zap.String("todo", todo.Description), zap.Error(err))
		a.decline(ctx, todo, advice)
		return false
	}

	a.deps.Logger.Info("To-do released by advisor",
		zap.String("event_type", "topic_released"),
		zap.String("todo", todo.Description),
		zap.String("advisor", a.card.Name))
	a.deps.record(ctx, audit.KindTopicReleased, todo.Description, a.card.Name, todo.Receipt)
	return true
}

func (a *Advisor) approve(todo *topic.ToDo) error {
	if err := a.card.CheckSecurity(security.LevelMedium, a.password); err != nil {
		return err
	}
	return todo.ReleaseForExecution(a.card, a.password)
}

func (a *Advisor) decline(ctx context.Context, todo *topic.ToDo, advice string) {
	todo.Ready = false
	todo.Refined = false
	todo.DenyByAdvisor(advice)
	a.deps.record(ctx, audit.KindTopicDenied, todo.Description, a.card.Name, advice)
}

// PopAndExecute executes the oldest queued to-do. On failure the to-do is
// returned so the caller can requeue it.
func (a *Advisor) PopAndExecute(ctx context.Context) (*topic.ToDo, string, error) {
	a.mu.Lock()
	if len(a.todos) == 0 {
		a.mu.Unlock()
		return nil, "", ErrNoToDo
	}
	todo := a.todos[0]
	a.todos = a.todos[1:]
	a.mu.Unlock()

	out, err := a.Execute(ctx, todo)
	if err != nil {
		return todo, out, err
	}
	return nil, out, nil
}

// Execute evaluates todo, then builds and runs its instruction.
func (a *Advisor) Execute(ctx context.Context, todo *topic.ToDo) (string, error) {
	if !a.Evaluate(ctx, todo) {
		return "", fmt.Errorf("%w: %s", ErrNotReleased, todo.Description)
	}

	ins, err := a.deps.instruction(ctx, todo, a.card)
	if err != nil {
		return "", err
	}
	return ins.Execute(ctx, a.deps.Runner)
}
