package advisor

import (
	"context"

	"go.uber.org/zap"

	"github.com/Rob9999/ethos-ai-clim/internal/audit"
	"github.com/Rob9999/ethos-ai-clim/internal/security"
	"github.com/Rob9999/ethos-ai-clim/internal/topic"
)

// Executor implements to-dos either through an Advisor or with the
// individual's own card.
type Executor struct {
	card     *security.IdentityCard
	password string
	advisor  *Advisor
	deps     Deps
}

// NewExecutor creates an executor. advisor may be nil, in which case the
// advised path falls back to the unadvised one.
func NewExecutor(card *security.IdentityCard, password string, advisor *Advisor, deps Deps) *Executor {
	return &Executor{card: card, password: password, advisor: advisor, deps: deps}
}

// Execute runs todo on the advised or unadvised path.
func (e *Executor) Execute(ctx context.Context, todo *topic.ToDo, advised bool) (string, error) {
	if advised && e.advisor != nil {
		return e.advisor.Execute(ctx, todo)
	}
	return e.ExecuteUnadvised(ctx, todo)
}

// ExecuteUnadvised releases todo with the executor's own card, then builds
// and runs its instruction.
func (e *Executor) ExecuteUnadvised(ctx context.Context, todo *topic.ToDo) (string, error) {
	if err := todo.ReleaseForExecution(e.card, e.password); err != nil {
		e.deps.record(ctx, audit.KindTopicDenied, todo.Description, e.card.Name, err.Error())
		return "", err
	}
	e.deps.record(ctx, audit.KindTopicReleased, todo.Description, e.card.Name, todo.Receipt)

	ins, err := e.deps.instruction(ctx, todo, e.card)
	if err != nil {
		return "", err
	}
	out, err := ins.Execute(ctx, e.deps.Runner)
	if err != nil {
		return out, err
	}

	e.deps.Logger.Info("To-do executed",
		zap.String("event_type", "todo_executed"),
		zap.String("todo", todo.Description))
	return out, nil
}
