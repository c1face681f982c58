package individual

import (
	"context"
	"maps"

	"go.uber.org/zap"

	"github.com/Rob9999/ethos-ai-clim/internal/clim"
	"github.com/Rob9999/ethos-ai-clim/internal/state"
	"github.com/Rob9999/ethos-ai-clim/internal/task"
)

type handler func(ctx context.Context, t *task.Task) (bool, string)

func (i *Individual) handlers() map[task.Type]handler {
	return map[task.Type]handler{
		task.TypeService:         i.service,
		task.TypeDream:           i.dream,
		task.TypeTrainEthic:      i.trainEthic,
		task.TypeTrainIndividual: i.trainIndividual,
		task.TypeTrainClim:       i.trainClim,
		task.TypeStop:            i.stopTask,
		task.TypeStart:           i.startTask,
		task.TypeAutonomLiving:   i.autonomLiving,
		task.TypeAdvisedLiving:   i.advisedLiving,
	}
}

// processTask runs the handler for t. A handler that reports the mode is
// already active still counts as processed; only unknown types fail.
func (i *Individual) processTask(ctx context.Context, t *task.Task) (string, error) {
	h, ok := i.handlers()[t.Type]
	if !ok {
		i.logger.Warn("Unknown task", zap.String("task_id", t.ID), zap.String("type", string(t.Type)))
		return "", &task.ExecutionError{Task: t, Err: task.ErrUnknownType}
	}

	changed, msg := h(ctx, t)
	i.logger.Info("Task processed",
		zap.String("task_id", t.ID),
		zap.String("type", string(t.Type)),
		zap.Bool("changed", changed),
		zap.String("result", msg))
	return msg, nil
}

// enterPhase switches to p unless already there.
func (i *Individual) enterPhase(p state.Phase) bool {
	i.mu.Lock()
	if i.phase == p {
		i.mu.Unlock()
		return false
	}
	i.setPhase(p)
	i.mu.Unlock()
	i.publishPhases()
	return true
}

func (i *Individual) service(context.Context, *task.Task) (bool, string) {
	if !i.enterPhase(state.PhaseService) {
		return false, "Individual is already in service mode."
	}
	return true, "Individual is in service mode."
}

func (i *Individual) dream(context.Context, *task.Task) (bool, string) {
	if !i.enterPhase(state.PhaseDreaming) {
		return false, "Individual is already dreaming."
	}
	i.train(clim.LayerEthic)
	return true, "Individual is dreaming."
}

func (i *Individual) trainEthic(context.Context, *task.Task) (bool, string) {
	if !i.enterPhase(state.PhaseTrainingEthics) {
		return false, "Ethic layer is already training."
	}
	i.train(clim.LayerEthic)
	return true, "Ethic layer is training."
}

func (i *Individual) trainIndividual(context.Context, *task.Task) (bool, string) {
	if !i.enterPhase(state.PhaseTrainingIndividual) {
		return false, "Individual layer is already training."
	}
	i.train(clim.LayerIndividual)
	return true, "Individual layer is training."
}

func (i *Individual) trainClim(context.Context, *task.Task) (bool, string) {
	if !i.enterPhase(state.PhaseTrainingClim) {
		return false, "Stack is already training."
	}
	i.train()
	return true, "Stack is training."
}

// train starts training on the named layers, or on every layer with data
// when none is named.
func (i *Individual) train(layers ...string) {
	i.mu.Lock()
	data := maps.Clone(i.trainingData)
	i.mu.Unlock()

	if len(layers) > 0 {
		selected := make(map[string][]string, len(layers))
		for _, l := range layers {
			if examples, ok := data[l]; ok {
				selected[l] = examples
			}
		}
		data = selected
	}
	if len(data) == 0 {
		i.logger.Info("No training data", zap.Strings("layers", layers))
		return
	}
	i.deps.Trainer.StartTrainingAsync(data, i.cfg.Epochs, i.cfg.BatchSize, i.cfg.LearningRate)
}

// stopTask ends the loop from inside; the loop's exit does the shutdown.
func (i *Individual) stopTask(context.Context, *task.Task) (bool, string) {
	i.mu.Lock()
	stopped := i.phase == state.PhaseOff || !i.requestStop()
	i.mu.Unlock()
	if stopped {
		return false, "Individual is already stopping."
	}
	i.publishPhases()
	return true, "Individual is stopping."
}

func (i *Individual) startTask(ctx context.Context, _ *task.Task) (bool, string) {
	return i.Start(ctx)
}

// The living modes take effect when handleTasks resumes normal operation.
func (i *Individual) autonomLiving(context.Context, *task.Task) (bool, string) {
	if !i.setAdvised(false) {
		return false, "Individual is already living autonomously."
	}
	return true, "Individual is living autonomously."
}

func (i *Individual) advisedLiving(context.Context, *task.Task) (bool, string) {
	if !i.setAdvised(true) {
		return false, "Individual is already living advised."
	}
	return true, "Individual is living advised."
}

// setAdvised reports whether the mode changed.
func (i *Individual) setAdvised(advised bool) bool {
	i.mu.Lock()
	if i.advised == advised {
		i.mu.Unlock()
		return false
	}
	i.advised = advised
	i.mu.Unlock()

	i.deps.Process.SetAdvised(advised)
	i.logger.Info("Living mode changed", zap.Bool("advised", advised))
	return true
}
