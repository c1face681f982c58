// Package individual is the agent's top-level scheduler. It interleaves the
// normal-operation process with interrupt tasks: queued PRIO_1, PRIO_2 and
// PRIO_LOW tasks pause normal operation, run, and hand control back.
package individual

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Rob9999/ethos-ai-clim/internal/audit"
	"github.com/Rob9999/ethos-ai-clim/internal/clim"
	"github.com/Rob9999/ethos-ai-clim/internal/state"
	"github.com/Rob9999/ethos-ai-clim/internal/task"
	"github.com/Rob9999/ethos-ai-clim/pkg/blackboard"
)

// Result messages of Start and Stop.
const (
	MsgStarted       = "Individual started."
	MsgAlreadyActive = "Individual is already active."
	MsgStopped       = "Individual stopped."
	MsgAlreadyOff    = "Individual is already off."
)

// DefaultTaskCheckInterval is how long the loop idles between task checks
// when nothing is submitted.
const DefaultTaskCheckInterval = 5 * time.Second

// ProcessModel is the normal-operation process the scheduler pauses and
// resumes.
type ProcessModel interface {
	Execute(ctx context.Context) (bool, string)
	StopExecution(priority state.Priority, count int) (bool, string)
	IsRunning() bool
	SetAdvised(advised bool)
	SubmitTask(t *task.Task)
}

// Trainer starts layer training in the background.
type Trainer interface {
	StartTrainingAsync(data map[string][]string, epochs, batchSize int, learningRate float64)
}

// Mirror publishes the queue and phase to observers.
type Mirror interface {
	MirrorTask(ctx context.Context, rec blackboard.TaskRecord, front bool) error
	RemoveTask(ctx context.Context, rec blackboard.TaskRecord) error
	PublishPhaseEvent(ctx context.Context, phase, detail string) error
}

// Journal records task outcomes.
type Journal interface {
	Record(ctx context.Context, kind, subject, actor, detail string) error
}

// Config tunes the scheduler.
type Config struct {
	Name              string
	TaskCheckInterval time.Duration
	Advised           bool

	// DreamChance is the probability that an empty PRIO_LOW check injects
	// a DREAM task. Zero disables dreaming.
	DreamChance float64

	TestCasesDir string
	Epochs       int
	BatchSize    int
	LearningRate float64
}

// Deps are the scheduler's collaborators. Mirror and Journal are optional.
type Deps struct {
	Process ProcessModel
	Trainer Trainer
	Mirror  Mirror
	Journal Journal
	Logger  *zap.Logger
}

// Individual owns the interrupt queues and the agent's phase. One mutex
// guards the bookkeeping; task handlers and process calls run outside it.
type Individual struct {
	cfg    Config
	deps   Deps
	logger *zap.Logger
	chance func() float64

	mu           sync.Mutex
	phase        state.Phase
	maintenance  state.MaintenancePhase
	advised      bool
	queues       *task.Queues
	stopping     bool
	stop         chan struct{}
	done         chan struct{}
	trainingData map[string][]string
	phaseEvents  []state.Phase

	// publishMu keeps phase events in order without holding mu during I/O.
	publishMu sync.Mutex

	wake chan struct{}
}

// New creates an individual in the OFF phase.
func New(cfg Config, deps Deps) *Individual {
	if cfg.TaskCheckInterval <= 0 {
		cfg.TaskCheckInterval = DefaultTaskCheckInterval
	}
	if cfg.Epochs <= 0 {
		cfg.Epochs = 1
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 8
	}
	if cfg.LearningRate <= 0 {
		cfg.LearningRate = 5e-5
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Individual{
		cfg:         cfg,
		deps:        deps,
		logger:      deps.Logger.Named("scheduler"),
		chance:      rand.Float64,
		phase:       state.PhaseOff,
		maintenance: state.MaintenanceNone,
		advised:     cfg.Advised,
		queues:      task.NewQueues(),
		wake:        make(chan struct{}, 1),
	}
}

// setPhase must be called with mu held. The change is published by the next
// publishPhases call, made after mu is released.
func (i *Individual) setPhase(p state.Phase) {
	if i.phase == p {
		return
	}
	i.phase = p
	i.logger.Info("Phase changed", zap.String("event_type", "phase_changed"), zap.String("phase", string(p)))
	if i.deps.Mirror != nil {
		i.phaseEvents = append(i.phaseEvents, p)
	}
}

// publishPhases sends the pending phase changes to the mirror. It must be
// called without mu held.
func (i *Individual) publishPhases() {
	if i.deps.Mirror == nil {
		return
	}
	i.publishMu.Lock()
	defer i.publishMu.Unlock()

	i.mu.Lock()
	pending := i.phaseEvents
	i.phaseEvents = nil
	i.mu.Unlock()

	for _, p := range pending {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err := i.deps.Mirror.PublishPhaseEvent(ctx, string(p), p.Description())
		cancel()
		if err != nil {
			i.logger.Debug("Failed to publish phase", zap.Error(err))
		}
	}
}

// Phase returns the current phase.
func (i *Individual) Phase() state.Phase {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.phase
}

// Start initialises the individual and spawns the scheduler loop.
func (i *Individual) Start(ctx context.Context) (bool, string) {
	i.mu.Lock()
	if i.phase != state.PhaseOff {
		i.mu.Unlock()
		i.logger.Warn(MsgAlreadyActive)
		return false, MsgAlreadyActive
	}

	i.stop = make(chan struct{})
	i.done = make(chan struct{})
	i.stopping = false
	i.setPhase(state.PhaseStarting)
	i.initialize()

	go i.loop(ctx, i.stop, i.done)
	i.mu.Unlock()

	i.publishPhases()
	i.logger.Info(MsgStarted, zap.String("name", i.cfg.Name))
	return true, MsgStarted
}

// initialize must be called with mu held.
func (i *Individual) initialize() {
	i.deps.Process.SetAdvised(i.advised)

	if i.cfg.TestCasesDir == "" {
		return
	}
	cases, err := clim.LoadTestCases(i.cfg.TestCasesDir)
	if err != nil {
		i.logger.Warn("No training data loaded", zap.String("dir", i.cfg.TestCasesDir), zap.Error(err))
		return
	}
	i.trainingData = clim.TrainingData(cases)
}

// Stop ends the scheduler loop and the process model and waits for both.
func (i *Individual) Stop() (bool, string) {
	i.mu.Lock()
	if i.phase == state.PhaseOff {
		i.mu.Unlock()
		i.logger.Warn(MsgAlreadyOff)
		return false, MsgAlreadyOff
	}
	i.requestStop()
	done := i.done
	i.mu.Unlock()
	i.publishPhases()

	<-done
	return true, MsgStopped
}

// requestStop must be called with mu held.
func (i *Individual) requestStop() bool {
	if i.stopping {
		return false
	}
	i.stopping = true
	i.setPhase(state.PhaseStopping)
	close(i.stop)
	return true
}

// Submit queues a task from any goroutine. NORMAL tasks go to the process
// model; EMERGENCY tasks jump to the head of the PRIO_1 tier.
func (i *Individual) Submit(ctx context.Context, t *task.Task) error {
	switch t.Priority {
	case state.PriorityNormal:
		i.deps.Process.SubmitTask(t)
		return nil
	case state.PriorityEmergency:
		i.mu.Lock()
		i.queues.PushFront(state.Priority1, t)
		i.mu.Unlock()
		i.mirror(ctx, t, true)
	case state.Priority1, state.Priority2, state.PriorityLow:
		i.mu.Lock()
		i.queues.Push(t)
		i.mu.Unlock()
		i.mirror(ctx, t, false)
	default:
		return fmt.Errorf("invalid priority %d", t.Priority)
	}

	i.logger.Info("Task submitted",
		zap.String("task_id", t.ID),
		zap.String("type", string(t.Type)),
		zap.String("priority", t.Priority.String()))

	select {
	case i.wake <- struct{}{}:
	default:
	}
	return nil
}

func (i *Individual) mirror(ctx context.Context, t *task.Task, front bool) {
	if i.deps.Mirror == nil {
		return
	}
	if err := i.deps.Mirror.MirrorTask(ctx, t.Record(), front); err != nil {
		i.logger.Warn("Failed to mirror task", zap.String("task_id", t.ID), zap.Error(err))
	}
}

func (i *Individual) unmirror(ctx context.Context, tasks []*task.Task) {
	if i.deps.Mirror == nil {
		return
	}
	for _, t := range tasks {
		if err := i.deps.Mirror.RemoveTask(ctx, t.Record()); err != nil {
			i.logger.Warn("Failed to remove mirrored task", zap.String("task_id", t.ID), zap.Error(err))
		}
	}
}

// Status is a point-in-time view of the scheduler.
type Status struct {
	Name        string                 `json:"name"`
	Phase       state.Phase            `json:"phase"`
	Maintenance state.MaintenancePhase `json:"maintenance_phase"`
	Advised     bool                   `json:"advised"`
	Queues      map[string]int         `json:"queues"`
	Running     bool                   `json:"process_running"`
}

// Status copies the current state.
func (i *Individual) Status() Status {
	i.mu.Lock()
	s := Status{
		Name:        i.cfg.Name,
		Phase:       i.phase,
		Maintenance: i.maintenance,
		Advised:     i.advised,
		Queues:      i.queues.Snapshot(),
	}
	i.mu.Unlock()
	s.Running = i.deps.Process.IsRunning()
	return s
}

// loop is the scheduler. Stop is checked between iterations.
func (i *Individual) loop(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	defer i.shutdown()

	for {
		if stopRequested(ctx, stop) {
			return
		}

		handled, err := i.checkAndHandle(ctx, stop)
		switch {
		case err != nil:
			i.logger.Warn("Task handling failed", zap.String("event_type", "task_failed"), zap.Error(err))
		case handled:
			continue
		default:
			i.normalOperation(ctx)
		}

		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-i.wake:
		case <-time.After(i.cfg.TaskCheckInterval):
		}
	}
}

func stopRequested(ctx context.Context, stop <-chan struct{}) bool {
	select {
	case <-stop:
		return true
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// shutdown stops the process model and switches OFF.
func (i *Individual) shutdown() {
	i.deps.Process.StopExecution(state.PriorityNormal, 0)

	i.mu.Lock()
	i.maintenance = state.MaintenanceNone
	i.stopping = false
	i.setPhase(state.PhaseOff)
	i.mu.Unlock()

	i.publishPhases()
	i.logger.Info(MsgStopped)
}

// checkAndHandle handles the most urgent non-empty tier. Returns whether a
// tier was handled.
func (i *Individual) checkAndHandle(ctx context.Context, stop <-chan struct{}) (bool, error) {
	for _, p := range state.InterruptTiers {
		if stopRequested(ctx, stop) {
			return false, nil
		}
		tasks := i.checkTasks(ctx, p)
		if len(tasks) > 0 {
			return true, i.handleTasks(ctx, p, tasks)
		}
	}
	return false, nil
}

// checkTasks drains tier p. An empty PRIO_LOW tier may yield a DREAM task.
func (i *Individual) checkTasks(ctx context.Context, p state.Priority) []*task.Task {
	i.mu.Lock()
	i.setPhase(state.PhaseMaintenance)
	i.maintenance = state.CheckingPhaseFor(p)
	tasks := i.queues.Drain(p)
	i.maintenance = state.MaintenanceNone
	i.mu.Unlock()

	i.publishPhases()
	i.unmirror(ctx, tasks)

	if len(tasks) == 0 && p == state.PriorityLow && i.cfg.DreamChance > 0 && i.chance() < i.cfg.DreamChance {
		tasks = append(tasks, task.New(task.TypeDream, state.PriorityLow))
	}
	return tasks
}

// handleTasks pauses normal operation and processes tasks in order. The
// first failing task and everything after it go back to the head of tier p.
func (i *Individual) handleTasks(ctx context.Context, p state.Priority, tasks []*task.Task) error {
	i.mu.Lock()
	i.setPhase(state.HandlePhaseFor(p))
	i.maintenance = state.HandlingPhaseFor(p)
	i.mu.Unlock()
	i.publishPhases()

	i.logger.Info("Handling tasks", zap.String("priority", p.String()), zap.Int("count", len(tasks)))
	i.deps.Process.StopExecution(p, len(tasks))

	var failure error
	for idx, t := range tasks {
		msg, err := i.processTask(ctx, t)
		if err != nil {
			i.requeue(ctx, p, tasks[idx:])
			i.record(ctx, audit.KindTaskFailed, t, err.Error())
			failure = err
			break
		}
		i.record(ctx, audit.KindTaskDone, t, msg)
	}

	i.mu.Lock()
	i.maintenance = state.MaintenanceNone
	stopping := i.stopping
	i.mu.Unlock()

	if !stopping {
		i.normalOperation(ctx)
	}
	i.logger.Info("Handling tasks completed", zap.String("priority", p.String()), zap.Bool("failed", failure != nil))
	return failure
}

func (i *Individual) requeue(ctx context.Context, p state.Priority, tasks []*task.Task) {
	i.mu.Lock()
	i.queues.PushFront(p, tasks...)
	i.mu.Unlock()

	// LPush reverses, so mirror back to front.
	for k := len(tasks) - 1; k >= 0; k-- {
		i.mirror(ctx, tasks[k], true)
	}
}

func (i *Individual) record(ctx context.Context, kind string, t *task.Task, detail string) {
	if i.deps.Journal == nil {
		return
	}
	if err := i.deps.Journal.Record(ctx, kind, t.ID, i.cfg.Name, string(t.Type)+": "+detail); err != nil {
		i.logger.Warn("Failed to journal task outcome", zap.String("task_id", t.ID), zap.Error(err))
	}
}

// normalOperation resumes the process model unless it is running.
func (i *Individual) normalOperation(ctx context.Context) (bool, string) {
	if i.deps.Process.IsRunning() {
		return false, "Individual is already in normal operation."
	}
	i.mu.Lock()
	i.setPhase(state.PhaseNormalOperation)
	i.mu.Unlock()
	i.publishPhases()

	i.deps.Process.Execute(ctx)
	return true, "Individual is in normal operation."
}
