// Package process runs the agent's normal operation: a background worker
// that repeatedly evaluates ethical questions, simulates solutions for the
// resulting aspirations, implements the to-dos and integrates what it
// learned into the layer stack.
package process

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Rob9999/ethos-ai-clim/internal/advisor"
	"github.com/Rob9999/ethos-ai-clim/internal/clim"
	"github.com/Rob9999/ethos-ai-clim/internal/decision"
	"github.com/Rob9999/ethos-ai-clim/internal/ethics"
	"github.com/Rob9999/ethos-ai-clim/internal/simulation"
	"github.com/Rob9999/ethos-ai-clim/internal/state"
	"github.com/Rob9999/ethos-ai-clim/internal/task"
	"github.com/Rob9999/ethos-ai-clim/internal/topic"
	"github.com/Rob9999/ethos-ai-clim/pkg/blackboard"
)

// Result messages of Execute and StopExecution.
const (
	MsgStarted         = "Process model started."
	MsgAlreadyActive   = "Process model is already active."
	MsgStopped         = "Process model stopped."
	MsgAlreadyInactive = "Process model is already inactive."
)

const (
	// DefaultPollInterval is how often training status is polled.
	DefaultPollInterval = 10 * time.Second

	// DefaultCycleInterval is the pause between two passes of the worker loop.
	DefaultCycleInterval = 30 * time.Second

	// DefaultMaxAspirations caps how many GO answers of one ethical
	// evaluation become aspirations.
	DefaultMaxAspirations = 10

	// maxRefinements moves an aspiration to the long-term list once exceeded.
	maxRefinements = 3
)

// Config tunes the worker loop. Zero values take the defaults.
type Config struct {
	TestCasesDir   string
	PollInterval   time.Duration
	CycleInterval  time.Duration
	MaxAspirations int

	Epochs       int
	BatchSize    int
	LearningRate float64
}

func (c *Config) applyDefaults() {
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.CycleInterval <= 0 {
		c.CycleInterval = DefaultCycleInterval
	}
	if c.MaxAspirations <= 0 {
		c.MaxAspirations = DefaultMaxAspirations
	}
	if c.Epochs <= 0 {
		c.Epochs = 1
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 8
	}
	if c.LearningRate <= 0 {
		c.LearningRate = 5e-5
	}
}

// Deps are the collaborators of the process model.
type Deps struct {
	Stack      *clim.Stack
	Grid       *simulation.Grid
	Questions  *ethics.Questions
	Executor   *advisor.Executor
	Translator topic.Translator
	Logger     *zap.Logger
}

// Model is the normal-operation process. Its topic lists are guarded by mu;
// model calls run outside the lock.
type Model struct {
	deps   Deps
	cfg    Config
	logger *zap.Logger

	mu          sync.Mutex
	details     *state.ProcessPhaseDetails
	advised     bool
	stopping    bool
	stop        chan struct{}
	done        chan struct{}
	tasks       []*task.Task
	aspirations []*topic.Aspiration
	longTerm    []*topic.Aspiration
	todos       []*topic.ToDo
	denied      []*topic.ToDo
	cycles      int
	lastScore   Score
	deviation   deviationMarks
}

// New creates a process model in the OFF phase.
func New(deps Deps, cfg Config) *Model {
	cfg.applyDefaults()
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Model{
		deps:    deps,
		cfg:     cfg,
		logger:  deps.Logger.Named("process"),
		details: state.NewProcessPhaseDetails(state.ProcessOff),
	}
}

// Execute starts the worker unless it is already running.
func (m *Model) Execute(ctx context.Context) (bool, string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.logger.Info("Process model should start", zap.Bool("advised", m.advised))
	if m.details.Phase != state.ProcessOff {
		m.logger.Info(MsgAlreadyActive)
		return false, MsgAlreadyActive
	}

	m.stop = make(chan struct{})
	m.done = make(chan struct{})
	m.stopping = false
	m.details.Set(state.ProcessRunning)
	go m.run(ctx, m.stop, m.done)

	m.logger.Info(MsgStarted)
	return true, MsgStarted
}

// StopExecution asks the worker to stop after its current phase and waits
// for it. priority and count describe the tasks that caused the stop and
// are only logged.
func (m *Model) StopExecution(priority state.Priority, count int) (bool, string) {
	m.mu.Lock()
	m.logger.Info("Process model should stop",
		zap.String("priority", priority.String()),
		zap.Int("tasks", count))
	if m.details.Phase == state.ProcessOff {
		m.mu.Unlock()
		m.logger.Info(MsgAlreadyInactive)
		return false, MsgAlreadyInactive
	}
	if !m.stopping {
		m.stopping = true
		close(m.stop)
	}
	done := m.done
	m.mu.Unlock()

	<-done

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.details.Phase == state.ProcessOff {
		// A concurrent caller completed the stop.
		return false, MsgAlreadyInactive
	}
	report := m.details.Complete("Success", "Process model and stack stopped.")
	m.details.Set(state.ProcessOff)
	m.stopping = false
	m.logger.Info(MsgStopped, zap.String("report", report))
	return true, MsgStopped
}

// IsRunning reports whether the worker has been started and not stopped.
func (m *Model) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.details.Phase == state.ProcessRunning
}

// SetAdvised selects the advised or unadvised implementation path.
func (m *Model) SetAdvised(advised bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.advised = advised
}

// Advised reports the implementation path.
func (m *Model) Advised() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.advised
}

// SubmitTask queues a task for the worker's task evaluation.
func (m *Model) SubmitTask(t *task.Task) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks = append(m.tasks, t)
}

// AddAspiration queues an aspiration for simulation.
func (m *Model) AddAspiration(a *topic.Aspiration) {
	if a == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.aspirations = append(m.aspirations, a)
}

// LayerRequest runs request through one layer at one stage.
func (m *Model) LayerRequest(ctx context.Context, stage, layer, request string) (*blackboard.Entry, error) {
	m.logger.Info(m.deps.Translator.T("REQUEST", request), zap.String("layer", layer), zap.String("stage", stage))
	return m.deps.Grid.RunSimulationOnLayer(ctx, stage, layer, request)
}

// MultipleRequests simulates every request and returns the results ranked
// by ethic value.
func (m *Model) MultipleRequests(ctx context.Context, requests []string) []topic.Simulation {
	for _, r := range requests {
		m.logger.Debug(m.deps.Translator.T("REQUEST", r))
	}
	return m.deps.Grid.MultipleRequests(ctx, requests)
}

// SingleRequest runs one full simulation with alternative options.
func (m *Model) SingleRequest(ctx context.Context, request string) (bool, decision.Decision, string) {
	m.logger.Info(m.deps.Translator.T("REQUEST", request))
	return m.deps.Grid.RunSimulation(ctx, request)
}

// RequestDoTask asks whether t should be done and does it on GO.
func (m *Model) RequestDoTask(ctx context.Context, request string, t *task.Task) (bool, string) {
	ok, d, summary := m.SingleRequest(ctx, request)
	if !ok {
		return false, summary
	}
	if d != decision.Go {
		return false, "Request denied. Reason: " + summary
	}
	return m.DoTask(ctx, t)
}

// DoTask carries out a normal-operation task.
func (m *Model) DoTask(_ context.Context, t *task.Task) (bool, string) {
	m.logger.Info("Executing task", zap.String("task_id", t.ID), zap.String("type", string(t.Type)))
	return true, "Task successfully completed."
}

// ToDoView is the external view of a to-do.
type ToDoView struct {
	Description string `json:"description"`
	Goal        string `json:"goal"`
	Ready       bool   `json:"ready"`
	Denied      bool   `json:"denied"`
	Released    bool   `json:"released"`
	Advice      string `json:"advice,omitempty"`
}

// Snapshot is a point-in-time view of the process model.
type Snapshot struct {
	Phase       state.ProcessPhase `json:"phase"`
	Advised     bool               `json:"advised"`
	Tasks       int                `json:"tasks"`
	Cycles      int                `json:"cycles"`
	LastScore   Score              `json:"last_score"`
	Aspirations []string           `json:"aspirations"`
	LongTerm    []string           `json:"long_term_aspirations"`
	ToDos       []ToDoView         `json:"todos"`
	Denied      []ToDoView         `json:"denied_todos"`
}

// Snapshot copies the current state.
func (m *Model) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Snapshot{
		Phase:       m.details.Phase,
		Advised:     m.advised,
		Tasks:       len(m.tasks),
		Cycles:      m.cycles,
		LastScore:   m.lastScore,
		Aspirations: make([]string, 0, len(m.aspirations)),
		LongTerm:    make([]string, 0, len(m.longTerm)),
		ToDos:       make([]ToDoView, 0, len(m.todos)),
		Denied:      make([]ToDoView, 0, len(m.denied)),
	}
	for _, a := range m.aspirations {
		s.Aspirations = append(s.Aspirations, a.Description)
	}
	for _, a := range m.longTerm {
		s.LongTerm = append(s.LongTerm, a.Description)
	}
	for _, t := range m.todos {
		s.ToDos = append(s.ToDos, viewOf(t))
	}
	for _, t := range m.denied {
		s.Denied = append(s.Denied, viewOf(t))
	}
	return s
}

func viewOf(t *topic.ToDo) ToDoView {
	return ToDoView{
		Description: t.Description,
		Goal:        t.Text,
		Ready:       t.Ready,
		Denied:      t.Denied,
		Released:    t.IsReleased(),
		Advice:      t.Advice,
	}
}

// run is the worker loop. The stop channel is checked between phases only.
func (m *Model) run(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	stopped := func() bool {
		select {
		case <-stop:
			return true
		case <-ctx.Done():
			return true
		default:
			return false
		}
	}

	if stopped() {
		return
	}
	m.deps.Stack.Start(ctx)
	defer m.deps.Stack.Stop()

	phases := []struct {
		name string
		fn   func(context.Context, <-chan struct{})
	}{
		{"evaluate_tasks", m.evaluateTasks},
		{"ethical_evaluation", m.ethicalEvaluation},
		{"simulate_solutions", m.simulateSolutions},
		{"implement_solutions", m.implementSolutions},
		{"integrate_learning", m.integrateLearning},
		{"check_deviations", m.checkDeviations},
	}

	for !stopped() {
		for _, p := range phases {
			if stopped() {
				return
			}
			m.logger.Debug("Process phase", zap.String("event_type", "phase_changed"), zap.String("phase", p.name))
			p.fn(ctx, stop)
		}

		m.mu.Lock()
		m.cycles++
		m.mu.Unlock()

		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-time.After(m.cfg.CycleInterval):
		}
	}
}
