package process

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Rob9999/ethos-ai-clim/internal/clim"
	"github.com/Rob9999/ethos-ai-clim/internal/decision"
	"github.com/Rob9999/ethos-ai-clim/internal/topic"
)

const taskQuestion = "Should a task be executed?"

func isClosed(stop <-chan struct{}) bool {
	select {
	case <-stop:
		return true
	default:
		return false
	}
}

// evaluateTasks asks the stack whether the oldest queued task should run.
// A failed task goes back to the tail.
func (m *Model) evaluateTasks(ctx context.Context, _ <-chan struct{}) {
	m.mu.Lock()
	if len(m.tasks) == 0 {
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()

	ok, d, summary := m.SingleRequest(ctx, taskQuestion)
	m.logger.Info("Task evaluation", zap.String("decision", d.String()), zap.String("summary", summary))
	if !ok {
		return
	}

	m.mu.Lock()
	if len(m.tasks) == 0 {
		m.mu.Unlock()
		return
	}
	t := m.tasks[0]
	m.tasks = m.tasks[1:]
	m.mu.Unlock()

	done, answer := m.DoTask(ctx, t)
	if done {
		m.logger.Info("Task completed", zap.String("type", string(t.Type)), zap.String("answer", answer))
		return
	}
	m.logger.Info("Task could not be completed, retrying later", zap.String("type", string(t.Type)), zap.String("answer", answer))
	m.SubmitTask(t)
}

// ethicalEvaluation simulates every ethical question and turns the best GO
// answers into aspirations.
func (m *Model) ethicalEvaluation(ctx context.Context, _ <-chan struct{}) {
	if m.deps.Questions == nil {
		return
	}
	m.logger.Info("Ethical evaluation of the current state")

	results := m.MultipleRequests(ctx, m.deps.Questions.All())
	var promoted []*topic.Aspiration
	for _, sim := range results {
		if sim.Decision != decision.Go {
			continue
		}
		promoted = append(promoted, topic.PromoteToAspiration(sim, m.deps.Translator))
		if len(promoted) == m.cfg.MaxAspirations {
			break
		}
	}

	m.mu.Lock()
	m.aspirations = append(m.aspirations, promoted...)
	m.mu.Unlock()
	m.logger.Info("Ethical evaluation completed", zap.Int("questions", len(results)), zap.Int("aspirations", len(promoted)))
}

// simulateSolutions looks for an acceptable solution per aspiration. GO
// promotes the aspiration to a to-do; anything else refines it and tries
// again later, or parks it on the long-term list after too many rounds.
// The last aspiration stays queued.
func (m *Model) simulateSolutions(ctx context.Context, stop <-chan struct{}) {
	for !isClosed(stop) && ctx.Err() == nil {
		m.mu.Lock()
		if len(m.aspirations) <= 1 {
			m.mu.Unlock()
			break
		}
		asp := m.aspirations[0]
		m.aspirations = m.aspirations[1:]
		m.mu.Unlock()

		text := asp.Text
		ok, d, summary := m.SingleRequest(ctx, text)
		log := m.logger.With(zap.String("decision", d.String()), zap.String("summary", summary))

		if !ok {
			asp.Refine(text + "\n" + d.String() + "\n" + summary)
			m.mu.Lock()
			m.aspirations = append(m.aspirations, asp)
			m.mu.Unlock()
			log.Warn("No acceptable solution found due to failure", zap.String("aspiration", asp.Text))
			continue
		}

		asp.Refine(text + "\n" + summary)
		switch {
		case d == decision.Go:
			todo := topic.PromoteToToDo(asp)
			m.mu.Lock()
			m.todos = append(m.todos, todo)
			m.mu.Unlock()
			log.Info("Solution found", zap.String("aspiration", text))
		case asp.RefineCount > maxRefinements:
			m.mu.Lock()
			m.longTerm = append(m.longTerm, asp)
			m.mu.Unlock()
			log.Info("Aspiration moved to long-term challenges", zap.String("aspiration", text))
		default:
			m.mu.Lock()
			m.aspirations = append(m.aspirations, asp)
			m.mu.Unlock()
			log.Info("No acceptable solution found, aspiration refined", zap.Int("refinements", asp.RefineCount))
		}
	}
}

// implementSolutions releases and executes the queued to-dos in order.
// Denied to-dos are parked and the pass goes on. Any other failure puts that
// to-do and the rest back at the head and ends the pass.
func (m *Model) implementSolutions(ctx context.Context, stop <-chan struct{}) {
	m.mu.Lock()
	pending := m.todos
	m.todos = nil
	advised := m.advised
	m.mu.Unlock()

	if len(pending) == 0 {
		m.logger.Info("No to-dos to implement")
		return
	}
	m.logger.Info("Implementing to-dos", zap.Bool("advised", advised), zap.Int("count", len(pending)))

	for i, todo := range pending {
		if todo.IsPlaceholder() {
			m.logger.Warn("Skipping placeholder to-do", zap.String("todo", todo.Description))
			continue
		}
		if isClosed(stop) || m.deps.Executor == nil {
			m.requeueToDos(pending[i:])
			return
		}

		out, err := m.deps.Executor.Execute(ctx, todo, advised)
		if todo.Denied {
			m.logger.Warn("To-do denied",
				zap.String("event_type", "topic_denied"),
				zap.String("todo", todo.Description),
				zap.String("advice", todo.Advice))
			m.mu.Lock()
			m.denied = append(m.denied, todo)
			m.mu.Unlock()
			continue
		}
		if err != nil {
			m.logger.Warn("To-do failed",
				zap.String("event_type", "task_failed"),
				zap.String("todo", todo.Description),
				zap.Error(err))
			m.requeueToDos(pending[i:])
			return
		}
		m.logger.Info("To-do implemented", zap.String("todo", todo.Description), zap.String("output", out))
	}
}

func (m *Model) requeueToDos(todos []*topic.ToDo) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.todos = append(append([]*topic.ToDo{}, todos...), m.todos...)
}

// Score is the outcome of one learning check.
type Score struct {
	Total int `json:"total"`
	Cases int `json:"cases"`
}

// stageFor picks the stage a layer is scored at.
func stageFor(layer string) string {
	switch layer {
	case clim.LayerEthic, clim.LayerIndividual, clim.LayerSamt:
		return clim.StagePrerun
	default:
		return clim.StageAll
	}
}

// integrateLearning trains the stack on the test cases, waits for every
// layer to settle and scores each layer against the expected decisions.
func (m *Model) integrateLearning(ctx context.Context, stop <-chan struct{}) {
	if m.cfg.TestCasesDir == "" {
		return
	}
	m.logger.Info("Integrating experiences into the stack")

	cases, err := clim.LoadTestCases(m.cfg.TestCasesDir)
	if err != nil {
		m.logger.Warn("Failed to load test cases", zap.Error(err))
		return
	}
	m.deps.Stack.StartTrainingAsync(clim.TrainingData(cases), m.cfg.Epochs, m.cfg.BatchSize, m.cfg.LearningRate)

	if !m.awaitTraining(ctx, stop) {
		m.deps.Stack.RequestCancellationOfTraining()
		return
	}
	m.logger.Info("Training completed")

	var score Score
	for layer, list := range cases {
		stage := stageFor(layer)
		for _, tc := range list {
			entry, err := m.LayerRequest(ctx, stage, layer, tc.Scenario)
			got := decision.None
			if err != nil {
				m.logger.Warn("Layer request failed", zap.String("layer", layer), zap.Error(err))
			} else if entry != nil {
				got = entry.Decision
			}

			points := 0
			if strings.EqualFold(got.String(), strings.TrimSpace(tc.Decision)) {
				points = 1
			}
			score.Total += points
			score.Cases++
			m.logger.Debug("Test result",
				zap.String("layer", layer),
				zap.String("scenario", tc.Scenario),
				zap.Int("score", points),
				zap.String("decision", got.String()),
				zap.String("expected", tc.Decision))
		}
	}

	m.mu.Lock()
	m.lastScore = score
	m.mu.Unlock()
	m.logger.Info("Overall performance score", zap.Int("score", score.Total), zap.Int("cases", score.Cases))
}

// awaitTraining polls until every layer's training has settled. Returns
// false when stopped first.
func (m *Model) awaitTraining(ctx context.Context, stop <-chan struct{}) bool {
	settled := func() bool {
		for _, s := range m.deps.Stack.TrainingStatus() {
			if !s.IsSettled() {
				return false
			}
		}
		return true
	}
	if settled() {
		return true
	}

	ticker := time.NewTicker(m.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return false
		case <-ctx.Done():
			return false
		case <-ticker.C:
			status := m.deps.Stack.TrainingStatus()
			m.logger.Info("Training status", zap.String("event_type", "training_status"), zap.Any("status", status))
			if settled() {
				return true
			}
		}
	}
}

type deviationMarks struct {
	longTerm int
	denied   int
}

// checkDeviations compares the long-term backlog and the number of denied
// to-dos with the previous pass.
func (m *Model) checkDeviations(_ context.Context, _ <-chan struct{}) {
	m.mu.Lock()
	cur := deviationMarks{longTerm: len(m.longTerm), denied: len(m.denied)}
	prev := m.deviation
	m.deviation = cur
	m.mu.Unlock()

	log := m.logger.With(zap.Int("long_term", cur.longTerm), zap.Int("denied", cur.denied))
	if cur.longTerm > prev.longTerm || cur.denied > prev.denied {
		log.Warn("Deviation detected",
			zap.String("event_type", "deviation"),
			zap.Int("long_term_delta", cur.longTerm-prev.longTerm),
			zap.Int("denied_delta", cur.denied-prev.denied))
		return
	}
	log.Debug("No deviations")
}
