package individual

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/Rob9999/ethos-ai-clim/internal/audit"
	"github.com/Rob9999/ethos-ai-clim/internal/clim"
	"github.com/Rob9999/ethos-ai-clim/internal/state"
	"github.com/Rob9999/ethos-ai-clim/internal/task"
	"github.com/Rob9999/ethos-ai-clim/pkg/blackboard"
)

// genai links in opencensus, whose view worker runs for the whole process.
var ignoreOpenCensus = goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start")

type stopCall struct {
	priority state.Priority
	count    int
}

type fakeProcess struct {
	mu        sync.Mutex
	running   bool
	advised   bool
	executes  int
	stops     []stopCall
	submitted []*task.Task
}

func (p *fakeProcess) Execute(context.Context) (bool, string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return false, "already active"
	}
	p.running = true
	p.executes++
	return true, "started"
}

func (p *fakeProcess) StopExecution(priority state.Priority, count int) (bool, string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return false, "already inactive"
	}
	p.running = false
	p.stops = append(p.stops, stopCall{priority, count})
	return true, "stopped"
}

func (p *fakeProcess) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *fakeProcess) SetAdvised(advised bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.advised = advised
}

func (p *fakeProcess) SubmitTask(t *task.Task) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.submitted = append(p.submitted, t)
}

func (p *fakeProcess) stopCalls() []stopCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]stopCall(nil), p.stops...)
}

type fakeTrainer struct {
	mu   sync.Mutex
	runs []map[string][]string
}

func (f *fakeTrainer) StartTrainingAsync(data map[string][]string, _, _ int, _ float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs = append(f.runs, data)
}

type memoryJournal struct {
	mu    sync.Mutex
	kinds []string
}

func (j *memoryJournal) Record(_ context.Context, kind, _, _, _ string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.kinds = append(j.kinds, kind)
	return nil
}

func (j *memoryJournal) recorded() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.kinds...)
}

type fixture struct {
	ind     *Individual
	process *fakeProcess
	trainer *fakeTrainer
	journal *memoryJournal
}

func newFixture(t *testing.T, mirror Mirror) *fixture {
	t.Helper()
	f := &fixture{process: &fakeProcess{}, trainer: &fakeTrainer{}, journal: &memoryJournal{}}
	deps := Deps{Process: f.process, Trainer: f.trainer, Journal: f.journal}
	if mirror != nil {
		deps.Mirror = mirror
	}
	f.ind = New(Config{Name: "Test Life", TaskCheckInterval: time.Hour}, deps)
	return f
}

func TestStartStop_Idempotent(t *testing.T) {
	defer goleak.VerifyNone(t, ignoreOpenCensus)
	f := newFixture(t, nil)

	ok, msg := f.ind.Stop()
	assert.False(t, ok)
	assert.Equal(t, MsgAlreadyOff, msg)

	ok, msg = f.ind.Start(context.Background())
	require.True(t, ok)
	assert.Equal(t, MsgStarted, msg)

	ok, msg = f.ind.Start(context.Background())
	assert.False(t, ok)
	assert.Equal(t, MsgAlreadyActive, msg)

	require.Eventually(t, f.process.IsRunning, time.Second, 5*time.Millisecond)

	ok, msg = f.ind.Stop()
	assert.True(t, ok)
	assert.Equal(t, MsgStopped, msg)
	assert.Equal(t, state.PhaseOff, f.ind.Phase())
	assert.False(t, f.process.IsRunning())

	ok, _ = f.ind.Stop()
	assert.False(t, ok)
}

func TestPriority1_RequeuesFromFailingTask(t *testing.T) {
	defer goleak.VerifyNone(t, ignoreOpenCensus)
	f := newFixture(t, nil)
	ctx := context.Background()

	service := task.New(task.TypeService, state.Priority1)
	bogus := task.New(task.Type("BOGUS"), state.Priority1)
	dream := task.New(task.TypeDream, state.Priority1)
	later := task.New(task.TypeService, state.Priority2)
	for _, tk := range []*task.Task{service, bogus, dream, later} {
		require.NoError(t, f.ind.Submit(ctx, tk))
	}

	// Normal operation is running so the preemption has something to pause.
	f.process.Execute(ctx)

	f.ind.Start(ctx)
	require.Eventually(t, func() bool {
		return len(f.journal.recorded()) >= 2
	}, time.Second, 5*time.Millisecond)
	f.ind.Stop()

	assert.Equal(t, []string{audit.KindTaskDone, audit.KindTaskFailed}, f.journal.recorded()[:2])
	require.NotEmpty(t, f.process.stopCalls())
	assert.Equal(t, stopCall{state.Priority1, 3}, f.process.stopCalls()[0])

	requeued := f.ind.queues.Drain(state.Priority1)
	require.Len(t, requeued, 2)
	assert.Equal(t, bogus.ID, requeued[0].ID)
	assert.Equal(t, dream.ID, requeued[1].ID)

	// PRIO_2 is never reached while PRIO_1 keeps failing.
	assert.Equal(t, 1, f.ind.queues.Len(state.Priority2))
}

func TestStopTask_EndsLoop(t *testing.T) {
	defer goleak.VerifyNone(t, ignoreOpenCensus)
	f := newFixture(t, nil)
	ctx := context.Background()

	f.ind.Start(ctx)
	require.NoError(t, f.ind.Submit(ctx, task.New(task.TypeStop, state.Priority1)))

	require.Eventually(t, func() bool {
		return f.ind.Phase() == state.PhaseOff
	}, time.Second, 5*time.Millisecond)

	ok, msg := f.ind.Stop()
	assert.False(t, ok)
	assert.Equal(t, MsgAlreadyOff, msg)
	assert.False(t, f.process.IsRunning())
}

func TestSubmit_Routing(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	require.NoError(t, f.ind.Submit(ctx, task.New(task.TypeService, state.PriorityNormal)))
	assert.Len(t, f.process.submitted, 1)

	first := task.New(task.TypeService, state.Priority1)
	urgent := task.New(task.TypeStop, state.PriorityEmergency)
	require.NoError(t, f.ind.Submit(ctx, first))
	require.NoError(t, f.ind.Submit(ctx, urgent))

	tier := f.ind.queues.Drain(state.Priority1)
	require.Len(t, tier, 2)
	assert.Equal(t, urgent.ID, tier[0].ID)

	assert.Error(t, f.ind.Submit(ctx, task.New(task.TypeService, state.Priority(42))))
}

func TestSubmit_MirrorsToRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := blackboard.NewClientFromURL("redis://"+mr.Addr(), "test")
	require.NoError(t, err)
	defer client.Close()

	f := newFixture(t, client)
	ctx := context.Background()

	tk := task.New(task.TypeTrainEthic, state.Priority2)
	require.NoError(t, f.ind.Submit(ctx, tk))

	mirrored, err := client.MirroredTasks(ctx, "PRIO_2")
	require.NoError(t, err)
	require.Len(t, mirrored, 1)
	assert.Equal(t, tk.ID, mirrored[0].ID)

	drained := f.ind.checkTasks(ctx, state.Priority2)
	require.Len(t, drained, 1)

	mirrored, err = client.MirroredTasks(ctx, "PRIO_2")
	require.NoError(t, err)
	assert.Empty(t, mirrored)
	assert.Equal(t, state.PhaseMaintenance, f.ind.Phase())
}

func TestCheckTasks_DreamChance(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	assert.Empty(t, f.ind.checkTasks(ctx, state.PriorityLow))

	f.ind.cfg.DreamChance = 0.1
	f.ind.chance = func() float64 { return 0.05 }
	tasks := f.ind.checkTasks(ctx, state.PriorityLow)
	require.Len(t, tasks, 1)
	assert.Equal(t, task.TypeDream, tasks[0].Type)

	assert.Empty(t, f.ind.checkTasks(ctx, state.Priority1))

	f.ind.chance = func() float64 { return 0.5 }
	assert.Empty(t, f.ind.checkTasks(ctx, state.PriorityLow))
}

func TestProcessTask_Dispatch(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.ind.trainingData = map[string][]string{
		clim.LayerEthic: {"e1"},
		clim.LayerSamt:  {"s1"},
	}

	for _, tt := range task.Types() {
		if tt == task.TypeStop || tt == task.TypeStart {
			continue
		}
		t.Run(string(tt), func(t *testing.T) {
			_, err := f.ind.processTask(ctx, task.New(tt, state.Priority1))
			assert.NoError(t, err)
		})
	}

	// DREAM and TRAIN_ETHIC train the ethic layer; TRAIN_CLIM everything.
	require.Len(t, f.trainer.runs, 3)
	assert.Equal(t, map[string][]string{clim.LayerEthic: {"e1"}}, f.trainer.runs[0])
	assert.Equal(t, map[string][]string{clim.LayerEthic: {"e1"}}, f.trainer.runs[1])
	assert.Len(t, f.trainer.runs[2], 2)

	_, err := f.ind.processTask(ctx, task.New(task.Type("BOGUS"), state.Priority1))
	var execErr *task.ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.True(t, errors.Is(err, task.ErrUnknownType))
}

func TestProcessTask_AlreadyInModeIsNotFailure(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	msg, err := f.ind.processTask(ctx, task.New(task.TypeService, state.Priority1))
	require.NoError(t, err)
	assert.Equal(t, "Individual is in service mode.", msg)

	msg, err = f.ind.processTask(ctx, task.New(task.TypeService, state.Priority1))
	require.NoError(t, err)
	assert.Equal(t, "Individual is already in service mode.", msg)
}

func TestLivingModes(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	changed, _ := f.ind.advisedLiving(ctx, nil)
	assert.True(t, changed)
	assert.True(t, f.process.advised)
	assert.True(t, f.ind.Status().Advised)

	changed, msg := f.ind.advisedLiving(ctx, nil)
	assert.False(t, changed)
	assert.Equal(t, "Individual is already living advised.", msg)

	changed, _ = f.ind.autonomLiving(ctx, nil)
	assert.True(t, changed)
	assert.False(t, f.process.advised)
}

// stalledMirror blocks every phase publish until released.
type stalledMirror struct {
	entered chan struct{}
	release chan struct{}
}

func (m *stalledMirror) MirrorTask(context.Context, blackboard.TaskRecord, bool) error { return nil }

func (m *stalledMirror) RemoveTask(context.Context, blackboard.TaskRecord) error { return nil }

func (m *stalledMirror) PublishPhaseEvent(ctx context.Context, _, _ string) error {
	select {
	case m.entered <- struct{}{}:
	default:
	}
	select {
	case <-m.release:
	case <-ctx.Done():
	}
	return nil
}

func TestPhasePublish_DoesNotHoldLock(t *testing.T) {
	mirror := &stalledMirror{entered: make(chan struct{}, 1), release: make(chan struct{})}
	f := newFixture(t, mirror)
	ctx := context.Background()

	handled := make(chan struct{})
	go func() {
		defer close(handled)
		_, _ = f.ind.processTask(ctx, task.New(task.TypeService, state.Priority1))
	}()

	select {
	case <-mirror.entered:
	case <-time.After(time.Second):
		t.Fatal("phase was never published")
	}

	submitted := make(chan error, 1)
	go func() {
		submitted <- f.ind.Submit(ctx, task.New(task.TypeDream, state.Priority2))
	}()
	select {
	case err := <-submitted:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Submit waited on the phase publish")
	}
	assert.Equal(t, state.PhaseService, f.ind.Status().Phase)

	close(mirror.release)
	<-handled
}
