package clim

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// TrainingStatus is the lifecycle state of one layer's training run.
type TrainingStatus string

const (
	TrainingNone                  TrainingStatus = "None"
	TrainingStarted               TrainingStatus = "Started"
	TrainingPending               TrainingStatus = "Pending"
	TrainingCancellationRequested TrainingStatus = "CancellationIsRequested"
	TrainingStopped               TrainingStatus = "Stopped"
	TrainingFailed                TrainingStatus = "Failed"
)

// IsSettled reports whether no training is in flight.
func (s TrainingStatus) IsSettled() bool {
	return s == TrainingNone || s == TrainingStopped || s == TrainingFailed
}

// ErrTrainingActive is returned when a run is started while another is pending or running.
var ErrTrainingActive = errors.New("training is already in progress")

// EpochFunc performs one epoch over the batched training data.
type EpochFunc func(ctx context.Context, epoch int, batches [][]string, learningRate float64) (loss float64, err error)

// Trainer runs a layer's training in a background goroutine.
// Cancellation is observed at epoch boundaries only.
type Trainer struct {
	name   string
	epoch  EpochFunc
	logger *zap.Logger

	mu              sync.Mutex
	status          TrainingStatus
	cancelRequested bool
	changed         bool

	wg sync.WaitGroup
}

// NewTrainer creates a trainer whose epochs are run by fn.
func NewTrainer(name string, fn EpochFunc, logger *zap.Logger) *Trainer {
	return &Trainer{
		name:   name,
		epoch:  fn,
		logger: logger,
		status: TrainingNone,
	}
}

// StartAsync starts a run and returns immediately with status Pending.
func (t *Trainer) StartAsync(data []string, epochs, batchSize int, learningRate float64) error {
	t.mu.Lock()
	if t.status == TrainingStarted || t.status == TrainingPending {
		t.mu.Unlock()
		t.logger.Warn("Training is already in progress", zap.String("layer", t.name))
		return ErrTrainingActive
	}
	t.cancelRequested = false
	t.status = TrainingPending
	// Added under mu so a Wait that observes Pending also waits for this run.
	t.wg.Add(1)
	t.mu.Unlock()

	batches := batch(data, batchSize)

	go func() {
		defer t.wg.Done()
		t.run(batches, epochs, learningRate)
	}()

	t.logger.Info("Training started",
		zap.String("event_type", "training_status"),
		zap.String("layer", t.name),
		zap.Int("examples", len(data)),
		zap.Int("epochs", epochs))
	return nil
}

func (t *Trainer) run(batches [][]string, epochs int, learningRate float64) {
	t.setStatus(TrainingStarted)
	ctx := context.Background()

	for epoch := 0; epoch < epochs; epoch++ {
		t.mu.Lock()
		if t.cancelRequested {
			t.status = TrainingCancellationRequested
			t.mu.Unlock()
			break
		}
		t.mu.Unlock()

		loss, err := t.epoch(ctx, epoch, batches, learningRate)
		if err != nil {
			t.logger.Error("Training failed",
				zap.String("event_type", "training_status"),
				zap.String("layer", t.name),
				zap.Int("epoch", epoch+1),
				zap.Error(err))
			t.setStatus(TrainingFailed)
			return
		}
		t.logger.Debug("Epoch completed", zap.String("layer", t.name), zap.Int("epoch", epoch+1), zap.Float64("loss", loss))
	}

	t.mu.Lock()
	canceled := t.cancelRequested
	t.changed = true
	t.status = TrainingStopped
	t.mu.Unlock()

	if canceled {
		t.logger.Info("Training was canceled", zap.String("event_type", "training_status"), zap.String("layer", t.name))
	} else {
		t.logger.Info("Training completed", zap.String("event_type", "training_status"), zap.String("layer", t.name))
	}
}

// RequestCancellation asks a pending or running training to stop at the
// next epoch boundary. Returns false if nothing is running.
func (t *Trainer) RequestCancellation() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status != TrainingStarted && t.status != TrainingPending {
		t.logger.Warn("No active training to cancel", zap.String("layer", t.name))
		return false
	}
	t.cancelRequested = true
	return true
}

// Status returns the current training status.
func (t *Trainer) Status() TrainingStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// Changed reports whether a run has completed since construction.
func (t *Trainer) Changed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.changed
}

// Wait blocks until the current run, if any, has finished.
func (t *Trainer) Wait() {
	t.wg.Wait()
}

func (t *Trainer) setStatus(s TrainingStatus) {
	t.mu.Lock()
	t.status = s
	t.mu.Unlock()
}

func batch(data []string, size int) [][]string {
	if size <= 0 {
		size = 1
	}
	var out [][]string
	for start := 0; start < len(data); start += size {
		end := start + size
		if end > len(data) {
			end = len(data)
		}
		out = append(out, data[start:end])
	}
	return out
}

// ExampleStore is the default training backend: it keeps the most recent
// training examples and offers them to the layer as few-shot context.
type ExampleStore struct {
	path  string
	limit int

	mu       sync.RWMutex
	examples []string
}

// NewExampleStore creates a store persisted at path, keeping at most limit examples.
func NewExampleStore(path string, limit int) *ExampleStore {
	if limit <= 0 {
		limit = 8
	}
	return &ExampleStore{path: path, limit: limit}
}

// Load reads persisted examples. A missing file is not an error.
func (s *ExampleStore) Load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read examples: %w", err)
	}

	var examples []string
	if err := json.Unmarshal(data, &examples); err != nil {
		return fmt.Errorf("failed to parse examples %s: %w", s.path, err)
	}

	s.mu.Lock()
	s.examples = examples
	s.trim()
	s.mu.Unlock()
	return nil
}

// Epoch implements EpochFunc. Every epoch re-adds the batches, so the most
// recent examples win; duplicates are skipped.
func (s *ExampleStore) Epoch(_ context.Context, _ int, batches [][]string, _ float64) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool, len(s.examples))
	for _, e := range s.examples {
		seen[e] = true
	}
	for _, b := range batches {
		for _, example := range b {
			if example = strings.TrimSpace(example); example != "" && !seen[example] {
				s.examples = append(s.examples, example)
				seen[example] = true
			}
		}
	}
	s.trim()
	return 0, nil
}

func (s *ExampleStore) trim() {
	if len(s.examples) > s.limit {
		s.examples = s.examples[len(s.examples)-s.limit:]
	}
}

// Context renders the stored examples as a prompt prefix, or "" if empty.
func (s *ExampleStore) Context() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.examples) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("Examples:\n")
	for _, e := range s.examples {
		b.WriteString(strings.ReplaceAll(e, "\n", " "))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	return b.String()
}

// Len returns the number of stored examples.
func (s *ExampleStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.examples)
}

// Persist writes the examples next to the layer configuration.
func (s *ExampleStore) Persist() error {
	s.mu.RLock()
	data, err := json.MarshalIndent(s.examples, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal examples: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create model directory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write examples: %w", err)
	}
	return nil
}
