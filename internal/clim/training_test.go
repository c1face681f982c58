package clim

import (
	"context"
	"errors"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestTrainer_CompletesAllEpochs(t *testing.T) {
	var seen []int
	tr := NewTrainer("ETHIC", func(_ context.Context, epoch int, batches [][]string, _ float64) (float64, error) {
		seen = append(seen, epoch)
		assert.Equal(t, [][]string{{"a", "b"}, {"c"}}, batches)
		return 0.5, nil
	}, zap.NewNop())

	assert.Equal(t, TrainingNone, tr.Status())
	require.NoError(t, tr.StartAsync([]string{"a", "b", "c"}, 3, 2, 1e-4))
	tr.Wait()

	assert.Equal(t, []int{0, 1, 2}, seen)
	assert.Equal(t, TrainingStopped, tr.Status())
	assert.True(t, tr.Changed())
}

func TestTrainer_WaitCoversPendingRun(t *testing.T) {
	for range 20 {
		tr := NewTrainer("ETHIC", func(context.Context, int, [][]string, float64) (float64, error) {
			return 0, nil
		}, zap.NewNop())

		waited := make(chan TrainingStatus)
		go func() {
			for tr.Status() == TrainingNone {
				runtime.Gosched()
			}
			tr.Wait()
			waited <- tr.Status()
		}()

		require.NoError(t, tr.StartAsync([]string{"a"}, 2, 1, 1e-4))
		assert.Equal(t, TrainingStopped, <-waited)
	}
}

func TestTrainer_RefusesConcurrentRunAndCancelsAtEpochBoundary(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	epochs := 0

	tr := NewTrainer("SAMT", func(context.Context, int, [][]string, float64) (float64, error) {
		epochs++
		if epochs == 1 {
			close(entered)
			<-release
		}
		return 0, nil
	}, zap.NewNop())

	require.NoError(t, tr.StartAsync([]string{"x"}, 5, 1, 0))
	<-entered

	assert.Equal(t, TrainingStarted, tr.Status())
	assert.ErrorIs(t, tr.StartAsync([]string{"y"}, 1, 1, 0), ErrTrainingActive)
	assert.True(t, tr.RequestCancellation())

	close(release)
	tr.Wait()

	assert.Equal(t, 1, epochs, "cancellation is observed before the second epoch")
	assert.Equal(t, TrainingStopped, tr.Status())
	assert.False(t, tr.RequestCancellation(), "nothing left to cancel")
}

func TestTrainer_Failure(t *testing.T) {
	tr := NewTrainer("INDIVIDUAL", func(context.Context, int, [][]string, float64) (float64, error) {
		return 0, errors.New("out of memory")
	}, zap.NewNop())

	require.NoError(t, tr.StartAsync([]string{"x"}, 2, 1, 0))
	tr.Wait()

	assert.Equal(t, TrainingFailed, tr.Status())
	assert.True(t, tr.Status().IsSettled())
	assert.False(t, tr.Changed())

	// A failed run can be retried.
	assert.NoError(t, tr.StartAsync([]string{"x"}, 0, 1, 0))
	tr.Wait()
	assert.Equal(t, TrainingStopped, tr.Status())
}

func TestExampleStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ETHIC", "examples.json")
	store := NewExampleStore(path, 2)
	ctx := context.Background()

	assert.Equal(t, "", store.Context())
	require.NoError(t, store.Load(), "missing file is fine")

	_, err := store.Epoch(ctx, 0, [][]string{{"one", "two"}, {"two", "three"}}, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, store.Len())
	assert.Equal(t, "Examples:\ntwo\nthree\n\n", store.Context())

	require.NoError(t, store.Persist())

	reloaded := NewExampleStore(path, 2)
	require.NoError(t, reloaded.Load())
	assert.Equal(t, store.Context(), reloaded.Context())
}
