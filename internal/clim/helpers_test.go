package clim

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Rob9999/ethos-ai-clim/internal/decision"
	"github.com/Rob9999/ethos-ai-clim/internal/generator"
	"github.com/Rob9999/ethos-ai-clim/internal/i18n"
	"github.com/Rob9999/ethos-ai-clim/pkg/blackboard"
)

func testVocabulary(t *testing.T) *decision.Vocabulary {
	t.Helper()
	tr, err := i18n.New("en")
	require.NoError(t, err)
	v, err := decision.NewVocabulary(tr)
	require.NoError(t, err)
	return v
}

func newTestStack(t *testing.T, gen generator.Generator, recorder Recorder) *Stack {
	t.Helper()
	vocab := testVocabulary(t)
	prompts := NewPrompts(vocab)
	logger := zap.NewNop()

	mk := func(name string) *Layer { return NewLayer(name, gen, prompts, vocab, nil, logger) }
	s, err := NewStack("Test Life", mk(LayerEthic), mk(LayerIndividual), mk(LayerSamt), mk(LayerLongTerm), recorder, logger)
	require.NoError(t, err)
	return s
}

type panicGenerator struct{}

func (panicGenerator) Generate(context.Context, string) (string, error) {
	panic("model exploded")
}

type memoryRecorder struct {
	mu    sync.Mutex
	saved []*blackboard.Blackboard
}

func (m *memoryRecorder) SaveBlackboard(_ context.Context, b *blackboard.Blackboard) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, b)
	return nil
}

func entryKeys(bb *blackboard.Blackboard) []string {
	var keys []string
	for _, e := range bb.Entries() {
		keys = append(keys, e.Key().String())
	}
	return keys
}
