package tool

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Rob9999/ethos-ai-clim/internal/decision"
	"github.com/Rob9999/ethos-ai-clim/internal/i18n"
	"github.com/Rob9999/ethos-ai-clim/internal/security"
	"github.com/Rob9999/ethos-ai-clim/internal/topic"
)

type fixedGenerator struct {
	reply  string
	ok     bool
	prompt string
}

func (g *fixedGenerator) GenerateText(_ context.Context, prompt string) (string, bool) {
	g.prompt = prompt
	return g.reply, g.ok
}

func translator(t *testing.T) *i18n.Translator {
	t.Helper()
	tr, err := i18n.New("en")
	require.NoError(t, err)
	return tr
}

func sampleToDo() *topic.ToDo {
	return topic.NewToDo(topic.Aspiration{
		Simulation: topic.Simulation{Description: "water the plants"},
		Text:       "keep the plants alive",
		Refined:    true,
	})
}

func sampleManager() *Manager {
	m := NewManager(zap.NewNop())
	m.RegisterActivator(Tool{Name: "pump", Command: "pump on", Level: security.LevelLow})
	m.RegisterActivator(Tool{Name: "valve", Command: "valve open", Level: security.LevelHigh})
	m.RegisterSensor(Tool{Name: "moisture", Command: "read moisture"})
	return m
}

func TestLoadManager(t *testing.T) {
	t.Run("yaml", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "tools.yaml"), []byte(`
activators:
  - name: pump
    command: pump on
    security_level: medium
sensors:
  - name: moisture
    command: read moisture
`), 0o644))

		m, err := LoadManager(dir, zap.NewNop())
		require.NoError(t, err)
		assert.Equal(t, []string{"moisture"}, m.Tools(security.LevelLow))
		assert.Equal(t, []string{"pump", "moisture"}, m.Tools(security.LevelMedium))
	})

	t.Run("json", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "tools.json"),
			[]byte(`{"activators":[{"name":"lamp","command":"lamp on","security_level":"LOW"}]}`), 0o644))

		m, err := LoadManager(dir, zap.NewNop())
		require.NoError(t, err)
		tool, ok := m.Activator("lamp", security.LevelLow)
		require.True(t, ok)
		assert.Equal(t, "lamp on", tool.Command)
	})

	t.Run("missing catalogue", func(t *testing.T) {
		m, err := LoadManager(t.TempDir(), zap.NewNop())
		require.NoError(t, err)
		assert.Empty(t, m.Tools(security.LevelHigh))
	})

	t.Run("invalid level", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "tools.yaml"),
			[]byte("activators:\n  - name: x\n    command: y\n    security_level: cosmic\n"), 0o644))
		_, err := LoadManager(dir, zap.NewNop())
		assert.Error(t, err)
	})
}

func TestManager_LevelFiltering(t *testing.T) {
	m := sampleManager()

	_, ok := m.Activator("valve", security.LevelMedium)
	assert.False(t, ok)
	_, ok = m.Activator("valve", security.LevelHigh)
	assert.True(t, ok)
	_, ok = m.Sensor("moisture", security.LevelLow)
	assert.True(t, ok)

	assert.Equal(t, []string{"pump", "valve", "moisture"}, m.Tools(security.LevelHigh))
}

func TestParseRecommendation(t *testing.T) {
	tests := []struct {
		name      string
		output    string
		want      decision.Decision
		tools     []string
		missing   string
		justify   string
		wantError bool
	}{
		{name: "go", output: "GO: pump, moisture", want: decision.Go, tools: []string{"pump", "moisture"}},
		{name: "go lower case", output: "go: pump\nextra chatter", want: decision.Go, tools: []string{"pump"}},
		{name: "no go", output: "NO GO: hose: nothing to carry water", want: decision.NoGo, missing: "hose", justify: "nothing to carry water"},
		{name: "garbage", output: "maybe later", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := parseRecommendation(tt.output, sampleToDo(), "python")
			if tt.wantError {
				assert.ErrorIs(t, err, ErrNoRecommendation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.Decision)
			assert.Equal(t, tt.tools, s.Tools)
			assert.Equal(t, tt.missing, s.Missing)
			assert.Equal(t, tt.justify, s.Justification)
		})
	}
}

func TestGenerateScript(t *testing.T) {
	gen := &fixedGenerator{reply: "GO: pump", ok: true}
	s, err := GenerateScript(context.Background(), gen, translator(t), sampleManager(), sampleToDo(), nil, "python")
	require.NoError(t, err)

	assert.Contains(t, gen.prompt, "water the plants")
	assert.Contains(t, gen.prompt, "pump, moisture")
	assert.NotContains(t, gen.prompt, "valve")

	assert.Equal(t, "# Script for to-do:\n# water the plants\n# Aspiration:\n# keep the plants alive\n"+
		"activate_tool('pump')\nprint('Instruction script completed.')\n", s.Content)
	assert.Contains(t, s.Plan, "Use tool: pump")

	_, err = GenerateScript(context.Background(), &fixedGenerator{}, translator(t), sampleManager(), sampleToDo(), nil, "python")
	assert.ErrorIs(t, err, ErrNoRecommendation)
}

func TestComment(t *testing.T) {
	assert.Equal(t, "// a\n// b\n", Comment("a\n\nb", "javascript"))
	assert.Equal(t, "# a\n", Comment("a", "python"))
	assert.Empty(t, Comment("a", "cobol"))
}

func TestNewInstruction(t *testing.T) {
	ctx := context.Background()

	t.Run("not ready", func(t *testing.T) {
		todo := sampleToDo()
		todo.Ready = false
		_, err := NewInstruction(ctx, todo, InstructionOptions{})
		assert.ErrorIs(t, err, ErrNotReady)
	})

	t.Run("script parameter", func(t *testing.T) {
		todo := sampleToDo()
		todo.Parameters = map[string]string{"script": "console.log('hi')"}
		ins, err := NewInstruction(ctx, todo, InstructionOptions{})
		require.NoError(t, err)
		assert.Equal(t, "javascript", ins.Language)
		assert.Equal(t, "console.log('hi')", ins.String())
	})

	t.Run("generated", func(t *testing.T) {
		ins, err := NewInstruction(ctx, sampleToDo(), InstructionOptions{
			Generator:  &fixedGenerator{reply: "GO: pump", ok: true},
			Translator: translator(t),
			Tools:      sampleManager(),
		})
		require.NoError(t, err)
		assert.Equal(t, DefaultLanguage, ins.Language)

		runner := NewLogRunner(zap.NewNop())
		_, err = ins.Execute(ctx, runner)
		require.NoError(t, err)
		require.Len(t, runner.Scripts(), 1)
		assert.Equal(t, "water the plants", runner.Scripts()[0].Subject)
	})

	t.Run("no go", func(t *testing.T) {
		_, err := NewInstruction(ctx, sampleToDo(), InstructionOptions{
			Generator:  &fixedGenerator{reply: "NO GO: hose: no water", ok: true},
			Translator: translator(t),
			Tools:      sampleManager(),
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing hose")
	})
}

type failingRunner struct{}

func (failingRunner) Run(context.Context, string, string, string) (string, error) {
	return "boom", errors.New("exit 1")
}

func TestInstruction_ExecuteFailure(t *testing.T) {
	ins := &Instruction{ToDo: sampleToDo(), Script: "x", Language: "python"}
	out, err := ins.Execute(context.Background(), failingRunner{})
	assert.Equal(t, "boom", out)
	assert.ErrorContains(t, err, "water the plants")
}
