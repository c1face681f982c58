package scaffold

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Rob9999/ethos-ai-clim/internal/clim"
	"github.com/Rob9999/ethos-ai-clim/internal/config"
	"github.com/Rob9999/ethos-ai-clim/internal/security"
	"github.com/Rob9999/ethos-ai-clim/internal/tool"
)

func TestInitialize(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T, dir string)
		force   bool
		wantErr string
	}{
		{
			name:  "fresh directory",
			setup: func(*testing.T, string) {},
		},
		{
			name: "existing config without force",
			setup: func(t *testing.T, dir string) {
				require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFile), []byte("old"), 0o644))
			},
			wantErr: "individual already initialized",
		},
		{
			name: "force overwrites",
			setup: func(t *testing.T, dir string) {
				require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFile), []byte("old"), 0o644))
			},
			force: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			tt.setup(t, dir)

			err := Initialize(dir, tt.force)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)

			for _, f := range Files() {
				assert.FileExists(t, filepath.Join(dir, f.Path))
			}
		})
	}
}

func TestInitialize_FilesAreUsable(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Initialize(dir, false))

	cfg, err := config.Load(filepath.Join(dir, ConfigFile))
	require.NoError(t, err)
	assert.Equal(t, "EthosAI Life ONE", cfg.Identity.Name)
	assert.Nil(t, cfg.Redis)
	assert.Equal(t, "console", cfg.Logging.Format)

	mgr, err := tool.LoadManager(filepath.Join(dir, config.DefaultToolsDir), zap.NewNop())
	require.NoError(t, err)
	_, ok := mgr.Activator("speaker", security.LevelLow)
	assert.True(t, ok)

	cases, err := clim.LoadTestCases(filepath.Join(dir, config.DefaultTestCasesDir))
	require.NoError(t, err)
	require.Len(t, cases[clim.LayerEthic], 2)
	assert.Equal(t, "NOGO", cases[clim.LayerEthic][1].Decision)
}

func TestCheckExisting_ListsAll(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Initialize(dir, false))

	err := CheckExisting(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Found existing files:")
	assert.Contains(t, err.Error(), ConfigFile)
	assert.Contains(t, err.Error(), "--force")
}
