package commands

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Rob9999/ethos-ai-clim/internal/audit"
	"github.com/Rob9999/ethos-ai-clim/internal/decision"
	"github.com/Rob9999/ethos-ai-clim/internal/simulation"
	"github.com/Rob9999/ethos-ai-clim/internal/topic"
	"github.com/Rob9999/ethos-ai-clim/pkg/blackboard"
)

func setViper(t *testing.T, kv map[string]string) {
	t.Helper()
	for k, v := range kv {
		old := viper.Get(k)
		viper.Set(k, v)
		t.Cleanup(func() { viper.Set(k, old) })
	}
}

func TestRootCommand_Registered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"init", "ask", "watch", "ledger", "submit"} {
		assert.True(t, names[want], want)
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ethos.yml")
	require.NoError(t, os.WriteFile(path, []byte("version: \"1.0\"\nidentity:\n  name: Tester\n"), 0o644))

	setViper(t, map[string]string{
		"config":    path,
		"redis-url": "redis://localhost:6380",
		"api-addr":  "127.0.0.1:9999",
		"password":  "from-env",
	})

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "Tester", cfg.Identity.Name)
	assert.Equal(t, "from-env", cfg.Identity.Password)
	require.NotNil(t, cfg.Redis)
	assert.Equal(t, "redis://localhost:6380", cfg.Redis.URL)
	assert.Equal(t, "127.0.0.1:9999", cfg.API.Addr)
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	setViper(t, map[string]string{"config": filepath.Join(t.TempDir(), "absent.yml")})

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Nil(t, cfg.Redis)
	assert.Equal(t, "log", cfg.Execution.Runner)
}

func TestLoadConfig_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ethos.yml")
	require.NoError(t, os.WriteFile(path, []byte("language: fr\n"), 0o644))
	setViper(t, map[string]string{"config": path})

	_, err := loadConfig()
	require.Error(t, err)
	assert.Equal(t, "invalid configuration", err.Error())
}

func TestRankRows(t *testing.T) {
	rows := rankRows([]simulation.Ranked{
		{Index: 2, Simulation: topic.Simulation{Description: "C", Decision: decision.Go, OverallEthicValue: 10}},
		{Index: 0, Simulation: topic.Simulation{Description: "A", Decision: decision.Wait, OverallEthicValue: 7.5}},
	})
	assert.Equal(t, [][]string{
		{"1", "C", "GO", "10.00"},
		{"2", "A", "WAIT", "7.50"},
	}, rows)
}

func TestJournal_RecordsAndPublishes(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := blackboard.NewClientFromURL("redis://"+mr.Addr(), "test")
	require.NoError(t, err)
	defer client.Close()

	ledger, err := audit.Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	defer ledger.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	sub, err := client.SubscribeEvents(ctx)
	require.NoError(t, err)
	defer sub.Close()

	j := &journal{ledger: ledger, events: client, logger: zap.NewNop()}
	require.NoError(t, j.Record(ctx, audit.KindTaskFailed, "task-1", "Tester", "unknown task type"))

	select {
	case ev := <-sub.Events():
		assert.Equal(t, blackboard.EventTask, ev.Type)
		assert.Equal(t, "task-1", ev.Subject)
		assert.Equal(t, audit.KindTaskFailed, ev.Status)
	case <-ctx.Done():
		t.Fatal("no event published")
	}

	records, err := ledger.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "task-1", records[0].Subject)

	rows := ledgerRows(records)
	require.Len(t, rows, 1)
	assert.Equal(t, audit.KindTaskFailed, rows[0][2])
}

func TestJournal_WithoutRedis(t *testing.T) {
	ledger, err := audit.Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	defer ledger.Close()

	j := &journal{ledger: ledger, logger: zap.NewNop()}
	assert.NoError(t, j.Record(context.Background(), audit.KindTopicReleased, "feed", "Tester", ""))
}
