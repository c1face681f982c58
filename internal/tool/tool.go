// Package tool manages the activators and sensors an individual may use and
// turns released to-dos into executable instruction scripts.
package tool

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Rob9999/ethos-ai-clim/internal/security"
)

// Tool is an external command guarded by a clearance level.
type Tool struct {
	Name    string         `yaml:"name" json:"name"`
	Command string         `yaml:"command" json:"command"`
	Level   security.Level `yaml:"security_level" json:"security_level"`
}

// Allows reports whether a holder of level may use the tool.
func (t Tool) Allows(level security.Level) bool {
	return level.Covers(t.Level)
}

// Catalogue is the on-disk shape of tools.yaml / tools.json.
type Catalogue struct {
	Activators []Tool `yaml:"activators" json:"activators"`
	Sensors    []Tool `yaml:"sensors" json:"sensors"`
}

// Manager holds the registered tools.
type Manager struct {
	logger *zap.Logger

	mu         sync.RWMutex
	activators map[string]Tool
	sensors    map[string]Tool
}

// NewManager returns an empty manager.
func NewManager(logger *zap.Logger) *Manager {
	return &Manager{
		logger:     logger,
		activators: make(map[string]Tool),
		sensors:    make(map[string]Tool),
	}
}

// LoadManager reads tools.yaml, tools.yml or tools.json from dir, in that
// order. A directory without a catalogue yields an empty manager.
func LoadManager(dir string, logger *zap.Logger) (*Manager, error) {
	m := NewManager(logger)

	for _, name := range []string{"tools.yaml", "tools.yml", "tools.json"} {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}

		var cat Catalogue
		if filepath.Ext(name) == ".json" {
			err = json.Unmarshal(data, &cat)
		} else {
			err = yaml.Unmarshal(data, &cat)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}

		for _, t := range cat.Activators {
			m.RegisterActivator(t)
		}
		for _, t := range cat.Sensors {
			m.RegisterSensor(t)
		}
		logger.Info("Tools loaded", zap.String("path", path),
			zap.Int("activators", len(cat.Activators)), zap.Int("sensors", len(cat.Sensors)))
		return m, nil
	}

	logger.Debug("No tool catalogue found", zap.String("dir", dir))
	return m, nil
}

func normalize(t Tool) Tool {
	if t.Level == 0 {
		t.Level = security.LevelLow
	}
	return t
}

// RegisterActivator adds or replaces an activator.
func (m *Manager) RegisterActivator(t Tool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activators[t.Name] = normalize(t)
}

// RegisterSensor adds or replaces a sensor.
func (m *Manager) RegisterSensor(t Tool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sensors[t.Name] = normalize(t)
}

// Activator returns the named activator if level may use it.
func (m *Manager) Activator(name string, level security.Level) (Tool, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.activators[name]
	return t, ok && t.Allows(level)
}

// Sensor returns the named sensor if level may use it.
func (m *Manager) Sensor(name string, level security.Level) (Tool, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.sensors[name]
	return t, ok && t.Allows(level)
}

// Tools lists the names of all activators then all sensors level may use,
// each group sorted.
func (m *Manager) Tools(level security.Level) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append(allowed(m.activators, level), allowed(m.sensors, level)...)
}

func allowed(tools map[string]Tool, level security.Level) []string {
	var names []string
	for name, t := range tools {
		if t.Allows(level) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
