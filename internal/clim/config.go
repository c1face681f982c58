package clim

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Rob9999/ethos-ai-clim/internal/generator"
)

// LayerConfig is the per-layer model configuration stored at
// <models>/<identity>/<layer>/config.json (or config.yaml).
type LayerConfig struct {
	ModelName    string  `json:"model_name" yaml:"model_name"`
	UseAPI       bool    `json:"use_api" yaml:"use_api"`
	APIKey       *string `json:"api_key" yaml:"api_key"`
	MaxLength    int     `json:"max_length" yaml:"max_length"`
	MaxNewTokens *int    `json:"max_new_tokens" yaml:"max_new_tokens"`

	Backend string `json:"backend,omitempty" yaml:"backend,omitempty"`
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
}

// DefaultLayerConfig returns the configuration written for new layers.
func DefaultLayerConfig() LayerConfig {
	return LayerConfig{
		ModelName: "gpt2",
		Backend:   generator.BackendScripted,
	}
}

// GeneratorConfig maps the layer config to a generator backend config.
func (c LayerConfig) GeneratorConfig() generator.Config {
	cfg := generator.Config{
		Backend:   c.Backend,
		ModelName: c.ModelName,
		BaseURL:   c.BaseURL,
	}
	if c.APIKey != nil {
		cfg.APIKey = *c.APIKey
	}
	if c.MaxNewTokens != nil {
		cfg.MaxNewTokens = *c.MaxNewTokens
	}
	return cfg
}

// LayerDir returns the directory holding one layer's config and examples.
func LayerDir(modelsDir, identity, layer string) string {
	return filepath.Join(modelsDir, identity, layer)
}

// LoadLayerConfig reads the layer config, preferring config.yaml, then
// config.yml, then config.json. If none exists the default is written to
// config.json and returned. The second return value is the file used.
func LoadLayerConfig(modelsDir, identity, layer string) (LayerConfig, string, error) {
	dir := LayerDir(modelsDir, identity, layer)
	for _, name := range []string{"config.yaml", "config.yml", "config.json"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			cfg, err := readLayerConfig(path)
			return cfg, path, err
		}
	}

	cfg := DefaultLayerConfig()
	path := filepath.Join(dir, "config.json")
	if err := SaveLayerConfig(path, cfg); err != nil {
		return cfg, path, err
	}
	return cfg, path, nil
}

func readLayerConfig(path string) (LayerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return LayerConfig{}, fmt.Errorf("failed to read layer config: %w", err)
	}

	cfg := DefaultLayerConfig()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		return LayerConfig{}, fmt.Errorf("unsupported config file format: %s", path)
	}
	if err != nil {
		return LayerConfig{}, fmt.Errorf("failed to parse layer config %s: %w", path, err)
	}
	return cfg, nil
}

// SaveLayerConfig writes cfg to path as JSON or YAML by extension.
func SaveLayerConfig(path string, cfg LayerConfig) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		data, err = json.MarshalIndent(cfg, "", "  ")
	case ".yaml", ".yml":
		data, err = yaml.Marshal(cfg)
	default:
		return fmt.Errorf("unsupported config file format: %s", path)
	}
	if err != nil {
		return fmt.Errorf("failed to encode layer config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create layer directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write layer config: %w", err)
	}
	return nil
}
