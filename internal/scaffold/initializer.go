// Package scaffold creates the files a new individual needs to start.
package scaffold

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Rob9999/ethos-ai-clim/internal/clim"
	"github.com/Rob9999/ethos-ai-clim/internal/config"
)

//go:embed templates/*
var templatesFS embed.FS

// ConfigFile is the configuration written by Initialize.
const ConfigFile = "ethos.yml"

// FileInfo is one file created during initialization
type FileInfo struct {
	Path        string
	Template    string
	Permissions os.FileMode
}

// Files lists what Initialize creates, relative to the target directory.
func Files() []FileInfo {
	return []FileInfo{
		{ConfigFile, "ethos.yml.tmpl", 0o644},
		{filepath.Join(config.DefaultToolsDir, "tools.yaml"), "tools.yaml.tmpl", 0o644},
		{filepath.Join(config.DefaultTestCasesDir, "test_case_1.json"), "test_case_1.json.tmpl", 0o644},
	}
}

// Initialize writes the starter files into dir. With force, existing files
// are overwritten; otherwise CheckExisting must pass first.
func Initialize(dir string, force bool) error {
	if !force {
		if err := CheckExisting(dir); err != nil {
			return err
		}
	}

	for _, f := range Files() {
		content, err := templatesFS.ReadFile("templates/" + f.Template)
		if err != nil {
			return fmt.Errorf("failed to read %s template: %w", f.Template, err)
		}
		path := filepath.Join(dir, f.Path)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("failed to create directory for %s: %w", f.Path, err)
		}
		if err := os.WriteFile(path, content, f.Permissions); err != nil {
			return fmt.Errorf("failed to write %s: %w", f.Path, err)
		}
	}

	return validateCreatedFiles(dir)
}

// validateCreatedFiles loads what was written the way the agent will.
func validateCreatedFiles(dir string) error {
	if _, err := config.Load(filepath.Join(dir, ConfigFile)); err != nil {
		return fmt.Errorf("created %s is invalid: %w", ConfigFile, err)
	}
	if _, err := clim.LoadTestCases(filepath.Join(dir, config.DefaultTestCasesDir)); err != nil {
		return fmt.Errorf("created test cases are invalid: %w", err)
	}
	return nil
}
