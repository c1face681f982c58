package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Rob9999/ethos-ai-clim/internal/security"
)

// Defaults applied by Validate.
const (
	DefaultVersion           = "1.0"
	DefaultName              = "EthosAI Life ONE"
	DefaultPassword          = "ethos"
	DefaultAdvisorName       = "Advisor"
	DefaultLanguage          = "en"
	DefaultModelsDir         = "models"
	DefaultKeyDir            = "keys"
	DefaultTestCasesDir      = "test_data"
	DefaultQuestionsPath     = "data/ethic_questions.json"
	DefaultToolsDir          = "tools"
	DefaultLedgerPath        = "data/ledger.db"
	DefaultRunner            = "log"
	DefaultScriptLanguage    = "python"
	DefaultAPIAddr           = "127.0.0.1:8080"
	DefaultTaskCheckInterval = 5 * time.Second
	DefaultDreamChance       = 0.1
	DefaultPollInterval      = 10 * time.Second
	DefaultCycleInterval     = 30 * time.Second
	DefaultLogLevel          = "info"
	DefaultLogFormat         = "json"
)

// EthosConfig represents the top-level ethos.yml configuration
type EthosConfig struct {
	Version       string          `yaml:"version"`
	Identity      IdentityConfig  `yaml:"identity"`
	Advisor       *AdvisorConfig  `yaml:"advisor,omitempty"` // Omit to run unadvised only
	Language      string          `yaml:"language"`          // Locale of prompts and decision names: en or de
	ModelsDir     string          `yaml:"models_dir"`
	TestCasesDir  string          `yaml:"test_cases_dir"`
	QuestionsPath string          `yaml:"questions_path"`
	ToolsDir      string          `yaml:"tools_dir"`
	Redis         *RedisConfig    `yaml:"redis,omitempty"` // Optional blackboard mirror and event fan-out
	Ledger        LedgerConfig    `yaml:"ledger"`
	Execution     ExecutionConfig `yaml:"execution"`
	API           APIConfig       `yaml:"api"`
	Scheduler     SchedulerConfig `yaml:"scheduler"`
	Process       ProcessConfig   `yaml:"process"`
	Logging       LoggingConfig   `yaml:"logging"`
}

// IdentityConfig describes the individual's own identity card
type IdentityConfig struct {
	Name          string `yaml:"name"`
	Password      string `yaml:"password,omitempty"` // Prefer ETHOS_PASSWORD
	SecurityLevel string `yaml:"security_level"`
	Responsible   string `yaml:"responsible,omitempty"`
	KeyDir        string `yaml:"key_dir"`
}

// AdvisorConfig describes the advisor's identity card
type AdvisorConfig struct {
	Name          string `yaml:"name"`
	Password      string `yaml:"password,omitempty"`
	SecurityLevel string `yaml:"security_level"`
}

// RedisConfig points at the Redis instance used for the blackboard mirror
type RedisConfig struct {
	URL string `yaml:"url"`
}

// LedgerConfig locates the SQLite audit ledger
type LedgerConfig struct {
	Path string `yaml:"path"`
}

// ExecutionConfig selects how instruction scripts run
type ExecutionConfig struct {
	Runner   string `yaml:"runner"`   // "log" or "docker"
	Language string `yaml:"language"` // Script language, e.g. python
}

// APIConfig configures the HTTP control plane
type APIConfig struct {
	Addr    string `yaml:"addr"`
	Enabled *bool  `yaml:"enabled,omitempty"` // Default: true
}

// SchedulerConfig tunes the interrupt scheduler
type SchedulerConfig struct {
	TaskCheckInterval time.Duration `yaml:"task_check_interval"`
	DreamChance       *float64      `yaml:"dream_chance,omitempty"` // Default: 0.1, 0 disables dreaming
	Advised           bool          `yaml:"advised"`
}

// ProcessConfig tunes the normal-operation process
type ProcessConfig struct {
	PollInterval   time.Duration `yaml:"poll_interval"`
	CycleInterval  time.Duration `yaml:"cycle_interval"`
	MaxAspirations int           `yaml:"max_aspirations,omitempty"`
	Concurrency    int           `yaml:"concurrency,omitempty"` // Parallel option simulations
}

// LoggingConfig selects the zap level and encoder
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" or "console"
}

// Default returns a validated configuration with every default applied.
func Default() *EthosConfig {
	c := &EthosConfig{}
	if err := c.Validate(); err != nil {
		// Defaults are valid by construction.
		panic(err)
	}
	return c
}

// APIEnabled reports whether the HTTP API should be served.
func (c *EthosConfig) APIEnabled() bool {
	return c.API.Enabled == nil || *c.API.Enabled
}

// Validate applies defaults and checks the configuration
func (c *EthosConfig) Validate() error {
	if c.Version == "" {
		c.Version = DefaultVersion
	}
	if c.Version != DefaultVersion {
		return fmt.Errorf("unsupported version: %s (expected: %s)", c.Version, DefaultVersion)
	}

	if err := c.Identity.validate(); err != nil {
		return err
	}
	if c.Advisor != nil {
		if err := c.Advisor.validate(); err != nil {
			return err
		}
	}

	setDefault(&c.Language, DefaultLanguage)
	if c.Language != "en" && c.Language != "de" {
		return fmt.Errorf("invalid language: %s (must be 'en' or 'de')", c.Language)
	}

	setDefault(&c.ModelsDir, DefaultModelsDir)
	setDefault(&c.TestCasesDir, DefaultTestCasesDir)
	setDefault(&c.QuestionsPath, DefaultQuestionsPath)
	setDefault(&c.ToolsDir, DefaultToolsDir)
	setDefault(&c.Ledger.Path, DefaultLedgerPath)

	if c.Redis != nil && c.Redis.URL == "" {
		return fmt.Errorf("redis: url is required when the redis section is present")
	}

	setDefault(&c.Execution.Runner, DefaultRunner)
	if c.Execution.Runner != "log" && c.Execution.Runner != "docker" {
		return fmt.Errorf("execution: invalid runner: %s (must be 'log' or 'docker')", c.Execution.Runner)
	}
	setDefault(&c.Execution.Language, DefaultScriptLanguage)

	setDefault(&c.API.Addr, DefaultAPIAddr)

	if err := c.Scheduler.validate(); err != nil {
		return err
	}
	if err := c.Process.validate(); err != nil {
		return err
	}

	setDefault(&c.Logging.Level, DefaultLogLevel)
	setDefault(&c.Logging.Format, DefaultLogFormat)
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("logging: invalid format: %s (must be 'json' or 'console')", c.Logging.Format)
	}

	return nil
}

func (i *IdentityConfig) validate() error {
	setDefault(&i.Name, DefaultName)
	setDefault(&i.Password, DefaultPassword)
	setDefault(&i.SecurityLevel, security.LevelLow.String())
	setDefault(&i.KeyDir, DefaultKeyDir)
	if _, err := security.ParseLevel(i.SecurityLevel); err != nil {
		return fmt.Errorf("identity: %w", err)
	}
	return nil
}

func (a *AdvisorConfig) validate() error {
	setDefault(&a.Name, DefaultAdvisorName)
	setDefault(&a.Password, DefaultPassword)
	setDefault(&a.SecurityLevel, security.LevelMedium.String())
	level, err := security.ParseLevel(a.SecurityLevel)
	if err != nil {
		return fmt.Errorf("advisor: %w", err)
	}
	// An advisor must pass a MEDIUM check to release anything.
	if !level.Covers(security.LevelMedium) {
		return fmt.Errorf("advisor: security_level must be at least %s, got %s", security.LevelMedium, level)
	}
	return nil
}

func (s *SchedulerConfig) validate() error {
	if s.TaskCheckInterval == 0 {
		s.TaskCheckInterval = DefaultTaskCheckInterval
	}
	if s.TaskCheckInterval < 0 {
		return fmt.Errorf("scheduler.task_check_interval must be positive, got %s", s.TaskCheckInterval)
	}
	if s.DreamChance == nil {
		chance := DefaultDreamChance
		s.DreamChance = &chance
	}
	if *s.DreamChance < 0 || *s.DreamChance > 1 {
		return fmt.Errorf("scheduler.dream_chance must be within [0, 1], got %g", *s.DreamChance)
	}
	return nil
}

func (p *ProcessConfig) validate() error {
	if p.PollInterval == 0 {
		p.PollInterval = DefaultPollInterval
	}
	if p.CycleInterval == 0 {
		p.CycleInterval = DefaultCycleInterval
	}
	if p.PollInterval < 0 || p.CycleInterval < 0 {
		return fmt.Errorf("process intervals must be positive")
	}
	if p.MaxAspirations < 0 || p.Concurrency < 0 {
		return fmt.Errorf("process.max_aspirations and process.concurrency must be >= 0")
	}
	return nil
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}

// Load reads and validates ethos.yml from the specified path
func Load(path string) (*EthosConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config EthosConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// LoadOrDefault loads path, or returns the defaults when it does not exist.
func LoadOrDefault(path string) (*EthosConfig, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	return Load(path)
}
