package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/Rob9999/ethos-ai-clim/internal/config"
	"github.com/Rob9999/ethos-ai-clim/internal/logging"
	"github.com/Rob9999/ethos-ai-clim/internal/printer"
)

// rootCmd runs the agent when called without a subcommand
var rootCmd = &cobra.Command{
	Use:   "ethos",
	Short: "EthosAI - an ethically reviewing autonomous individual",
	Long: `EthosAI runs an autonomous individual whose every action is reviewed by a
layered stack of language models: an ethic layer, an individual layer, a
collective layer and a long-term layer.

Without a subcommand the individual is started and runs until SIGINT or
SIGTERM. Configuration is read from ethos.yml and ETHOS_* environment
variables.`,
	RunE: runAgent,
	// Unknown flags are errors
	FParseErrWhitelist: cobra.FParseErrWhitelist{},
}

// Execute runs the root command.
func Execute() error {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	return rootCmd.Execute()
}

// SetVersionInfo sets the version shown by --version
func SetVersionInfo(v, c, d string) {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

func init() {
	cobra.OnInitialize(initViper)

	flags := rootCmd.PersistentFlags()
	flags.StringP("config", "c", "ethos.yml", "Path to the configuration file")
	flags.String("redis-url", "", "Redis URL for the blackboard mirror (overrides config)")
	flags.String("api-addr", "", "Listen address of the HTTP API (overrides config)")
	flags.String("log-level", "", "Log level: debug, info, warn, error (overrides config)")
	for _, name := range []string{"config", "redis-url", "api-addr", "log-level"} {
		_ = viper.BindPFlag(name, flags.Lookup(name))
	}
}

func initViper() {
	viper.SetEnvPrefix("ETHOS")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	// Secrets are only read from the environment.
	_ = viper.BindEnv("password", "ETHOS_PASSWORD")
	_ = viper.BindEnv("advisor-password", "ETHOS_ADVISOR_PASSWORD")
}

// loadConfig reads the config file and applies flag and environment
// overrides.
func loadConfig() (*config.EthosConfig, error) {
	path := viper.GetString("config")
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return nil, printer.ErrorWithContext(
			"invalid configuration",
			err.Error(),
			map[string]string{"Path": path},
			"Fix the file, or remove it to run with defaults",
		)
	}

	if url := viper.GetString("redis-url"); url != "" {
		cfg.Redis = &config.RedisConfig{URL: url}
	}
	if addr := viper.GetString("api-addr"); addr != "" {
		cfg.API.Addr = addr
	}
	if level := viper.GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	if pw := viper.GetString("password"); pw != "" {
		cfg.Identity.Password = pw
	}
	if pw := viper.GetString("advisor-password"); pw != "" && cfg.Advisor != nil {
		cfg.Advisor.Password = pw
	}
	return cfg, nil
}

func newLogger(cfg *config.EthosConfig) (*zap.Logger, error) {
	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, printer.Error("invalid logging configuration", err.Error())
	}
	return logger, nil
}
