package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Rob9999/ethos-ai-clim/internal/printer"
	"github.com/Rob9999/ethos-ai-clim/internal/scaffold"
)

var (
	forceInit bool
	initDir   string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a starter configuration",
	Long: `Creates the files a new individual needs:

  • ethos.yml - Configuration
  • tools/tools.yaml - Activator and sensor catalogue
  • test_data/test_case_1.json - Labelled scenarios for training and scoring

Use --force to overwrite existing files.`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&forceInit, "force", false, "Overwrite existing files")
	initCmd.Flags().StringVar(&initDir, "dir", ".", "Target directory")
	rootCmd.AddCommand(initCmd)
}

func runInit(_ *cobra.Command, _ []string) error {
	if !forceInit {
		if err := scaffold.CheckExisting(initDir); err != nil {
			return printer.Error("already initialized", err.Error())
		}
	}
	if err := scaffold.Initialize(initDir, forceInit); err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	printer.Success("Initialized individual in %s", initDir)
	for _, f := range scaffold.Files() {
		printer.Info("  ✓ %s", f.Path)
	}
	printer.Info("\nNext steps:")
	printer.Info("  1. export ETHOS_PASSWORD=<password>")
	printer.Info("  2. Run 'ethos' to start the individual")
	return nil
}
