package commands

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Rob9999/ethos-ai-clim/internal/printer"
	"github.com/Rob9999/ethos-ai-clim/internal/simulation"
)

var askCmd = &cobra.Command{
	Use:   "ask <scenario>",
	Short: "Simulate a scenario and its action options",
	Long: `Runs one full simulation of the scenario: the stack proposes action
options, every option is reviewed by all layers, and the candidates are
printed ranked by overall ethic value. The first row is the decision.

Examples:
  ethos ask "Should I water the plants while it rains?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	ctx := cmd.Context()
	c, err := buildCore(ctx, cfg, logger)
	if err != nil {
		return printer.Error("failed to build layer stack", err.Error())
	}
	defer c.close()

	scenario := strings.Join(args, " ")
	printer.Step("Simulating %q", scenario)
	ranked := c.grid.SimulateScenarioWithOptions(ctx, scenario)

	_, d, summary := simulation.Top(ranked)
	printer.Table(os.Stdout, []string{"Rank", "Scenario", "Decision", "Ethic value"}, rankRows(ranked))
	fmt.Printf("\nDecision: %s\n%s\n", printer.Decision(d), summary)
	return nil
}

func rankRows(ranked []simulation.Ranked) [][]string {
	rows := make([][]string, 0, len(ranked))
	for i, r := range ranked {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			r.Simulation.Description,
			r.Simulation.Decision.String(),
			strconv.FormatFloat(r.Simulation.OverallEthicValue, 'f', 2, 64),
		})
	}
	return rows
}
