package commands

import (
	"encoding/json"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/Rob9999/ethos-ai-clim/internal/audit"
	"github.com/Rob9999/ethos-ai-clim/internal/filter"
	"github.com/Rob9999/ethos-ai-clim/internal/printer"
	"github.com/Rob9999/ethos-ai-clim/internal/timespec"
)

var (
	ledgerLimit  int
	ledgerOutput string
	ledgerSince  string
	ledgerUntil  string
	ledgerKind   string
	ledgerActor  string
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Show the audit ledger",
	Long: `Prints the newest entries of the audit ledger: released and denied
to-dos and the outcome of every scheduled task.

Filters are applied to the newest --limit entries.

Examples:
  ethos ledger
  ethos ledger --kind 'topic_*' --since 24h
  ethos ledger --limit 100 --output json`,
	RunE: runLedger,
}

func init() {
	ledgerCmd.Flags().IntVarP(&ledgerLimit, "limit", "l", 20, "Maximum number of entries")
	ledgerCmd.Flags().StringVarP(&ledgerOutput, "output", "o", "default", "Output format (default or json)")
	ledgerCmd.Flags().StringVar(&ledgerSince, "since", "", "Only entries after this time (duration like 1h or RFC3339)")
	ledgerCmd.Flags().StringVar(&ledgerUntil, "until", "", "Only entries before this time (duration like 1h or RFC3339)")
	ledgerCmd.Flags().StringVar(&ledgerKind, "kind", "", "Glob over the entry kind, e.g. 'task_*'")
	ledgerCmd.Flags().StringVar(&ledgerActor, "actor", "", "Only entries of this actor")
	rootCmd.AddCommand(ledgerCmd)
}

func runLedger(cmd *cobra.Command, _ []string) error {
	if ledgerOutput != "default" && ledgerOutput != "json" {
		return printer.Error("invalid output format", "Unknown format: "+ledgerOutput, "Valid formats: default, json")
	}

	since, until, err := timespec.ParseRange(ledgerSince, ledgerUntil, time.Now())
	if err != nil {
		return printer.Error("invalid time filter", err.Error())
	}
	criteria := filter.Criteria{Since: since, Until: until, Kind: ledgerKind, Actor: ledgerActor}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	l, err := audit.Open(cfg.Ledger.Path)
	if err != nil {
		return printer.ErrorWithContext("ledger unavailable", err.Error(), map[string]string{"Path": cfg.Ledger.Path})
	}
	defer l.Close()

	records, err := l.List(cmd.Context(), ledgerLimit)
	if err != nil {
		return err
	}
	records = criteria.Records(records)

	if ledgerOutput == "json" {
		enc := json.NewEncoder(os.Stdout)
		for _, r := range records {
			if err := enc.Encode(r); err != nil {
				return err
			}
		}
		return nil
	}

	if len(records) == 0 {
		printer.Info("The ledger is empty.")
		return nil
	}
	printer.Table(os.Stdout, []string{"ID", "Time", "Kind", "Subject", "Actor", "Detail"}, ledgerRows(records))
	return nil
}

func ledgerRows(records []audit.Record) [][]string {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			strconv.FormatInt(r.ID, 10),
			r.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			r.Kind,
			r.Subject,
			r.Actor,
			r.Payload,
		})
	}
	return rows
}
