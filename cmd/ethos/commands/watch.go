package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Rob9999/ethos-ai-clim/internal/filter"
	"github.com/Rob9999/ethos-ai-clim/internal/printer"
	"github.com/Rob9999/ethos-ai-clim/internal/timespec"
	"github.com/Rob9999/ethos-ai-clim/internal/watch"
	"github.com/Rob9999/ethos-ai-clim/pkg/blackboard"
)

var (
	watchOutputFormat string
	watchType         string
	watchUntil        string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream the individual's events",
	Long: `Streams decisions, topic releases and denials, phase changes and task
outcomes of a running individual as they are published on Redis.

Output Formats:
  default - Human-readable output with timestamps
  json    - Line-delimited JSON for programmatic processing

Examples:
  ethos watch --redis-url redis://localhost:6379
  ethos watch --type 'topic' --until 30m
  ethos watch --output=json > events.jsonl`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchOutputFormat, "output", "o", "default", "Output format (default or json)")
	watchCmd.Flags().StringVar(&watchType, "type", "", "Glob over the event type: decision, topic, phase, task")
	watchCmd.Flags().StringVar(&watchUntil, "until", "", "Stop watching after this duration or at this RFC3339 time")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	format, err := watch.ParseOutputFormat(watchOutputFormat)
	if err != nil {
		return printer.Error("invalid output format", err.Error(), "Valid formats: default, json")
	}

	criteria := filter.Criteria{Kind: watchType}
	var deadline time.Time
	if watchUntil != "" {
		// A duration counts forward from now here.
		if d, perr := time.ParseDuration(watchUntil); perr == nil {
			deadline = time.Now().Add(d)
		} else if deadline, err = timespec.Parse(watchUntil, time.Now()); err != nil {
			return printer.Error("invalid --until", err.Error())
		}
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Redis == nil {
		return printer.Error(
			"Redis not configured",
			"Events are only published when the individual runs with Redis.",
			"Add a redis section to ethos.yml",
			"Pass --redis-url or set ETHOS_REDIS_URL",
		)
	}

	client, err := blackboard.NewClientFromURL(cfg.Redis.URL, cfg.Identity.Name)
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if !deadline.IsZero() {
		var cancel func()
		ctx, cancel = context.WithDeadline(ctx, deadline)
		defer cancel()
	}

	sub, err := client.SubscribeEvents(ctx)
	if err != nil {
		return printer.ErrorWithContext("failed to subscribe", err.Error(), map[string]string{"Redis": cfg.Redis.URL})
	}
	defer sub.Close()

	if format == watch.OutputFormatDefault {
		printer.Info("Watching %s (Ctrl+C to stop)...", cfg.Identity.Name)
	}
	return watch.Stream(ctx, sub, os.Stdout, format, criteria.MatchesEvent)
}
