package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/Rob9999/ethos-ai-clim/internal/api"
	"github.com/Rob9999/ethos-ai-clim/internal/printer"
	"github.com/Rob9999/ethos-ai-clim/internal/task"
)

var submitPriority string

var submitCmd = &cobra.Command{
	Use:   "submit <type>",
	Short: "Submit a task to a running individual",
	Long: fmt.Sprintf(`Submits a task to the HTTP API of a running individual.

Task types: %v
Priorities: EMERGENCY, PRIO_1, PRIO_2, NORMAL, PRIO_LOW

Examples:
  ethos submit DREAM
  ethos submit TRAIN_ETHIC --priority PRIO_2`, task.Types()),
	Args: cobra.ExactArgs(1),
	RunE: runSubmit,
}

func init() {
	submitCmd.Flags().StringVarP(&submitPriority, "priority", "p", "PRIO_1", "Task priority")
	rootCmd.AddCommand(submitCmd)
}

func runSubmit(cmd *cobra.Command, args []string) error {
	if _, err := task.ParseType(args[0]); err != nil {
		return printer.Error("unknown task type", err.Error(), fmt.Sprintf("Valid types: %v", task.Types()))
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	body, err := json.Marshal(api.SubmitRequest{Type: args[0], Priority: submitPriority})
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: 10 * time.Second}
	url := "http://" + cfg.API.Addr + "/tasks"
	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return printer.ErrorWithContext(
			"individual not reachable",
			err.Error(),
			map[string]string{"URL": url},
			"Start the individual first:\n  ethos",
		)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusAccepted {
		return printer.Error(fmt.Sprintf("task rejected (%s)", resp.Status), string(bytes.TrimSpace(data)))
	}

	var ack api.SubmitResponse
	if err := json.Unmarshal(data, &ack); err != nil {
		return fmt.Errorf("unexpected response: %w", err)
	}
	printer.Success("Submitted %s task %s (%s)", ack.Type, ack.ID, ack.Priority)
	return nil
}
