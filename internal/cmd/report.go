package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tenstorrent/gh-perf-report/pkg/format"
	"github.com/tenstorrent/gh-perf-report/pkg/report"
)

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report <run-id>",
	Short: "Report benchmark metrics for a single workflow run",
	Long: `Report fetches a workflow run, extracts samples-per-second and
device-perf metrics for every benchmark job and prints a per-job table.

Example:
  gh-perf-report report 1234567890 --repo tt-xla`,
	Args: cobra.ExactArgs(1),
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	if err := requireRepo(); err != nil {
		return err
	}
	runID, err := parseRunID(args[0])
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := newClient()
	if err != nil {
		return err
	}
	processor := report.NewProcessor(client, newStore(), cfg.Workers)
	rep, err := processor.ProcessWorkflowRun(ctx, cfg.Owner, repoName, runID)
	if err != nil {
		return err
	}
	return format.NewRenderer().RenderWorkflowReport(rep)
}

func parseRunID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid run id %q, expected a positive integer", arg)
	}
	return id, nil
}
