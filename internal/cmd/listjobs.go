package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tenstorrent/gh-perf-report/pkg/format"
)

// listJobsCmd represents the list-jobs command
var listJobsCmd = &cobra.Command{
	Use:   "list-jobs <run-id>",
	Short: "List the jobs of a workflow run with their normalized keys",
	Args:  cobra.ExactArgs(1),
	RunE:  runListJobs,
}

func init() {
	rootCmd.AddCommand(listJobsCmd)
}

func runListJobs(cmd *cobra.Command, args []string) error {
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
	jobs, err := client.ListJobs(ctx, cfg.Owner, repoName, runID)
	if err != nil {
		return err
	}
	return format.NewRenderer().RenderJobList(jobs)
}
