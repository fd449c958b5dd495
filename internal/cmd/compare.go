package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tenstorrent/gh-perf-report/pkg/config"
	"github.com/tenstorrent/gh-perf-report/pkg/format"
	"github.com/tenstorrent/gh-perf-report/pkg/report"
)

var (
	thresholdPercent float64
	baselineRepo     string
	currentRepo      string
)

// compareCmd represents the compare command
var compareCmd = &cobra.Command{
	Use:   "compare <baseline-run-id> <current-run-id>",
	Short: "Compare benchmark metrics between two workflow runs",
	Long: `Compare joins the benchmark jobs of two runs by normalized job
name and classifies each job as regression, improvement or neutral
against the threshold percentage. The runs may come from different
repositories.

Example:
  gh-perf-report compare 1234567890 1234599999 --repo tt-forge --threshold 5
  gh-perf-report compare 1234567890 1234599999 --baseline-repo tt-forge --current-repo tt-xla`,
	Args: cobra.ExactArgs(2),
	RunE: runCompare,
}

func init() {
	rootCmd.AddCommand(compareCmd)

	compareCmd.Flags().Float64Var(&thresholdPercent, "threshold", 0, "regression threshold in percent (default from config)")
	compareCmd.Flags().StringVar(&baselineRepo, "baseline-repo", "", "repository of the baseline run (default --repo)")
	compareCmd.Flags().StringVar(&currentRepo, "current-repo", "", "repository of the current run (default baseline repo)")
}

func compareRepos() (baseline, current string, err error) {
	baseline = baselineRepo
	if baseline == "" {
		baseline = repoName
	}
	if baseline == "" {
		return "", "", fmt.Errorf("--baseline-repo or --repo is required")
	}
	current = currentRepo
	if current == "" {
		current = baseline
	}
	if err := config.ValidateRepo(baseline); err != nil {
		return "", "", err
	}
	if err := config.ValidateRepo(current); err != nil {
		return "", "", err
	}
	return baseline, current, nil
}

func runCompare(cmd *cobra.Command, args []string) error {
	baseRepo, curRepo, err := compareRepos()
	if err != nil {
		return err
	}
	baselineID, err := parseRunID(args[0])
	if err != nil {
		return err
	}
	currentID, err := parseRunID(args[1])
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

	baseline, err := processor.ProcessWorkflowRun(ctx, cfg.Owner, baseRepo, baselineID)
	if err != nil {
		return err
	}
	current, err := processor.ProcessWorkflowRun(ctx, cfg.Owner, curRepo, currentID)
	if err != nil {
		return err
	}

	threshold := cfg.ThresholdPercent
	if thresholdPercent > 0 {
		threshold = thresholdPercent
	}
	rows := report.NewComparer(threshold).Compare(baseline, current)
	return format.NewRenderer().RenderComparison(baseline, current, rows)
}
