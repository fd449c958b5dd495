// Package cmd wires the gh-perf-report CLI commands.
package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tenstorrent/gh-perf-report/pkg/cache"
	"github.com/tenstorrent/gh-perf-report/pkg/config"
	"github.com/tenstorrent/gh-perf-report/pkg/github"
)

var (
	repoName  string
	owner     string
	workers   int
	noCache   bool
	transport string
	debug     bool

	cfg *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "gh-perf-report",
	Short: "Performance reports for tenstorrent CI benchmark runs",
	Long: `gh-perf-report extracts benchmark metrics from GitHub Actions
workflow runs of the tt-xla and tt-forge repositories: samples-per-second
throughput from job logs and device kernel durations from device-perf
artifacts.

Example:
  gh-perf-report report 1234567890 --repo tt-xla
  gh-perf-report compare 1234567890 1234599999 --repo tt-forge
  gh-perf-report list-jobs 1234567890 --repo tt-xla`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup(cmd)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&repoName, "repo", "r", "", fmt.Sprintf("repository to report on, one of %v", config.SupportedRepos))
	rootCmd.PersistentFlags().StringVarP(&owner, "owner", "o", "", "GitHub organization (default "+config.DefaultOwner+")")
	rootCmd.PersistentFlags().IntVarP(&workers, "workers", "w", 0, "parallel job extraction workers")
	rootCmd.PersistentFlags().BoolVar(&noCache, "no-cache", false, "bypass the metric cache")
	rootCmd.PersistentFlags().StringVar(&transport, "transport", "", "GitHub access transport: cli or api")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// setup loads the configuration and applies flag overrides on top.
func setup(cmd *cobra.Command) error {
	loaded, err := config.Load()
	if err != nil {
		return err
	}
	cfg = loaded

	if owner != "" {
		cfg.Owner = owner
	}
	if workers > 0 {
		cfg.Workers = workers
	}
	if noCache {
		cfg.NoCache = true
	}
	if transport != "" {
		cfg.Transport = transport
	}
	if debug {
		cfg.Debug = true
	}

	if cfg.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
	logrus.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	switch cfg.Transport {
	case "cli", "api":
	default:
		return fmt.Errorf("unknown transport %q, expected cli or api", cfg.Transport)
	}
	return nil
}

// requireRepo validates the persistent --repo flag for commands that
// operate on a single repository.
func requireRepo() error {
	if repoName == "" {
		return fmt.Errorf("--repo is required")
	}
	return config.ValidateRepo(repoName)
}

// newClient picks the GitHub backend from the configured transport.
func newClient() (github.Client, error) {
	switch cfg.Transport {
	case "api":
		if cfg.Token == "" {
			return nil, fmt.Errorf("transport api requires GITHUB_TOKEN")
		}
		return github.NewRESTClient(cfg.Token, cfg.RateLimit), nil
	default:
		return github.NewCLIClient(cfg.RateLimit)
	}
}

func newStore() *cache.Store {
	return cache.New(filepath.Join(cfg.CacheDir, "cache"), cfg.CacheTTL, !cfg.NoCache)
}
