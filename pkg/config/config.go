// Package config holds the defaults and user configuration for gh-perf-report.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultOwner is the GitHub organization the tool reports on.
	DefaultOwner = "tenstorrent"

	// StepNamePerfBenchmark is the step whose log region carries the
	// samples-per-second line.
	StepNamePerfBenchmark = "Run Perf Benchmark"
	// StepNameDevicePerf is the step that uploads the device-perf artifact.
	StepNameDevicePerf = "Run Device Perf"

	// ArtifactPrefixDevicePerf prefixes device-perf artifact names; the
	// job id of the uploading job follows the prefix.
	ArtifactPrefixDevicePerf = "device-perf-"

	// DefaultMaxWorkers bounds parallel per-job extraction.
	DefaultMaxWorkers = 5
	// DefaultRateLimit caps client-side GitHub API calls per second.
	DefaultRateLimit = 10

	// DefaultThresholdPercent classifies a metric movement beyond this
	// percentage in the unfavorable direction as a regression, and in
	// the favorable direction as an improvement.
	DefaultThresholdPercent = 5.0

	// DefaultCacheTTL ages out cache entries across invocations.
	DefaultCacheTTL = 24 * time.Hour

	cacheDirName   = ".gh-perf-report"
	configFileName = "config.yaml"
)

// SupportedRepos are the repositories this tool knows how to report on.
var SupportedRepos = []string{"tt-forge", "tt-xla"}

// BenchmarkJobPatterns mark benchmark jobs; jobs whose names contain
// none of these are skipped during metric extraction.
var BenchmarkJobPatterns = []string{"tt-xla-", "tt-forge-"}

// CSV column constants for the device-perf artifact.
const (
	CSVColumnOpCode           = "OP CODE"
	CSVColumnKernelDuration   = "DEVICE KERNEL DURATION [ns]"
	CSVColumnOpToOpLatency    = "OP TO OP LATENCY [ns]"
	CSVColumnConstEvalOp      = "CONST_EVAL_OP"
	CSVColumnLayoutConversion = "INPUT_LAYOUT_CONVERSION_OP"
)

// CSVRequiredColumns must all be present in a device-perf CSV header.
var CSVRequiredColumns = []string{
	CSVColumnOpCode,
	CSVColumnKernelDuration,
	CSVColumnOpToOpLatency,
	CSVColumnConstEvalOp,
	CSVColumnLayoutConversion,
}

// Config carries the tunable settings passed into the builders, so the
// core stays testable without environment coupling.
type Config struct {
	Owner            string        `yaml:"owner"`
	Workers          int           `yaml:"workers"`
	ThresholdPercent float64       `yaml:"threshold_percent"`
	RateLimit        float64       `yaml:"rate_limit"`
	CacheDir         string        `yaml:"cache_dir"`
	CacheTTL         time.Duration `yaml:"cache_ttl"`
	NoCache          bool          `yaml:"no_cache"`
	Transport        string        `yaml:"transport"` // "cli" or "api"
	Token            string        `yaml:"-"`
	Debug            bool          `yaml:"debug"`
}

// Default returns a Config populated with the built-in defaults.
func Default() *Config {
	return &Config{
		Owner:            DefaultOwner,
		Workers:          DefaultMaxWorkers,
		ThresholdPercent: DefaultThresholdPercent,
		RateLimit:        DefaultRateLimit,
		CacheDir:         defaultCacheDir(),
		CacheTTL:         DefaultCacheTTL,
		Transport:        "cli",
	}
}

// Load builds the effective configuration: defaults, then the optional
// YAML config file under the cache dir, then .env and environment
// overrides. Flags are applied by the CLI on top of the result.
func Load() (*Config, error) {
	cfg := Default()

	path := filepath.Join(cfg.CacheDir, configFileName)
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("invalid config file %s: %w", path, err)
		}
		logrus.Debugf("loaded config from %s", path)
	}

	// .env is optional; missing files are fine.
	if err := godotenv.Load(); err == nil {
		logrus.Debug("loaded .env")
	}

	if owner := os.Getenv("GH_PERF_REPORT_OWNER"); owner != "" {
		cfg.Owner = owner
	}
	cfg.Token = os.Getenv("GITHUB_TOKEN")

	return cfg, nil
}

// ValidateRepo checks repo against the supported repository list.
func ValidateRepo(repo string) error {
	if !slices.Contains(SupportedRepos, repo) {
		return fmt.Errorf("unsupported repo %q, expected one of %v", repo, SupportedRepos)
	}
	return nil
}

// IsBenchmarkJob reports whether the job name marks a benchmark job.
func IsBenchmarkJob(name string) bool {
	for _, p := range BenchmarkJobPatterns {
		if strings.Contains(name, p) {
			return true
		}
	}
	return false
}

func defaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return cacheDirName
	}
	return filepath.Join(home, cacheDirName)
}
