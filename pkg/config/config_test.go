package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "tenstorrent", cfg.Owner)
	assert.Equal(t, 5, cfg.Workers)
	assert.Equal(t, 5.0, cfg.ThresholdPercent)
	assert.Equal(t, 10.0, cfg.RateLimit)
	assert.Equal(t, 24*time.Hour, cfg.CacheTTL)
	assert.Equal(t, "cli", cfg.Transport)
	assert.False(t, cfg.NoCache)
	assert.NotEmpty(t, cfg.CacheDir)
}

func TestValidateRepo(t *testing.T) {
	require.NoError(t, ValidateRepo("tt-xla"))
	require.NoError(t, ValidateRepo("tt-forge"))

	err := ValidateRepo("tt-metal")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tt-metal")
}

func TestIsBenchmarkJob(t *testing.T) {
	tests := []struct {
		name     string
		jobName  string
		expected bool
	}{
		{"xla benchmark", "build / tt-xla-resnet (n150-perf) benchmark", true},
		{"forge benchmark", "tt-forge-bert nightly", true},
		{"lint", "lint", false},
		{"docs", "build-docs", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsBenchmarkJob(tt.jobName))
		})
	}
}
