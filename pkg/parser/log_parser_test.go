package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const groupedLog = `2026-08-20T10:00:00Z ##[group]Set up job
2026-08-20T10:00:01Z runner: ubuntu-latest
2026-08-20T10:00:02Z ##[group]Run Perf Benchmark
2026-08-20T10:05:00Z Model type: vision
2026-08-20T10:05:01Z Batch size: 32
2026-08-20T10:05:02Z Total samples: 6400
2026-08-20T10:05:03Z Total execution time: 12.5
2026-08-20T10:05:04Z Samples per second: 512.75
2026-08-20T10:05:05Z ##[group]Post Run Perf Benchmark
2026-08-20T10:05:06Z cleaning up
`

func TestParseSimulationMetrics(t *testing.T) {
	p := NewLogParser("Run Perf Benchmark")

	t.Run("scoped to step region", func(t *testing.T) {
		m := p.ParseSimulationMetrics(groupedLog, "tt-xla-resnet (n150-perf) benchmark")
		require.NotNil(t, m)
		assert.Equal(t, "resnet", m.ModelName)
		assert.Equal(t, 512.75, m.SamplesPerSecond)
		require.NotNil(t, m.TotalExecutionTime)
		assert.Equal(t, 12.5, *m.TotalExecutionTime)
		require.NotNil(t, m.TotalSamples)
		assert.Equal(t, 6400, *m.TotalSamples)
		require.NotNil(t, m.BatchSize)
		assert.Equal(t, 32, *m.BatchSize)
		assert.Equal(t, "vision", m.Metadata["model_type"])
	})

	t.Run("metric outside step region is ignored", func(t *testing.T) {
		log := strings.ReplaceAll(groupedLog, "Run Perf Benchmark\n2026-08-20T10:05:00Z Model", "Some Other Step\n2026-08-20T10:05:00Z Model")
		m := p.ParseSimulationMetrics(log, "tt-xla-resnet")
		assert.Nil(t, m)
	})

	t.Run("log without group markers scans whole text", func(t *testing.T) {
		log := "building...\nSample per second: 99\ndone\n"
		m := p.ParseSimulationMetrics(log, "tt-forge-bert benchmark")
		require.NotNil(t, m)
		assert.Equal(t, 99.0, m.SamplesPerSecond)
		assert.Equal(t, "bert", m.ModelName)
	})

	t.Run("no metric anywhere", func(t *testing.T) {
		assert.Nil(t, p.ParseSimulationMetrics("nothing interesting here\n", "tt-xla-resnet"))
	})

	t.Run("first match wins", func(t *testing.T) {
		log := "Samples per second: 100.5\nSamples per second: 200.5\n"
		m := p.ParseSimulationMetrics(log, "tt-xla-resnet")
		require.NotNil(t, m)
		assert.Equal(t, 100.5, m.SamplesPerSecond)
	})
}

func TestFindErrorInLogs(t *testing.T) {
	p := NewLogParser("Run Perf Benchmark")

	tests := []struct {
		name     string
		logs     string
		expected string
	}{
		{
			name:     "error line",
			logs:     "step 1 ok\nError: device not available\nstep 2 skipped\n",
			expected: "device not available",
		},
		{
			name:     "uppercase error",
			logs:     "ERROR: compile failed with exit code 1\n",
			expected: "compile failed with exit code 1",
		},
		{
			name:     "failed marker",
			logs:     "FAILED: tests/test_resnet.py::test_perf\n",
			expected: "tests/test_resnet.py::test_perf",
		},
		{
			name:     "no error",
			logs:     "all good\n",
			expected: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, p.FindErrorInLogs(tt.logs))
		})
	}

	t.Run("long message is truncated", func(t *testing.T) {
		msg := strings.Repeat("x", 600)
		got := p.FindErrorInLogs("Error: " + msg + "\n")
		assert.Len(t, got, maxErrorMessageLen+3)
		assert.True(t, strings.HasSuffix(got, "..."))
	})
}

func TestExtractModelName(t *testing.T) {
	tests := []struct {
		name     string
		jobName  string
		expected string
	}{
		{
			name:     "classic naming",
			jobName:  "tt-xla-resnet (n150-perf, 12, 128) benchmark",
			expected: "resnet",
		},
		{
			name:     "forge naming",
			jobName:  "build / tt-forge-bert_large nightly",
			expected: "bert_large",
		},
		{
			name:     "perf matrix naming",
			jobName:  "run-n150-perf-benchmarks / perf resnet_v2.5 (n150-perf)",
			expected: "resnet_v2.5",
		},
		{
			name:     "fallback to job name",
			jobName:  "lint",
			expected: "lint",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractModelName(tt.jobName))
		})
	}
}
