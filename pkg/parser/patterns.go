package parser

import "regexp"

// Log-line patterns for the perf-benchmark step output.
var (
	// Matches "Sample per second: 12345.67" or "Samples per second: 12345.67".
	samplesPerSecondPattern = regexp.MustCompile(`(?im)Sample[s]?\s+per\s+second:\s*(\d+\.?\d*)`)

	executionTimePattern = regexp.MustCompile(`(?im)Total\s+execution\s+time:\s*(\d+\.?\d*)`)
	totalSamplesPattern  = regexp.MustCompile(`(?im)Total\s+samples:\s*(\d+)`)
	batchSizePattern     = regexp.MustCompile(`(?im)Batch\s+size:\s*(\d+)`)
)

// metadataPatterns capture informational lines surrounding the metric.
var metadataPatterns = map[string]*regexp.Regexp{
	"model_type":   regexp.MustCompile(`(?im)Model\s+type:\s*([^\n]+)`),
	"dataset_name": regexp.MustCompile(`(?im)Dataset\s+name:\s*([^\n]+)`),
	"data_format":  regexp.MustCompile(`(?im)Data\s+format:\s*([^\n]+)`),
	"input_size":   regexp.MustCompile(`(?im)Input\s+size:\s*([^\n]+)`),
}

// errorPatterns extract a failure message from a failed job's log.
// Ordered: the first pattern with a match wins.
var errorPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?m)Error:\s*(.+?)(?:\n|$)`),
	regexp.MustCompile(`(?m)ERROR:\s*(.+?)(?:\n|$)`),
	regexp.MustCompile(`(?m)FAILED:\s*(.+?)(?:\n|$)`),
	regexp.MustCompile(`(?m)Exception:\s*(.+?)(?:\n|$)`),
	regexp.MustCompile(`(?s)Traceback.*?(?:Error|Exception):\s*(.+?)(?:\n|$)`),
}

// Model-name extraction from job names.
var (
	// Older naming: "... / tt-xla-model-name (n150-perf, 12, 128) benchmark"
	modelNamePattern = regexp.MustCompile(`(?i)tt-(?:xla|forge)-([a-zA-Z0-9_-]+)`)
	// Newer tt-xla naming: "run-n150-perf-benchmarks / perf model_name (n150-perf)"
	perfModelPattern = regexp.MustCompile(`(?i)/\s*perf\s+([a-zA-Z0-9_][a-zA-Z0-9_.-]*)`)
)

// Step regions in fetched logs are delimited by group markers, e.g.
// "##[group]Run Perf Benchmark".
var stepGroupPattern = regexp.MustCompile(`(?m)^.*##\[group\](.*)$`)
