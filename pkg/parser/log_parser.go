// Package parser extracts performance metrics from job logs and
// device-perf CSV artifacts.
package parser

import (
	"regexp"
	"strconv"
	"strings"
)

const maxErrorMessageLen = 500

// SimulationMetrics holds throughput numbers parsed from the
// perf-benchmark step of a job log.
type SimulationMetrics struct {
	ModelName          string            `json:"model_name"`
	SamplesPerSecond   float64           `json:"samples_per_second"`
	TotalExecutionTime *float64          `json:"total_execution_time,omitempty"`
	TotalSamples       *int              `json:"total_samples,omitempty"`
	BatchSize          *int              `json:"batch_size,omitempty"`
	Metadata           map[string]string `json:"metadata,omitempty"`
}

// LogParser extracts simulation metrics and failure messages from raw
// job log text.
type LogParser struct {
	stepName string
}

// NewLogParser scopes metric search to the step with the given name.
func NewLogParser(stepName string) *LogParser {
	return &LogParser{stepName: stepName}
}

// ParseSimulationMetrics extracts simulation metrics from logs. The
// search is scoped to the configured step's log region; when the log
// carries no step markers at all the whole text is scanned. A missing
// metric is not an error: the result is nil.
func (p *LogParser) ParseSimulationMetrics(logs, jobName string) *SimulationMetrics {
	region := p.stepRegion(logs)
	if region == "" {
		return nil
	}

	m := samplesPerSecondPattern.FindStringSubmatch(region)
	if m == nil {
		return nil
	}
	samplesPerSec, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil
	}

	metrics := &SimulationMetrics{
		ModelName:        ExtractModelName(jobName),
		SamplesPerSecond: samplesPerSec,
	}
	if v, ok := matchFloat(executionTimePattern, region); ok {
		metrics.TotalExecutionTime = &v
	}
	if v, ok := matchInt(totalSamplesPattern, region); ok {
		metrics.TotalSamples = &v
	}
	if v, ok := matchInt(batchSizePattern, region); ok {
		metrics.BatchSize = &v
	}
	for key, pattern := range metadataPatterns {
		if m := pattern.FindStringSubmatch(region); m != nil {
			if metrics.Metadata == nil {
				metrics.Metadata = make(map[string]string)
			}
			metrics.Metadata[key] = strings.TrimSpace(m[1])
		}
	}
	return metrics
}

// stepRegion returns the log slice belonging to the configured step.
// Group markers scope the region; a log without any markers is returned
// whole, and a log with markers but no matching step yields "".
func (p *LogParser) stepRegion(logs string) string {
	marks := stepGroupPattern.FindAllStringSubmatchIndex(logs, -1)
	if len(marks) == 0 {
		return logs
	}
	for i, m := range marks {
		name := strings.TrimSpace(logs[m[2]:m[3]])
		if !strings.Contains(name, p.stepName) {
			continue
		}
		start := m[1]
		end := len(logs)
		if i+1 < len(marks) {
			end = marks[i+1][0]
		}
		return logs[start:end]
	}
	return ""
}

// FindErrorInLogs scans the whole log with the fixed error patterns and
// returns the first capture, truncated, or "".
func (p *LogParser) FindErrorInLogs(logs string) string {
	for _, pattern := range errorPatterns {
		if m := pattern.FindStringSubmatch(logs); m != nil {
			msg := strings.TrimSpace(m[1])
			if len(msg) > maxErrorMessageLen {
				return msg[:maxErrorMessageLen] + "..."
			}
			return msg
		}
	}
	return ""
}

// ExtractModelName derives the model identifier from a job name,
// falling back to the job name itself.
func ExtractModelName(jobName string) string {
	if m := modelNamePattern.FindStringSubmatch(jobName); m != nil {
		return m[1]
	}
	if m := perfModelPattern.FindStringSubmatch(jobName); m != nil {
		return m[1]
	}
	return jobName
}

func matchFloat(pattern *regexp.Regexp, s string) (float64, bool) {
	m := pattern.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func matchInt(pattern *regexp.Regexp, s string) (int, bool) {
	m := pattern.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	v, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return v, true
}
