// Package report builds single-run reports and two-run comparisons
// from annotated workflow jobs.
package report

import (
	"time"

	"github.com/tenstorrent/gh-perf-report/pkg/parser"
)

// Job conclusions as reported by the Actions API.
const (
	ConclusionSuccess = "success"
	ConclusionFailure = "failure"
	ConclusionSkipped = "skipped"
)

// JobResult is one benchmark job with its extracted metrics.
type JobResult struct {
	JobID             int64
	JobName           string
	Status            string
	Conclusion        string
	SimulationMetrics *parser.SimulationMetrics
	DevicePerfMetrics *parser.DevicePerfMetrics
	FailedStep        string
	ErrorMessage      string
}

// WorkflowReport is a single-run report: run metadata plus per-job
// rows sorted by job name.
type WorkflowReport struct {
	RunID        int64
	Repo         string
	WorkflowName string
	Branch       string
	CreatedAt    time.Time
	Status       string
	Conclusion   string
	Jobs         []JobResult
}

// SuccessCount returns the number of successful jobs.
func (r *WorkflowReport) SuccessCount() int { return r.countConclusion(ConclusionSuccess) }

// FailureCount returns the number of failed jobs.
func (r *WorkflowReport) FailureCount() int { return r.countConclusion(ConclusionFailure) }

// SkippedCount returns the number of skipped jobs.
func (r *WorkflowReport) SkippedCount() int { return r.countConclusion(ConclusionSkipped) }

func (r *WorkflowReport) countConclusion(c string) int {
	n := 0
	for _, j := range r.Jobs {
		if j.Conclusion == c {
			n++
		}
	}
	return n
}

// Outcome classifies one comparison row.
type Outcome string

const (
	OutcomeRegression  Outcome = "regression"
	OutcomeImprovement Outcome = "improvement"
	OutcomeNeutral     Outcome = "neutral"
	OutcomeNew         Outcome = "new"
	OutcomeRemoved     Outcome = "removed"
)

// ComparisonRow joins one job across two runs. Baseline or Current is
// nil when the job exists in only one run. Delta/percent pointers are
// nil when the value cannot be computed (absent metric, zero baseline).
type ComparisonRow struct {
	JobKey   string
	Baseline *JobResult
	Current  *JobResult

	SamplesPerSecDelta   *float64
	SamplesPerSecPercent *float64
	DevicePerfDeltaNs    *float64
	DevicePerfPercent    *float64

	StatusChanged bool
	Outcome       Outcome
}

// DevicePerfDeltaMs returns the device-perf delta in milliseconds, or
// nil when it was not computed.
func (c *ComparisonRow) DevicePerfDeltaMs() *float64 {
	if c.DevicePerfDeltaNs == nil {
		return nil
	}
	ms := *c.DevicePerfDeltaNs / 1e6
	return &ms
}
