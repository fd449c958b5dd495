package report

import (
	"sort"

	"github.com/tenstorrent/gh-perf-report/pkg/github"
)

// Comparer outer-joins two reports by normalized job key and classifies
// each row against the configured threshold percentage.
type Comparer struct {
	thresholdPercent float64
}

// NewComparer returns a Comparer. thresholdPercent applies to both
// metric kinds.
func NewComparer(thresholdPercent float64) *Comparer {
	return &Comparer{thresholdPercent: thresholdPercent}
}

// Compare joins baseline and current by job key, sorted by key.
func (c *Comparer) Compare(baseline, current *WorkflowReport) []ComparisonRow {
	baselineJobs := indexByKey(baseline.Jobs)
	currentJobs := indexByKey(current.Jobs)

	keys := make(map[string]struct{}, len(baselineJobs)+len(currentJobs))
	for k := range baselineJobs {
		keys[k] = struct{}{}
	}
	for k := range currentJobs {
		keys[k] = struct{}{}
	}
	sorted := make([]string, 0, len(keys))
	for k := range keys {
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)

	rows := make([]ComparisonRow, 0, len(sorted))
	for _, key := range sorted {
		rows = append(rows, c.compareJobs(key, baselineJobs[key], currentJobs[key]))
	}
	return rows
}

func indexByKey(jobs []JobResult) map[string]*JobResult {
	m := make(map[string]*JobResult, len(jobs))
	for i := range jobs {
		m[github.NormalizeJobName(jobs[i].JobName)] = &jobs[i]
	}
	return m
}

func (c *Comparer) compareJobs(key string, baseline, current *JobResult) ComparisonRow {
	row := ComparisonRow{JobKey: key, Baseline: baseline, Current: current}

	if baseline == nil {
		row.Outcome = OutcomeNew
		return row
	}
	if current == nil {
		row.Outcome = OutcomeRemoved
		return row
	}

	row.StatusChanged = baseline.Conclusion != current.Conclusion

	if baseline.SimulationMetrics != nil && current.SimulationMetrics != nil {
		b := baseline.SimulationMetrics.SamplesPerSecond
		cur := current.SimulationMetrics.SamplesPerSecond
		delta := cur - b
		row.SamplesPerSecDelta = &delta
		if b != 0 {
			pct := delta / b * 100
			row.SamplesPerSecPercent = &pct
		}
	}

	if baseline.DevicePerfMetrics != nil && current.DevicePerfMetrics != nil {
		b := baseline.DevicePerfMetrics.TotalOpDurationNs
		cur := current.DevicePerfMetrics.TotalOpDurationNs
		delta := cur - b
		row.DevicePerfDeltaNs = &delta
		if b != 0 {
			pct := delta / b * 100
			row.DevicePerfPercent = &pct
		}
	}

	row.Outcome = c.classify(&row)
	return row
}

// classify applies the outcome policy: status transitions outrank
// numeric movement; samples/sec lower is worse, device-perf duration
// higher is worse; movement within the threshold is neutral.
func (c *Comparer) classify(row *ComparisonRow) Outcome {
	if row.Baseline.Conclusion == ConclusionSuccess && row.Current.Conclusion == ConclusionFailure {
		return OutcomeRegression
	}
	if row.Baseline.Conclusion == ConclusionFailure && row.Current.Conclusion == ConclusionSuccess {
		return OutcomeImprovement
	}

	if row.SamplesPerSecPercent != nil {
		if *row.SamplesPerSecPercent < -c.thresholdPercent {
			return OutcomeRegression
		}
		if *row.SamplesPerSecPercent > c.thresholdPercent {
			return OutcomeImprovement
		}
	}
	if row.DevicePerfPercent != nil {
		if *row.DevicePerfPercent > c.thresholdPercent {
			return OutcomeRegression
		}
		if *row.DevicePerfPercent < -c.thresholdPercent {
			return OutcomeImprovement
		}
	}
	return OutcomeNeutral
}
