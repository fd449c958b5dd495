// Package format renders workflow reports and comparisons as terminal
// tables.
package format

import (
	"fmt"
	"io"

	"github.com/cli/go-gh/v2/pkg/tableprinter"
	"github.com/cli/go-gh/v2/pkg/term"

	"github.com/tenstorrent/gh-perf-report/pkg/github"
	"github.com/tenstorrent/gh-perf-report/pkg/report"
)

const notAvailable = "N/A"

// Renderer writes reports to a terminal or plain writer. Non-TTY output
// degrades to tab-separated fields without color.
type Renderer struct {
	out   io.Writer
	isTTY bool
	width int
}

// NewRenderer builds a Renderer for the ambient terminal.
func NewRenderer() *Renderer {
	t := term.FromEnv()
	width, _, err := t.Size()
	if err != nil {
		width = 200
	}
	return &Renderer{
		out:   t.Out(),
		isTTY: t.IsTerminalOutput(),
		width: width,
	}
}

// NewRendererTo builds a Renderer writing plain output to w. Used by
// tests and when piping.
func NewRendererTo(w io.Writer, width int) *Renderer {
	return &Renderer{out: w, isTTY: false, width: width}
}

func (r *Renderer) table() tableprinter.TablePrinter {
	return tableprinter.New(r.out, r.isTTY, r.width)
}

// RenderWorkflowReport prints the run header, one row per benchmark job
// and a conclusion summary. Device-perf stage columns are added only
// when some job carries multi-stage metrics.
func (r *Renderer) RenderWorkflowReport(rep *report.WorkflowReport) error {
	fmt.Fprintf(r.out, "%s %s (run %d)\n", labelColor.Sprint("Workflow:"), rep.WorkflowName, rep.RunID)
	fmt.Fprintf(r.out, "%s %s  %s %s  %s %s\n",
		labelColor.Sprint("Repo:"), rep.Repo,
		labelColor.Sprint("Branch:"), rep.Branch,
		labelColor.Sprint("Created:"), rep.CreatedAt.Format("2006-01-02 15:04"))
	fmt.Fprintln(r.out)

	stageCount := maxStageCount(rep.Jobs)

	tp := r.table()
	header := []string{"JOB", "MODEL", "STATUS", "SAMPLES/SEC", "DEVICE PERF [ms]", "OPS"}
	for i := 1; i <= stageCount; i++ {
		header = append(header, fmt.Sprintf("STAGE %d [ms]", i))
	}
	header = append(header, "ERROR")
	tp.AddHeader(header)

	for i := range rep.Jobs {
		job := &rep.Jobs[i]
		fields := []string{
			job.JobName,
			modelName(job),
			colorizeConclusion(job.Conclusion),
			samplesPerSec(job),
			devicePerfMs(job),
			opCount(job),
		}
		for s := 0; s < stageCount; s++ {
			fields = append(fields, stageMs(job, s))
		}
		fields = append(fields, errorSummary(job))
		addRow(tp, fields...)
	}
	if len(rep.Jobs) == 0 {
		addRow(tp, "(no benchmark jobs)")
	}
	if err := tp.Render(); err != nil {
		return err
	}

	fmt.Fprintf(r.out, "\n%s %s, %s, %s\n",
		labelColor.Sprint("Summary:"),
		successColor.Sprintf("%d passed", rep.SuccessCount()),
		failureColor.Sprintf("%d failed", rep.FailureCount()),
		skippedColor.Sprintf("%d skipped", rep.SkippedCount()))
	return nil
}

// RenderComparison prints the joined rows of two runs with signed
// deltas and a classification per row.
func (r *Renderer) RenderComparison(baseline, current *report.WorkflowReport, rows []report.ComparisonRow) error {
	fmt.Fprintf(r.out, "%s run %d vs run %d (%s)\n",
		labelColor.Sprint("Comparing:"), baseline.RunID, current.RunID, current.Repo)
	fmt.Fprintln(r.out)

	tp := r.table()
	tp.AddHeader([]string{
		"JOB", "BASE SAMPLES/SEC", "CUR SAMPLES/SEC", "DELTA %",
		"BASE DEVICE [ms]", "CUR DEVICE [ms]", "DELTA %", "OUTCOME",
	})

	for i := range rows {
		row := &rows[i]
		addRow(tp,
			row.JobKey,
			samplesPerSec(row.Baseline),
			samplesPerSec(row.Current),
			signedPercent(row.SamplesPerSecPercent),
			devicePerfMs(row.Baseline),
			devicePerfMs(row.Current),
			signedPercent(row.DevicePerfPercent),
			colorizeOutcome(row.Outcome),
		)
	}
	if len(rows) == 0 {
		addRow(tp, "(no benchmark jobs in either run)")
	}
	if err := tp.Render(); err != nil {
		return err
	}

	counts := outcomeCounts(rows)
	fmt.Fprintf(r.out, "\n%s %s, %s, %d neutral, %d new, %d removed\n",
		labelColor.Sprint("Summary:"),
		failureColor.Sprintf("%d regressions", counts[report.OutcomeRegression]),
		successColor.Sprintf("%d improvements", counts[report.OutcomeImprovement]),
		counts[report.OutcomeNeutral], counts[report.OutcomeNew], counts[report.OutcomeRemoved])
	return nil
}

// RenderJobList prints every job of a run with its normalized key, so
// users can see which jobs a report would include.
func (r *Renderer) RenderJobList(jobs []github.Job) error {
	tp := r.table()
	tp.AddHeader([]string{"ID", "JOB", "KEY", "STATUS", "CONCLUSION"})
	for _, job := range jobs {
		addRow(tp,
			fmt.Sprintf("%d", job.ID),
			job.Name,
			github.NormalizeJobName(job.Name),
			job.Status,
			colorizeConclusion(job.Conclusion),
		)
	}
	if len(jobs) == 0 {
		addRow(tp, "(no jobs)")
	}
	return tp.Render()
}

func addRow(tp tableprinter.TablePrinter, fields ...string) {
	for _, f := range fields {
		tp.AddField(f)
	}
	tp.EndRow()
}

func maxStageCount(jobs []report.JobResult) int {
	max := 0
	for i := range jobs {
		if m := jobs[i].DevicePerfMetrics; m != nil && len(m.Stages) > max {
			max = len(m.Stages)
		}
	}
	if max <= 1 {
		return 0
	}
	return max
}

func modelName(job *report.JobResult) string {
	if job.SimulationMetrics != nil && job.SimulationMetrics.ModelName != "" {
		return job.SimulationMetrics.ModelName
	}
	return github.NormalizeJobName(job.JobName)
}

func samplesPerSec(job *report.JobResult) string {
	if job == nil || job.SimulationMetrics == nil {
		return notAvailable
	}
	return fmt.Sprintf("%.2f", job.SimulationMetrics.SamplesPerSecond)
}

func devicePerfMs(job *report.JobResult) string {
	if job == nil || job.DevicePerfMetrics == nil {
		return notAvailable
	}
	return fmt.Sprintf("%.3f", job.DevicePerfMetrics.TotalOpDurationMs())
}

func opCount(job *report.JobResult) string {
	if job.DevicePerfMetrics == nil {
		return notAvailable
	}
	return fmt.Sprintf("%d", job.DevicePerfMetrics.FilteredOpCount)
}

func stageMs(job *report.JobResult, stage int) string {
	if job.DevicePerfMetrics == nil || stage >= len(job.DevicePerfMetrics.Stages) {
		return notAvailable
	}
	return fmt.Sprintf("%.3f", job.DevicePerfMetrics.Stages[stage].DurationMs())
}

func errorSummary(job *report.JobResult) string {
	if job.ErrorMessage != "" {
		return truncate(job.ErrorMessage, 80)
	}
	if job.FailedStep != "" {
		return "failed step: " + job.FailedStep
	}
	return ""
}

func signedPercent(v *float64) string {
	if v == nil {
		return notAvailable
	}
	return fmt.Sprintf("%+.1f%%", *v)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func outcomeCounts(rows []report.ComparisonRow) map[report.Outcome]int {
	counts := make(map[report.Outcome]int, 5)
	for i := range rows {
		counts[rows[i].Outcome]++
	}
	return counts
}
