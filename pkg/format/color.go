package format

import (
	"github.com/fatih/color"

	"github.com/tenstorrent/gh-perf-report/pkg/report"
)

var (
	labelColor   = color.New(color.FgCyan)
	dimColor     = color.New(color.Faint)
	successColor = color.New(color.FgGreen)
	failureColor = color.New(color.FgRed)
	skippedColor = color.New(color.FgYellow)
)

// colorizeConclusion wraps a job conclusion in its status color.
func colorizeConclusion(conclusion string) string {
	switch conclusion {
	case report.ConclusionSuccess:
		return successColor.Sprint(conclusion)
	case report.ConclusionFailure:
		return failureColor.Sprint(conclusion)
	case report.ConclusionSkipped:
		return skippedColor.Sprint(conclusion)
	case "":
		return dimColor.Sprint("-")
	default:
		return conclusion
	}
}

// colorizeOutcome wraps a comparison outcome in its color. Regressions
// read red, improvements green, new/removed yellow.
func colorizeOutcome(o report.Outcome) string {
	switch o {
	case report.OutcomeRegression:
		return failureColor.Sprint(string(o))
	case report.OutcomeImprovement:
		return successColor.Sprint(string(o))
	case report.OutcomeNew, report.OutcomeRemoved:
		return skippedColor.Sprint(string(o))
	default:
		return dimColor.Sprint(string(o))
	}
}
