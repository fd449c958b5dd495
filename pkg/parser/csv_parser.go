package parser

import (
	"archive/zip"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/tenstorrent/gh-perf-report/pkg/config"
	gherrors "github.com/tenstorrent/gh-perf-report/pkg/errors"
)

// StagePerfMetrics holds the contribution of a single CSV file (one
// compile/run stage) inside a device-perf artifact.
type StagePerfMetrics struct {
	StageName  string  `json:"stage_name"`
	DurationNs float64 `json:"duration_ns"`
	OpCount    int     `json:"op_count"`
}

// DurationMs returns the stage duration in milliseconds.
func (s StagePerfMetrics) DurationMs() float64 {
	return s.DurationNs / 1e6
}

// DevicePerfMetrics aggregates device kernel durations across all CSV
// stages of an artifact.
type DevicePerfMetrics struct {
	TotalOpDurationNs float64            `json:"total_op_duration_ns"`
	FilteredOpCount   int                `json:"filtered_op_count"`
	AvgOpDurationNs   float64            `json:"avg_op_duration_ns"`
	Stages            []StagePerfMetrics `json:"stages,omitempty"`
}

// TotalOpDurationMs returns the total duration in milliseconds.
func (d *DevicePerfMetrics) TotalOpDurationMs() float64 {
	return d.TotalOpDurationNs / 1e6
}

// CSVParser extracts device performance metrics from artifact ZIPs.
type CSVParser struct{}

// NewCSVParser returns a CSVParser.
func NewCSVParser() *CSVParser {
	return &CSVParser{}
}

// ParseDevicePerfCSV sums the device kernel duration column over rows
// that are real operations: rows flagged CONST_EVAL_OP or
// INPUT_LAYOUT_CONVERSION_OP are bookkeeping and never contribute.
func (p *CSVParser) ParseDevicePerfCSV(r io.Reader) (*DevicePerfMetrics, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, gherrors.NewParseError("device perf CSV", fmt.Errorf("reading header: %w", err))
	}
	colIndex := make(map[string]int, len(header))
	for i, name := range header {
		colIndex[strings.TrimSpace(name)] = i
	}
	var missing []string
	for _, col := range config.CSVRequiredColumns {
		if _, ok := colIndex[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, gherrors.NewParseError("device perf CSV",
			fmt.Errorf("missing required columns: %v", missing))
	}

	var totalDuration float64
	var count int
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, gherrors.NewParseError("device perf CSV", err)
		}
		if shouldFilterRow(row, colIndex) {
			continue
		}
		duration, ok := parseDuration(field(row, colIndex, config.CSVColumnKernelDuration))
		if !ok {
			continue
		}
		totalDuration += duration
		count++
	}

	metrics := &DevicePerfMetrics{
		TotalOpDurationNs: totalDuration,
		FilteredOpCount:   count,
	}
	if count > 0 {
		metrics.AvgOpDurationNs = totalDuration / float64(count)
	}
	return metrics, nil
}

// ParseArtifactZip parses every CSV member of a device-perf artifact
// ZIP and combines the per-stage metrics. Members missing the required
// columns or containing no real operations are skipped. The result is
// nil (metric absent) when no member contributes.
func (p *CSVParser) ParseArtifactZip(zipPath string) (*DevicePerfMetrics, error) {
	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, gherrors.NewParseError(zipPath, fmt.Errorf("invalid ZIP file: %w", err))
	}
	defer zr.Close()

	var names []string
	for _, f := range zr.File {
		if strings.HasSuffix(f.Name, ".csv") {
			names = append(names, f.Name)
		}
	}
	if len(names) == 0 {
		return nil, gherrors.NewParseError(zipPath, fmt.Errorf("no CSV file found in artifact"))
	}
	// Stage numbering follows member name order.
	sort.Strings(names)

	combined := &DevicePerfMetrics{}
	stageNum := 1
	for _, name := range names {
		member, err := openZipMember(zr, name)
		if err != nil {
			return nil, gherrors.NewParseError(zipPath, err)
		}
		metrics, err := p.ParseDevicePerfCSV(member)
		member.Close()
		if err != nil {
			logrus.Debugf("skipping artifact member %s: %v", name, err)
			continue
		}
		if metrics.FilteredOpCount == 0 {
			continue
		}
		combined.Stages = append(combined.Stages, StagePerfMetrics{
			StageName:  fmt.Sprintf("Stage %d", stageNum),
			DurationNs: metrics.TotalOpDurationNs,
			OpCount:    metrics.FilteredOpCount,
		})
		stageNum++
		combined.TotalOpDurationNs += metrics.TotalOpDurationNs
		combined.FilteredOpCount += metrics.FilteredOpCount
	}

	if combined.FilteredOpCount == 0 {
		return nil, nil
	}
	combined.AvgOpDurationNs = combined.TotalOpDurationNs / float64(combined.FilteredOpCount)
	return combined, nil
}

func openZipMember(zr *zip.ReadCloser, name string) (io.ReadCloser, error) {
	for _, f := range zr.File {
		if f.Name == name {
			return f.Open()
		}
	}
	return nil, fmt.Errorf("member %s not found", name)
}

func shouldFilterRow(row []string, colIndex map[string]int) bool {
	return parseBool(field(row, colIndex, config.CSVColumnConstEvalOp)) ||
		parseBool(field(row, colIndex, config.CSVColumnLayoutConversion))
}

func field(row []string, colIndex map[string]int, col string) string {
	i, ok := colIndex[col]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

func parseDuration(value string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "yes", "t":
		return true
	default:
		return false
	}
}
