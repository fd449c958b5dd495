package report

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenstorrent/gh-perf-report/pkg/cache"
	gherrors "github.com/tenstorrent/gh-perf-report/pkg/errors"
	"github.com/tenstorrent/gh-perf-report/pkg/github"
)

// mockClient serves canned run data. Log fetches are counted so caching
// behavior is observable.
type mockClient struct {
	run       *github.Run
	jobs      []github.Job
	logs      map[int64]string
	artifacts []github.Artifact
	zips      map[int64][]byte

	logFetches atomic.Int64
}

func (m *mockClient) GetWorkflowRun(ctx context.Context, owner, repo string, runID int64) (*github.Run, error) {
	if m.run == nil {
		return nil, gherrors.NewNotFoundError("run", fmt.Sprint(runID))
	}
	return m.run, nil
}

func (m *mockClient) ListJobs(ctx context.Context, owner, repo string, runID int64) ([]github.Job, error) {
	return m.jobs, nil
}

func (m *mockClient) GetJob(ctx context.Context, owner, repo string, jobID int64) (*github.Job, error) {
	for i := range m.jobs {
		if m.jobs[i].ID == jobID {
			return &m.jobs[i], nil
		}
	}
	return nil, gherrors.NewNotFoundError("job", fmt.Sprint(jobID))
}

func (m *mockClient) FetchJobLog(ctx context.Context, owner, repo string, jobID int64) (string, error) {
	m.logFetches.Add(1)
	log, ok := m.logs[jobID]
	if !ok {
		return "", gherrors.NewNotFoundError("job", fmt.Sprint(jobID))
	}
	return log, nil
}

func (m *mockClient) ListArtifacts(ctx context.Context, owner, repo string, runID int64) ([]github.Artifact, error) {
	return m.artifacts, nil
}

func (m *mockClient) DownloadArtifact(ctx context.Context, owner, repo string, artifactID int64, destPath string) error {
	data, ok := m.zips[artifactID]
	if !ok {
		return gherrors.NewNotFoundError("artifact", fmt.Sprint(artifactID))
	}
	return os.WriteFile(destPath, data, 0o644)
}

var _ github.Client = (*mockClient)(nil)

func devicePerfZip(t *testing.T, rows string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("device_perf.csv")
	require.NoError(t, err)
	header := "OP CODE,DEVICE KERNEL DURATION [ns],OP TO OP LATENCY [ns],CONST_EVAL_OP,INPUT_LAYOUT_CONVERSION_OP\n"
	_, err = w.Write([]byte(header + rows))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func perfLog(samplesPerSec float64) string {
	return fmt.Sprintf("##[group]Run Perf Benchmark\nSamples per second: %.2f\n##[group]Post job\n", samplesPerSec)
}

func newTestClient(t *testing.T) *mockClient {
	return &mockClient{
		run: &github.Run{
			ID:           42,
			Owner:        "tenstorrent",
			Repo:         "tt-xla",
			WorkflowName: "Nightly Perf",
			HeadBranch:   "main",
			CreatedAt:    time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC),
			Status:       "completed",
			Conclusion:   "success",
		},
		jobs: []github.Job{
			{ID: 201, Name: "tt-xla-vgg benchmark", Status: "completed", Conclusion: ConclusionSuccess},
			{
				ID: 202, Name: "tt-xla-resnet benchmark", Status: "completed", Conclusion: ConclusionFailure,
				Steps: []github.Step{
					{Name: "Checkout", Number: 1, Status: "completed", Conclusion: ConclusionSuccess},
					{Name: "Run Perf Benchmark", Number: 2, Status: "completed", Conclusion: ConclusionFailure},
				},
			},
			{ID: 203, Name: "lint", Status: "completed", Conclusion: ConclusionSuccess},
		},
		logs: map[int64]string{
			201: perfLog(312.5),
			202: "##[group]Run Perf Benchmark\nError: out of device memory\n##[group]Post job\n",
		},
		artifacts: []github.Artifact{
			{ID: 9001, Name: "device-perf-201", SizeBytes: 1024},
			{ID: 9002, Name: "coverage-report", SizeBytes: 10},
		},
		zips: map[int64][]byte{
			9001: devicePerfZip(t, "Matmul,1000,50,false,false\nConv2d,2000,60,false,false\n"),
		},
	}
}

func disabledStore() *cache.Store {
	return cache.New("", 0, false)
}

func TestProcessWorkflowRun(t *testing.T) {
	client := newTestClient(t)
	p := NewProcessor(client, disabledStore(), 2)

	rep, err := p.ProcessWorkflowRun(context.Background(), "tenstorrent", "tt-xla", 42)
	require.NoError(t, err)

	assert.Equal(t, int64(42), rep.RunID)
	assert.Equal(t, "tenstorrent/tt-xla", rep.Repo)
	assert.Equal(t, "Nightly Perf", rep.WorkflowName)
	assert.Equal(t, "main", rep.Branch)

	// lint is not a benchmark job
	require.Len(t, rep.Jobs, 2)
	// sorted by name
	resnet, vgg := rep.Jobs[0], rep.Jobs[1]
	assert.Equal(t, "tt-xla-resnet benchmark", resnet.JobName)
	assert.Equal(t, "tt-xla-vgg benchmark", vgg.JobName)

	require.NotNil(t, vgg.SimulationMetrics)
	assert.Equal(t, 312.5, vgg.SimulationMetrics.SamplesPerSecond)
	assert.Equal(t, "vgg", vgg.SimulationMetrics.ModelName)
	require.NotNil(t, vgg.DevicePerfMetrics)
	assert.Equal(t, 3000.0, vgg.DevicePerfMetrics.TotalOpDurationNs)
	assert.Equal(t, 2, vgg.DevicePerfMetrics.FilteredOpCount)

	assert.Nil(t, resnet.SimulationMetrics)
	assert.Nil(t, resnet.DevicePerfMetrics)
	assert.Equal(t, "Run Perf Benchmark", resnet.FailedStep)
	assert.Equal(t, "out of device memory", resnet.ErrorMessage)

	assert.Equal(t, 1, rep.SuccessCount())
	assert.Equal(t, 1, rep.FailureCount())
	assert.Equal(t, 0, rep.SkippedCount())
}

func TestProcessWorkflowRunMissing(t *testing.T) {
	client := &mockClient{}
	p := NewProcessor(client, disabledStore(), 2)

	_, err := p.ProcessWorkflowRun(context.Background(), "tenstorrent", "tt-xla", 7)
	require.Error(t, err)
	assert.True(t, gherrors.IsNotFound(err))
}

func TestProcessWorkflowRunCaching(t *testing.T) {
	client := newTestClient(t)
	store := cache.New(t.TempDir(), time.Hour, true)
	p := NewProcessor(client, store, 2)

	_, err := p.ProcessWorkflowRun(context.Background(), "tenstorrent", "tt-xla", 42)
	require.NoError(t, err)
	fetchesAfterFirst := client.logFetches.Load()
	assert.Equal(t, int64(2), fetchesAfterFirst)

	rep, err := p.ProcessWorkflowRun(context.Background(), "tenstorrent", "tt-xla", 42)
	require.NoError(t, err)
	assert.Equal(t, fetchesAfterFirst, client.logFetches.Load(), "second run should be served from cache")

	vgg := rep.Jobs[1]
	require.NotNil(t, vgg.SimulationMetrics)
	assert.Equal(t, 312.5, vgg.SimulationMetrics.SamplesPerSecond)
	require.NotNil(t, vgg.DevicePerfMetrics)
	assert.Equal(t, 3000.0, vgg.DevicePerfMetrics.TotalOpDurationNs)
}

func TestProcessJobInProgress(t *testing.T) {
	client := newTestClient(t)
	client.jobs = []github.Job{
		{ID: 301, Name: "tt-xla-resnet benchmark", Status: "in_progress"},
	}
	p := NewProcessor(client, disabledStore(), 1)

	rep, err := p.ProcessWorkflowRun(context.Background(), "tenstorrent", "tt-xla", 42)
	require.NoError(t, err)
	require.Len(t, rep.Jobs, 1)
	assert.Nil(t, rep.Jobs[0].SimulationMetrics)
	assert.Equal(t, int64(0), client.logFetches.Load())
}

func TestProcessJobLogFetchFailure(t *testing.T) {
	client := newTestClient(t)
	delete(client.logs, 201)
	p := NewProcessor(client, disabledStore(), 1)

	rep, err := p.ProcessWorkflowRun(context.Background(), "tenstorrent", "tt-xla", 42)
	require.NoError(t, err)

	vgg := rep.Jobs[1]
	assert.Nil(t, vgg.SimulationMetrics)
	assert.Contains(t, vgg.ErrorMessage, "failed to parse logs")
	// device perf extraction is independent of the log fetch
	require.NotNil(t, vgg.DevicePerfMetrics)
}
