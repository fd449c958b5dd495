package report

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/tenstorrent/gh-perf-report/pkg/cache"
	"github.com/tenstorrent/gh-perf-report/pkg/config"
	"github.com/tenstorrent/gh-perf-report/pkg/github"
	"github.com/tenstorrent/gh-perf-report/pkg/parser"
)

// Processor turns a workflow run into a WorkflowReport by fanning
// per-job metric extraction out over a bounded worker pool.
type Processor struct {
	client    github.Client
	logParser *parser.LogParser
	csvParser *parser.CSVParser
	store     *cache.Store
	workers   int
}

// NewProcessor wires a Processor. store may be a disabled cache.
func NewProcessor(client github.Client, store *cache.Store, workers int) *Processor {
	return &Processor{
		client:    client,
		logParser: parser.NewLogParser(config.StepNamePerfBenchmark),
		csvParser: parser.NewCSVParser(),
		store:     store,
		workers:   workers,
	}
}

// ProcessWorkflowRun fetches the run and its jobs, extracts metrics for
// every benchmark job in parallel and returns the assembled report.
// Failure to list the run or its jobs aborts; per-job extraction
// failures are captured into that job's error field instead.
func (p *Processor) ProcessWorkflowRun(ctx context.Context, owner, repo string, runID int64) (*WorkflowReport, error) {
	run, err := p.client.GetWorkflowRun(ctx, owner, repo, runID)
	if err != nil {
		return nil, err
	}
	jobs, err := p.client.ListJobs(ctx, owner, repo, runID)
	if err != nil {
		return nil, err
	}

	var benchmarkJobs []github.Job
	for _, j := range jobs {
		if config.IsBenchmarkJob(j.Name) {
			benchmarkJobs = append(benchmarkJobs, j)
		}
	}
	logrus.Infof("run %d: %d jobs, %d benchmark jobs", runID, len(jobs), len(benchmarkJobs))

	// Built once per run; handles re-run attempts whose job IDs differ
	// from the attempt that uploaded the artifacts.
	artifactIndex, err := github.BuildArtifactIndex(ctx, p.client, owner, repo, runID)
	if err != nil {
		logrus.Warnf("run %d: artifact index unavailable: %v", runID, err)
		artifactIndex = github.ArtifactIndex{}
	}

	results, errs := forEachJob(ctx, p.workers, benchmarkJobs,
		func(ctx context.Context, job github.Job) (JobResult, error) {
			return p.processJob(ctx, owner, repo, runID, job, artifactIndex), nil
		})
	for i, err := range errs {
		if err != nil {
			// Only panics land here; ordinary failures are captured in
			// the result itself.
			results[i] = JobResult{
				JobID:        benchmarkJobs[i].ID,
				JobName:      benchmarkJobs[i].Name,
				Status:       benchmarkJobs[i].Status,
				Conclusion:   ConclusionFailure,
				ErrorMessage: fmt.Sprintf("processing error: %v", err),
			}
		}
	}

	sort.Slice(results, func(i, j int) bool { return results[i].JobName < results[j].JobName })

	return &WorkflowReport{
		RunID:        runID,
		Repo:         run.RepoPath(),
		WorkflowName: run.WorkflowName,
		Branch:       run.HeadBranch,
		CreatedAt:    run.CreatedAt,
		Status:       run.Status,
		Conclusion:   run.Conclusion,
		Jobs:         results,
	}, nil
}

func (p *Processor) processJob(ctx context.Context, owner, repo string, runID int64, job github.Job, artifacts github.ArtifactIndex) JobResult {
	result := JobResult{
		JobID:      job.ID,
		JobName:    job.Name,
		Status:     job.Status,
		Conclusion: job.Conclusion,
	}

	// Metrics only exist for finished jobs.
	if job.Status != "completed" {
		return result
	}

	if job.Conclusion == ConclusionFailure {
		result.FailedStep = job.FailedStep()
	}

	if sim, err := p.extractSimulationMetrics(ctx, owner, repo, runID, job, &result); err != nil {
		if result.ErrorMessage == "" {
			result.ErrorMessage = fmt.Sprintf("failed to parse logs: %v", err)
		}
	} else {
		result.SimulationMetrics = sim
	}

	if dev, err := p.extractDevicePerfMetrics(ctx, owner, repo, runID, job, artifacts); err != nil {
		if result.ErrorMessage == "" {
			result.ErrorMessage = fmt.Sprintf("failed to parse device perf: %v", err)
		}
	} else {
		result.DevicePerfMetrics = dev
	}

	return result
}

// extractSimulationMetrics returns the cached or freshly parsed
// samples-per-second metrics. For failed jobs it also scans the log for
// an error message when the step list yielded none.
func (p *Processor) extractSimulationMetrics(ctx context.Context, owner, repo string, runID int64, job github.Job, result *JobResult) (*parser.SimulationMetrics, error) {
	key := cache.Key{RunID: runID, JobID: job.ID, Kind: cache.KindSimulation}
	var cached parser.SimulationMetrics
	if found, hit := p.store.Get(key, &cached); hit {
		if !found {
			return nil, nil
		}
		return &cached, nil
	}

	logs, err := p.client.FetchJobLog(ctx, owner, repo, job.ID)
	if err != nil {
		return nil, err
	}

	metrics := p.logParser.ParseSimulationMetrics(logs, job.Name)
	if job.Conclusion == ConclusionFailure && result.ErrorMessage == "" {
		result.ErrorMessage = p.logParser.FindErrorInLogs(logs)
	}

	if metrics == nil {
		if err := p.store.Put(key, nil); err != nil {
			logrus.Debugf("cache write failed for %v: %v", key, err)
		}
		return nil, nil
	}
	if err := p.store.Put(key, metrics); err != nil {
		logrus.Debugf("cache write failed for %v: %v", key, err)
	}
	return metrics, nil
}

// extractDevicePerfMetrics returns the cached or freshly parsed
// device-perf sum for the job's artifact. A missing artifact is an
// absent metric, not an error.
func (p *Processor) extractDevicePerfMetrics(ctx context.Context, owner, repo string, runID int64, job github.Job, artifacts github.ArtifactIndex) (*parser.DevicePerfMetrics, error) {
	key := cache.Key{RunID: runID, JobID: job.ID, Kind: cache.KindDevicePerf}
	var cached parser.DevicePerfMetrics
	if found, hit := p.store.Get(key, &cached); hit {
		if !found {
			return nil, nil
		}
		return &cached, nil
	}

	artifact, ok := artifacts.Lookup(job.Name)
	if !ok {
		if err := p.store.Put(key, nil); err != nil {
			logrus.Debugf("cache write failed for %v: %v", key, err)
		}
		return nil, nil
	}

	tmp, err := os.CreateTemp("", "device-perf-*.zip")
	if err != nil {
		return nil, err
	}
	zipPath := tmp.Name()
	tmp.Close()
	defer os.Remove(zipPath)

	if err := p.client.DownloadArtifact(ctx, owner, repo, artifact.ID, zipPath); err != nil {
		return nil, err
	}

	metrics, err := p.csvParser.ParseArtifactZip(zipPath)
	if err != nil {
		return nil, err
	}
	if metrics == nil {
		if err := p.store.Put(key, nil); err != nil {
			logrus.Debugf("cache write failed for %v: %v", key, err)
		}
		return nil, nil
	}
	if err := p.store.Put(key, metrics); err != nil {
		logrus.Debugf("cache write failed for %v: %v", key, err)
	}
	return metrics, nil
}
