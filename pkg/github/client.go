// Package github fetches workflow-run data from the GitHub Actions API,
// either through the authenticated gh CLI or directly over REST.
package github

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/tenstorrent/gh-perf-report/pkg/config"
)

// Client is the narrow seam between GitHub access and everything else;
// the backing call mechanism is swappable without touching extraction
// or reporting logic.
type Client interface {
	// GetWorkflowRun fetches run metadata.
	GetWorkflowRun(ctx context.Context, owner, repo string, runID int64) (*Run, error)
	// ListJobs fetches all jobs of a run, in API order, with steps.
	ListJobs(ctx context.Context, owner, repo string, runID int64) ([]Job, error)
	// GetJob fetches a single job by ID, including jobs from earlier
	// run attempts.
	GetJob(ctx context.Context, owner, repo string, jobID int64) (*Job, error)
	// FetchJobLog fetches the full log text of a job.
	FetchJobLog(ctx context.Context, owner, repo string, jobID int64) (string, error)
	// ListArtifacts fetches all artifacts of a run.
	ListArtifacts(ctx context.Context, owner, repo string, runID int64) ([]Artifact, error)
	// DownloadArtifact writes the artifact ZIP to destPath.
	DownloadArtifact(ctx context.Context, owner, repo string, artifactID int64, destPath string) error
}

var (
	modelKeyPattern = regexp.MustCompile(`(?i)(tt-(?:xla|forge)-[a-zA-Z0-9_-]+)`)
	// Newer tt-xla job naming: "run-n150-perf-benchmarks / perf model_name (n150-perf)"
	perfKeyPattern     = regexp.MustCompile(`(?i)/\s*perf\s+([a-zA-Z0-9_][a-zA-Z0-9_.-]*)`)
	artifactJobPattern = regexp.MustCompile(`^` + regexp.QuoteMeta(config.ArtifactPrefixDevicePerf) + `(\d+)`)
)

// NormalizeJobName extracts a stable model identifier from a job name,
// so jobs match across runs and across workflow re-runs with slightly
// different naming.
func NormalizeJobName(name string) string {
	if m := modelKeyPattern.FindStringSubmatch(name); m != nil {
		return strings.ToLower(m[1])
	}
	if m := perfKeyPattern.FindStringSubmatch(name); m != nil {
		return strings.ToLower(m[1])
	}
	return strings.ToLower(name)
}

// ArtifactIndex maps normalized job names to device-perf artifacts.
// Workflow re-runs re-issue job IDs while artifacts keep the IDs of the
// attempt that uploaded them, so matching goes through the job name of
// the uploading job rather than the current job ID.
type ArtifactIndex map[string]Artifact

// Lookup returns the device-perf artifact for a job name, if any.
func (ix ArtifactIndex) Lookup(jobName string) (Artifact, bool) {
	a, ok := ix[NormalizeJobName(jobName)]
	return a, ok
}

// BuildArtifactIndex lists the run's artifacts once and resolves each
// device-perf artifact back to the name of the job that uploaded it.
// Artifacts that cannot be resolved are skipped.
func BuildArtifactIndex(ctx context.Context, c Client, owner, repo string, runID int64) (ArtifactIndex, error) {
	artifacts, err := c.ListArtifacts(ctx, owner, repo, runID)
	if err != nil {
		return nil, err
	}

	jobs, err := c.ListJobs(ctx, owner, repo, runID)
	if err != nil {
		return nil, err
	}
	jobNameByID := make(map[int64]string, len(jobs))
	for _, j := range jobs {
		jobNameByID[j.ID] = j.Name
	}

	index := make(ArtifactIndex)
	for _, a := range artifacts {
		m := artifactJobPattern.FindStringSubmatch(a.Name)
		if m == nil {
			continue
		}
		jobID, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			continue
		}
		name, ok := jobNameByID[jobID]
		if !ok {
			// Uploading job belongs to an earlier run attempt; resolve
			// it by ID so re-run artifacts still match.
			job, err := c.GetJob(ctx, owner, repo, jobID)
			if err != nil || job == nil {
				logrus.Debugf("artifact %s references unresolvable job %d, skipping", a.Name, jobID)
				continue
			}
			name = job.Name
		}
		index[NormalizeJobName(name)] = a
	}
	return index, nil
}
