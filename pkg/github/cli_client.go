package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	gherrors "github.com/tenstorrent/gh-perf-report/pkg/errors"
)

// commandRunner executes the gh binary. Tests substitute a fake.
type commandRunner interface {
	Run(ctx context.Context, args ...string) (stdout []byte, err error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "gh", args...)
	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf
	if err := cmd.Run(); err != nil {
		stderr := strings.TrimSpace(errBuf.String())
		if stderr != "" {
			return nil, fmt.Errorf("%w: %s", err, stderr)
		}
		return nil, err
	}
	return out.Bytes(), nil
}

// CLIClient implements Client on top of the separately authenticated
// gh binary. Each API call is attempted once; transient failures
// surface directly to the caller.
type CLIClient struct {
	runner  commandRunner
	limiter *rate.Limiter
}

// NewCLIClient verifies that gh is installed and authenticated, then
// returns a client rate-limited to callsPerSecond.
func NewCLIClient(callsPerSecond float64) (*CLIClient, error) {
	c := &CLIClient{
		runner:  execRunner{},
		limiter: rate.NewLimiter(rate.Limit(callsPerSecond), 1),
	}
	if err := c.verifyAuth(context.Background()); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *CLIClient) verifyAuth(ctx context.Context) error {
	if _, err := c.runner.Run(ctx, "auth", "status"); err != nil {
		if execErr, ok := err.(*exec.Error); ok && execErr.Err == exec.ErrNotFound {
			return gherrors.NewExternalToolError("auth status",
				fmt.Errorf("gh CLI not found, install from https://cli.github.com/"))
		}
		return gherrors.NewExternalToolError("auth status",
			fmt.Errorf("gh CLI not authenticated, run: gh auth login (%v)", err))
	}
	return nil
}

func (c *CLIClient) api(ctx context.Context, endpoint string, extra ...string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	args := append([]string{"api", endpoint}, extra...)
	logrus.Debugf("gh %s", strings.Join(args, " "))
	out, err := c.runner.Run(ctx, args...)
	if err != nil {
		if isNotFound(err) {
			return nil, gherrors.NewNotFoundError("resource", endpoint)
		}
		return nil, gherrors.NewExternalToolError(endpoint, err)
	}
	return out, nil
}

func isNotFound(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "HTTP 404") || strings.Contains(msg, "Not Found")
}

// GetWorkflowRun fetches run metadata via gh api.
func (c *CLIClient) GetWorkflowRun(ctx context.Context, owner, repo string, runID int64) (*Run, error) {
	endpoint := fmt.Sprintf("repos/%s/%s/actions/runs/%d", owner, repo, runID)
	out, err := c.api(ctx, endpoint)
	if err != nil {
		if gherrors.IsNotFound(err) {
			return nil, gherrors.NewNotFoundError("run", fmt.Sprint(runID))
		}
		return nil, err
	}

	var raw struct {
		ID         int64     `json:"id"`
		Name       string    `json:"name"`
		HeadBranch string    `json:"head_branch"`
		CreatedAt  time.Time `json:"created_at"`
		Status     string    `json:"status"`
		Conclusion string    `json:"conclusion"`
	}
	if err := json.Unmarshal(out, &raw); err != nil {
		return nil, gherrors.NewExternalToolError(endpoint, fmt.Errorf("invalid JSON response: %w", err))
	}
	return &Run{
		ID:           raw.ID,
		Owner:        owner,
		Repo:         repo,
		WorkflowName: raw.Name,
		HeadBranch:   raw.HeadBranch,
		CreatedAt:    raw.CreatedAt,
		Status:       raw.Status,
		Conclusion:   raw.Conclusion,
	}, nil
}

type rawJob struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Status     string `json:"status"`
	Conclusion string `json:"conclusion"`
	Steps      []struct {
		Name       string `json:"name"`
		Number     int    `json:"number"`
		Status     string `json:"status"`
		Conclusion string `json:"conclusion"`
	} `json:"steps"`
}

func (r rawJob) toJob() Job {
	j := Job{
		ID:         r.ID,
		Name:       r.Name,
		Status:     r.Status,
		Conclusion: r.Conclusion,
		Steps:      make([]Step, len(r.Steps)),
	}
	for i, s := range r.Steps {
		j.Steps[i] = Step{Name: s.Name, Number: s.Number, Status: s.Status, Conclusion: s.Conclusion}
	}
	return j
}

// ListJobs fetches all jobs of a run. gh --paginate with --jq emits one
// JSON array per page; pages are concatenated line by line.
func (c *CLIClient) ListJobs(ctx context.Context, owner, repo string, runID int64) ([]Job, error) {
	endpoint := fmt.Sprintf("repos/%s/%s/actions/runs/%d/jobs?per_page=100", owner, repo, runID)
	out, err := c.api(ctx, endpoint, "--paginate", "--jq", ".jobs")
	if err != nil {
		if gherrors.IsNotFound(err) {
			return nil, gherrors.NewNotFoundError("run", fmt.Sprint(runID))
		}
		return nil, err
	}

	var jobs []Job
	for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		if line == "" {
			continue
		}
		var page []rawJob
		if err := json.Unmarshal([]byte(line), &page); err != nil {
			return nil, gherrors.NewExternalToolError(endpoint, fmt.Errorf("invalid JSON response: %w", err))
		}
		for _, r := range page {
			jobs = append(jobs, r.toJob())
		}
	}
	return jobs, nil
}

// GetJob fetches a single job by ID.
func (c *CLIClient) GetJob(ctx context.Context, owner, repo string, jobID int64) (*Job, error) {
	endpoint := fmt.Sprintf("repos/%s/%s/actions/jobs/%d", owner, repo, jobID)
	out, err := c.api(ctx, endpoint)
	if err != nil {
		if gherrors.IsNotFound(err) {
			return nil, gherrors.NewNotFoundError("job", fmt.Sprint(jobID))
		}
		return nil, err
	}
	var raw rawJob
	if err := json.Unmarshal(out, &raw); err != nil {
		return nil, gherrors.NewExternalToolError(endpoint, fmt.Errorf("invalid JSON response: %w", err))
	}
	job := raw.toJob()
	return &job, nil
}

// FetchJobLog fetches the full log text of a job.
func (c *CLIClient) FetchJobLog(ctx context.Context, owner, repo string, jobID int64) (string, error) {
	endpoint := fmt.Sprintf("repos/%s/%s/actions/jobs/%d/logs", owner, repo, jobID)
	out, err := c.api(ctx, endpoint)
	if err != nil {
		if gherrors.IsNotFound(err) {
			return "", gherrors.NewNotFoundError("job", fmt.Sprint(jobID))
		}
		return "", err
	}
	return string(out), nil
}

// ListArtifacts fetches all artifacts of a run.
func (c *CLIClient) ListArtifacts(ctx context.Context, owner, repo string, runID int64) ([]Artifact, error) {
	endpoint := fmt.Sprintf("repos/%s/%s/actions/runs/%d/artifacts", owner, repo, runID)
	out, err := c.api(ctx, endpoint, "--paginate", "--jq", ".artifacts")
	if err != nil {
		if gherrors.IsNotFound(err) {
			return nil, gherrors.NewNotFoundError("run", fmt.Sprint(runID))
		}
		return nil, err
	}

	var artifacts []Artifact
	for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		if line == "" {
			continue
		}
		var page []Artifact
		if err := json.Unmarshal([]byte(line), &page); err != nil {
			return nil, gherrors.NewExternalToolError(endpoint, fmt.Errorf("invalid JSON response: %w", err))
		}
		artifacts = append(artifacts, page...)
	}
	return artifacts, nil
}

// DownloadArtifact writes the artifact ZIP to destPath.
func (c *CLIClient) DownloadArtifact(ctx context.Context, owner, repo string, artifactID int64, destPath string) error {
	endpoint := fmt.Sprintf("repos/%s/%s/actions/artifacts/%d/zip", owner, repo, artifactID)
	out, err := c.api(ctx, endpoint)
	if err != nil {
		if gherrors.IsNotFound(err) {
			return gherrors.NewNotFoundError("artifact", fmt.Sprint(artifactID))
		}
		return err
	}
	if err := os.WriteFile(destPath, out, 0o644); err != nil {
		return fmt.Errorf("writing artifact to %s: %w", destPath, err)
	}
	return nil
}

var _ Client = (*CLIClient)(nil)
