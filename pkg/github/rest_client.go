package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	gherrors "github.com/tenstorrent/gh-perf-report/pkg/errors"
)

const (
	defaultBaseURL = "https://api.github.com"
	defaultTimeout = 30 * time.Second
)

// RESTClient implements Client directly against the GitHub REST API
// with a bearer token, for environments without the gh binary.
type RESTClient struct {
	baseURL    string
	token      string
	httpClient *resty.Client
	limiter    *rate.Limiter
}

// NewRESTClient returns a REST-backed client authenticated with token.
func NewRESTClient(token string, callsPerSecond float64) *RESTClient {
	return NewRESTClientWithBaseURL(token, defaultBaseURL, callsPerSecond)
}

// NewRESTClientWithBaseURL is NewRESTClient with a custom base URL,
// used by tests against httptest servers.
func NewRESTClientWithBaseURL(token, baseURL string, callsPerSecond float64) *RESTClient {
	client := resty.New().
		SetTimeout(defaultTimeout).
		SetHeader("Accept", "application/vnd.github.v3+json").
		SetHeader("X-GitHub-Api-Version", "2022-11-28")

	if token != "" {
		client.SetHeader("Authorization", "Bearer "+token)
	}

	return &RESTClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		token:      token,
		httpClient: client,
		limiter:    rate.NewLimiter(rate.Limit(callsPerSecond), 1),
	}
}

func (c *RESTClient) get(ctx context.Context, url string, query map[string]string) (*resty.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req := c.httpClient.R().SetContext(ctx)
	if query != nil {
		req.SetQueryParams(query)
	}
	resp, err := req.Get(url)
	if err != nil {
		return nil, gherrors.NewExternalToolError(url, err)
	}
	switch resp.StatusCode() {
	case http.StatusOK:
		return resp, nil
	case http.StatusNotFound:
		return nil, gherrors.NewNotFoundError("resource", url)
	default:
		return nil, gherrors.NewExternalToolError(url, fmt.Errorf("GitHub API error: %s", resp.Status()))
	}
}

// GetWorkflowRun fetches run metadata.
func (c *RESTClient) GetWorkflowRun(ctx context.Context, owner, repo string, runID int64) (*Run, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/actions/runs/%d", c.baseURL, owner, repo, runID)
	resp, err := c.get(ctx, url, nil)
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
	if err := json.Unmarshal(resp.Body(), &raw); err != nil {
		return nil, gherrors.NewExternalToolError(url, fmt.Errorf("invalid JSON response: %w", err))
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

// ListJobs fetches all jobs of a run, following pagination.
func (c *RESTClient) ListJobs(ctx context.Context, owner, repo string, runID int64) ([]Job, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/actions/runs/%d/jobs", c.baseURL, owner, repo, runID)

	var jobs []Job
	for page := 1; ; page++ {
		resp, err := c.get(ctx, url, map[string]string{
			"per_page": "100",
			"page":     fmt.Sprint(page),
		})
		if err != nil {
			if gherrors.IsNotFound(err) {
				return nil, gherrors.NewNotFoundError("run", fmt.Sprint(runID))
			}
			return nil, err
		}

		var body struct {
			TotalCount int      `json:"total_count"`
			Jobs       []rawJob `json:"jobs"`
		}
		if err := json.Unmarshal(resp.Body(), &body); err != nil {
			return nil, gherrors.NewExternalToolError(url, fmt.Errorf("invalid JSON response: %w", err))
		}
		for _, r := range body.Jobs {
			jobs = append(jobs, r.toJob())
		}
		if len(jobs) >= body.TotalCount || len(body.Jobs) == 0 {
			return jobs, nil
		}
	}
}

// GetJob fetches a single job by ID.
func (c *RESTClient) GetJob(ctx context.Context, owner, repo string, jobID int64) (*Job, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/actions/jobs/%d", c.baseURL, owner, repo, jobID)
	resp, err := c.get(ctx, url, nil)
	if err != nil {
		if gherrors.IsNotFound(err) {
			return nil, gherrors.NewNotFoundError("job", fmt.Sprint(jobID))
		}
		return nil, err
	}
	var raw rawJob
	if err := json.Unmarshal(resp.Body(), &raw); err != nil {
		return nil, gherrors.NewExternalToolError(url, fmt.Errorf("invalid JSON response: %w", err))
	}
	job := raw.toJob()
	return &job, nil
}

// FetchJobLog fetches a job log. GitHub answers with a 302 to a
// time-limited URL, so redirects are handled by hand: the pre-signed
// URL must be fetched without the Authorization header.
func (c *RESTClient) FetchJobLog(ctx context.Context, owner, repo string, jobID int64) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}
	url := fmt.Sprintf("%s/repos/%s/%s/actions/jobs/%d/logs", c.baseURL, owner, repo, jobID)

	noRedirect := resty.New().
		SetTimeout(defaultTimeout).
		SetHeader("Accept", "application/vnd.github.v3+json").
		SetHeader("X-GitHub-Api-Version", "2022-11-28").
		SetRedirectPolicy(resty.NoRedirectPolicy())
	if c.token != "" {
		noRedirect.SetHeader("Authorization", "Bearer "+c.token)
	}

	resp, err := noRedirect.R().SetContext(ctx).Get(url)
	if resp != nil && resp.StatusCode() == http.StatusFound {
		location := resp.Header().Get("Location")
		if location != "" {
			return c.fetchLogFromURL(ctx, location)
		}
	}
	if err != nil {
		return "", gherrors.NewExternalToolError(url, err)
	}
	switch resp.StatusCode() {
	case http.StatusOK:
		return string(resp.Body()), nil
	case http.StatusNotFound:
		return "", gherrors.NewNotFoundError("job", fmt.Sprint(jobID))
	default:
		return "", gherrors.NewExternalToolError(url, fmt.Errorf("GitHub API error: %s", resp.Status()))
	}
}

func (c *RESTClient) fetchLogFromURL(ctx context.Context, url string) (string, error) {
	client := resty.New().SetTimeout(60 * time.Second)
	resp, err := client.R().SetContext(ctx).Get(url)
	if err != nil {
		return "", gherrors.NewExternalToolError(url, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", gherrors.NewExternalToolError(url, fmt.Errorf("fetching log: %s", resp.Status()))
	}
	return string(resp.Body()), nil
}

// ListArtifacts fetches all artifacts of a run, following pagination.
func (c *RESTClient) ListArtifacts(ctx context.Context, owner, repo string, runID int64) ([]Artifact, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/actions/runs/%d/artifacts", c.baseURL, owner, repo, runID)

	var artifacts []Artifact
	for page := 1; ; page++ {
		resp, err := c.get(ctx, url, map[string]string{
			"per_page": "100",
			"page":     fmt.Sprint(page),
		})
		if err != nil {
			if gherrors.IsNotFound(err) {
				return nil, gherrors.NewNotFoundError("run", fmt.Sprint(runID))
			}
			return nil, err
		}

		var body struct {
			TotalCount int        `json:"total_count"`
			Artifacts  []Artifact `json:"artifacts"`
		}
		if err := json.Unmarshal(resp.Body(), &body); err != nil {
			return nil, gherrors.NewExternalToolError(url, fmt.Errorf("invalid JSON response: %w", err))
		}
		artifacts = append(artifacts, body.Artifacts...)
		if len(artifacts) >= body.TotalCount || len(body.Artifacts) == 0 {
			return artifacts, nil
		}
	}
}

// DownloadArtifact writes the artifact ZIP to destPath.
func (c *RESTClient) DownloadArtifact(ctx context.Context, owner, repo string, artifactID int64, destPath string) error {
	url := fmt.Sprintf("%s/repos/%s/%s/actions/artifacts/%d/zip", c.baseURL, owner, repo, artifactID)
	resp, err := c.get(ctx, url, nil)
	if err != nil {
		if gherrors.IsNotFound(err) {
			return gherrors.NewNotFoundError("artifact", fmt.Sprint(artifactID))
		}
		return err
	}
	if err := os.WriteFile(destPath, resp.Body(), 0o644); err != nil {
		return fmt.Errorf("writing artifact to %s: %w", destPath, err)
	}
	return nil
}

var _ Client = (*RESTClient)(nil)
