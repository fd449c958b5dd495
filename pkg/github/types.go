package github

import "time"

// Run represents a workflow run, immutable once fetched.
type Run struct {
	ID           int64     `json:"id"`
	Owner        string    `json:"owner"`
	Repo         string    `json:"repo"`
	WorkflowName string    `json:"name"`
	HeadBranch   string    `json:"head_branch"`
	CreatedAt    time.Time `json:"created_at"`
	Status       string    `json:"status"`     // queued, in_progress, completed
	Conclusion   string    `json:"conclusion"` // success, failure, cancelled, skipped
}

// RepoPath returns "owner/repo".
func (r *Run) RepoPath() string {
	return r.Owner + "/" + r.Repo
}

// Job represents a job within a workflow run. The name is the join key
// for run-to-run comparison and is assumed unique within a run.
type Job struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Status     string `json:"status"`
	Conclusion string `json:"conclusion"`
	Steps      []Step `json:"steps"`
}

// Step represents a named phase within a job, used for failure
// attribution and for scoping log-line search.
type Step struct {
	Name       string `json:"name"`
	Number     int    `json:"number"`
	Status     string `json:"status"`
	Conclusion string `json:"conclusion"`
}

// FailedStep returns the name of the first failed step, or "".
func (j *Job) FailedStep() string {
	for _, s := range j.Steps {
		if s.Conclusion == "failure" {
			return s.Name
		}
	}
	return ""
}

// Artifact represents an uploaded workflow artifact.
type Artifact struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	SizeBytes int64  `json:"size_in_bytes"`
}
