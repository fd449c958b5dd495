package github

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gherrors "github.com/tenstorrent/gh-perf-report/pkg/errors"
)

func TestRESTClientGetWorkflowRun(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/tenstorrent/tt-xla/actions/runs/42", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		fmt.Fprint(w, `{"id":42,"name":"Nightly Perf","head_branch":"main","created_at":"2026-08-20T10:00:00Z","status":"completed","conclusion":"success"}`)
	}))
	defer server.Close()

	c := NewRESTClientWithBaseURL("test-token", server.URL, 100)
	run, err := c.GetWorkflowRun(context.Background(), "tenstorrent", "tt-xla", 42)
	require.NoError(t, err)
	assert.Equal(t, int64(42), run.ID)
	assert.Equal(t, "Nightly Perf", run.WorkflowName)
}

func TestRESTClientNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	c := NewRESTClientWithBaseURL("", server.URL, 100)
	_, err := c.GetWorkflowRun(context.Background(), "tenstorrent", "tt-xla", 7)
	require.Error(t, err)
	assert.True(t, gherrors.IsNotFound(err))
}

func TestRESTClientServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	c := NewRESTClientWithBaseURL("", server.URL, 100)
	_, err := c.GetWorkflowRun(context.Background(), "tenstorrent", "tt-xla", 42)
	require.Error(t, err)
	assert.True(t, gherrors.IsExternalTool(err))
}

func TestRESTClientListJobsPagination(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("page") {
		case "1":
			fmt.Fprint(w, `{"total_count":2,"jobs":[{"id":201,"name":"tt-xla-resnet benchmark","status":"completed","conclusion":"success"}]}`)
		case "2":
			fmt.Fprint(w, `{"total_count":2,"jobs":[{"id":202,"name":"tt-xla-vgg benchmark","status":"completed","conclusion":"success"}]}`)
		default:
			t.Errorf("unexpected page %q", r.URL.Query().Get("page"))
		}
	}))
	defer server.Close()

	c := NewRESTClientWithBaseURL("", server.URL, 100)
	jobs, err := c.ListJobs(context.Background(), "tenstorrent", "tt-xla", 42)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, int64(201), jobs[0].ID)
	assert.Equal(t, int64(202), jobs[1].ID)
}

func TestRESTClientFetchJobLogRedirect(t *testing.T) {
	logServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// pre-signed URLs must not carry the API credentials
		assert.Empty(t, r.Header.Get("Authorization"))
		fmt.Fprint(w, "Samples per second: 100\n")
	}))
	defer logServer.Close()

	apiServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, logServer.URL+"/signed-log", http.StatusFound)
	}))
	defer apiServer.Close()

	c := NewRESTClientWithBaseURL("test-token", apiServer.URL, 100)
	logs, err := c.FetchJobLog(context.Background(), "tenstorrent", "tt-xla", 201)
	require.NoError(t, err)
	assert.Contains(t, logs, "Samples per second")
}
