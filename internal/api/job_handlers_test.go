package api

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (ts *testServer) waitForJob(t *testing.T, id string) JobResponse {
	t.Helper()
	var job JobResponse
	require.Eventually(t, func() bool {
		resp := ts.api.Get("/api/v1/search/jobs/" + id)
		if resp.Code != http.StatusOK {
			return false
		}
		job = decode[JobResponse](t, resp.Body.Bytes()).Data
		return job.Status != jobRunning
	}, 5*time.Second, 20*time.Millisecond)
	return job
}

func TestJobs_SubmitAndPoll(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/search/jobs?q=owls&kudos=%3E10")
	require.Equal(t, http.StatusAccepted, resp.Code, resp.Body.String())

	submitted := decode[JobResponse](t, resp.Body.Bytes()).Data
	assert.NotEmpty(t, submitted.ID)
	assert.False(t, submitted.SubmittedAt.IsZero())

	job := ts.waitForJob(t, submitted.ID)
	assert.Equal(t, jobDone, job.Status)
	require.NotNil(t, job.Result)
	assert.Len(t, job.Result.Items, 2)
	assert.Nil(t, job.Error)
}

func TestJobs_FailureIsReported(t *testing.T) {
	ts := setupTestServer(t)
	ts.catalog.status.Store(http.StatusTooManyRequests)

	resp := ts.api.Post("/api/v1/search/jobs?q=busy")
	require.Equal(t, http.StatusAccepted, resp.Code)

	job := ts.waitForJob(t, decode[JobResponse](t, resp.Body.Bytes()).Data.ID)
	assert.Equal(t, jobFailed, job.Status)
	require.NotNil(t, job.Error)
	assert.Equal(t, "RATE_LIMITED", job.Error.Code)
	assert.Nil(t, job.Result)
}

func TestJobs_InvalidQueryIsRejectedUpFront(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/search/jobs?word_count=a-b")
	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "VALIDATION", decode[any](t, resp.Body.Bytes()).Error.Code)
}

func TestJobs_Lookup(t *testing.T) {
	ts := setupTestServer(t)

	tests := []struct {
		name       string
		id         string
		wantStatus int
		wantCode   string
	}{
		{name: "malformed", id: "nope", wantStatus: http.StatusBadRequest, wantCode: "VALIDATION"},
		{name: "unknown", id: "search-0000000000000000", wantStatus: http.StatusNotFound, wantCode: "NOT_FOUND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.api.Get("/api/v1/search/jobs/" + tt.id)
			require.Equal(t, tt.wantStatus, resp.Code)
			assert.Equal(t, tt.wantCode, decode[any](t, resp.Body.Bytes()).Error.Code)
		})
	}
}

func TestJobs_Cancel(t *testing.T) {
	ts := setupTestServer(t)

	// Keep the job waiting on the catalog.
	release := make(chan struct{})
	ts.catalog.gate.Store(&release)
	defer close(release)

	resp := ts.api.Post("/api/v1/search/jobs?q=slow")
	require.Equal(t, http.StatusAccepted, resp.Code)
	id := decode[JobResponse](t, resp.Body.Bytes()).Data.ID

	canceled := ts.api.Delete("/api/v1/search/jobs/" + id)
	require.Equal(t, http.StatusOK, canceled.Code)
	assert.Equal(t, jobCanceled, decode[JobResponse](t, canceled.Body.Bytes()).Data.Status)

	job := ts.waitForJob(t, id)
	assert.Equal(t, jobCanceled, job.Status)
	assert.Nil(t, job.Result)
}
