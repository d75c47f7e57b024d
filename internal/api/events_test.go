package api

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anditianred/ao3-api/internal/sse"
)

func newEventManager(t *testing.T) *sse.Manager {
	t.Helper()
	m := sse.NewManager(slog.New(slog.NewTextHandler(io.Discard, nil)))
	m.Start(context.Background())
	t.Cleanup(func() { _ = m.Shutdown(context.Background()) })
	return m
}

func nextEvent(t *testing.T, c *sse.Client) sse.Event {
	t.Helper()
	select {
	case e := <-c.EventChan:
		return e
	case <-time.After(5 * time.Second):
		t.Fatal("no job event")
		return sse.Event{}
	}
}

func TestJobEvents_FinishedJob(t *testing.T) {
	events := newEventManager(t)
	ts := setupTestServer(t, withEvents(events))

	client, err := events.Connect("")
	require.NoError(t, err)

	resp := ts.api.Post("/api/v1/search/jobs?q=owls")
	require.Equal(t, http.StatusAccepted, resp.Code, resp.Body.String())
	id := decode[JobResponse](t, resp.Body.Bytes()).Data.ID

	submitted := nextEvent(t, client)
	assert.Equal(t, sse.EventJobSubmitted, submitted.Type)
	assert.Equal(t, id, submitted.JobID)

	finished := nextEvent(t, client)
	assert.Equal(t, sse.EventJobFinished, finished.Type)
	assert.Equal(t, id, finished.JobID)
	summary, ok := finished.Data.(jobSummary)
	require.True(t, ok, "data: %#v", finished.Data)
	assert.Equal(t, 2, summary.Items)
	assert.Equal(t, 1234, summary.TotalCount)
}

func TestJobEvents_FailedJob(t *testing.T) {
	events := newEventManager(t)
	ts := setupTestServer(t, withEvents(events))
	ts.catalog.status.Store(http.StatusTooManyRequests)

	client, err := events.Connect("")
	require.NoError(t, err)

	resp := ts.api.Post("/api/v1/search/jobs?q=busy")
	require.Equal(t, http.StatusAccepted, resp.Code)

	assert.Equal(t, sse.EventJobSubmitted, nextEvent(t, client).Type)
	failed := nextEvent(t, client)
	assert.Equal(t, sse.EventJobFailed, failed.Type)
	apiErr, ok := failed.Data.(*APIError)
	require.True(t, ok, "data: %#v", failed.Data)
	assert.Equal(t, "RATE_LIMITED", apiErr.Code)
}

func TestJobEvents_CanceledJob(t *testing.T) {
	events := newEventManager(t)
	ts := setupTestServer(t, withEvents(events))

	release := make(chan struct{})
	ts.catalog.gate.Store(&release)
	defer close(release)

	resp := ts.api.Post("/api/v1/search/jobs?q=slow")
	require.Equal(t, http.StatusAccepted, resp.Code)
	id := decode[JobResponse](t, resp.Body.Bytes()).Data.ID

	client, err := events.Connect(id)
	require.NoError(t, err)

	require.Equal(t, http.StatusOK, ts.api.Delete("/api/v1/search/jobs/"+id).Code)
	got := nextEvent(t, client)
	assert.Equal(t, sse.EventJobCanceled, got.Type)
	assert.Equal(t, id, got.JobID)

	// A second cancel is a no-op and emits nothing.
	require.Equal(t, http.StatusOK, ts.api.Delete("/api/v1/search/jobs/"+id).Code)
	select {
	case e := <-client.EventChan:
		t.Fatalf("unexpected event %+v", e)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestJobEvents_StreamRoute(t *testing.T) {
	events := newEventManager(t)
	ts := setupTestServer(t, withEvents(events))
	srv := httptest.NewServer(ts.Server)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/search/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	var first sse.Event
	for {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		if data, ok := strings.CutPrefix(strings.TrimSpace(line), "data: "); ok {
			require.NoError(t, json.Unmarshal([]byte(data), &first))
			break
		}
	}
	assert.Equal(t, sse.EventConnected, first.Type)
}

func TestJobEvents_RouteAbsentWithoutManager(t *testing.T) {
	ts := setupTestServer(t)
	resp := ts.api.Get("/api/v1/search/events")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}
