package sse

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
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startManager(t *testing.T) *Manager {
	t.Helper()
	m := NewManager(testLogger())
	m.Start(context.Background())
	t.Cleanup(func() { _ = m.Shutdown(context.Background()) })
	return m
}

func receive(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case e := <-c.EventChan:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
		return Event{}
	}
}

func TestManager_FiltersByJob(t *testing.T) {
	m := startManager(t)

	all, err := m.Connect("")
	require.NoError(t, err)
	one, err := m.Connect("search-a")
	require.NoError(t, err)
	assert.Equal(t, 2, m.ClientCount())

	m.Emit(NewJobEvent(EventJobSubmitted, "search-b", nil))
	m.Emit(NewJobEvent(EventJobFinished, "search-a", nil))

	assert.Equal(t, "search-b", receive(t, all).JobID)
	assert.Equal(t, "search-a", receive(t, all).JobID)

	got := receive(t, one)
	assert.Equal(t, EventJobFinished, got.Type)
	assert.Equal(t, "search-a", got.JobID)
	select {
	case e := <-one.EventChan:
		t.Fatalf("unexpected event %+v", e)
	default:
	}
}

func TestManager_Disconnect(t *testing.T) {
	m := startManager(t)

	c, err := m.Connect("")
	require.NoError(t, err)
	m.Disconnect(c.ID)
	m.Disconnect(c.ID)

	assert.Zero(t, m.ClientCount())
	select {
	case <-c.Done:
	default:
		t.Fatal("done not closed")
	}
}

func TestManager_Shutdown(t *testing.T) {
	m := NewManager(testLogger())
	m.Start(context.Background())

	c, err := m.Connect("")
	require.NoError(t, err)

	require.NoError(t, m.Shutdown(context.Background()))
	require.NoError(t, m.Shutdown(context.Background()))

	<-c.Done
	m.Emit(NewJobEvent(EventJobFailed, "search-x", nil))

	_, err = m.Connect("")
	assert.ErrorIs(t, err, ErrShutdown)
}

func TestHandler_StreamsJobEvents(t *testing.T) {
	m := startManager(t)
	srv := httptest.NewServer(NewHandler(m, time.Hour, testLogger()))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"?job=search-a", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	events := make(chan Event, 4)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			data, ok := strings.CutPrefix(scanner.Text(), "data: ")
			if !ok {
				continue
			}
			var e Event
			if json.Unmarshal([]byte(data), &e) == nil {
				events <- e
			}
		}
	}()

	next := func() Event {
		select {
		case e := <-events:
			return e
		case <-time.After(2 * time.Second):
			t.Fatal("no event on stream")
			return Event{}
		}
	}

	assert.Equal(t, EventConnected, next().Type)

	m.Emit(NewJobEvent(EventJobSubmitted, "search-b", nil))
	m.Emit(NewJobEvent(EventJobFinished, "search-a", map[string]int{"total_count": 3}))

	got := next()
	assert.Equal(t, EventJobFinished, got.Type)
	assert.Equal(t, "search-a", got.JobID)
	assert.Equal(t, map[string]any{"total_count": float64(3)}, got.Data)
}

func TestHandler_RejectsAfterShutdown(t *testing.T) {
	m := NewManager(testLogger())
	m.Start(context.Background())
	require.NoError(t, m.Shutdown(context.Background()))

	rec := httptest.NewRecorder()
	NewHandler(m, 0, testLogger()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
