package catalog

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := New(Options{BaseURL: server.URL, RPS: 1000, Burst: 100},
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	client.http = server.Client()
	t.Cleanup(client.Close)

	return client, server
}

func TestClient_Fetch(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantBody   string
		wantErr    error
		wantStatus int
	}{
		{name: "ok", status: http.StatusOK, body: "<html>ok</html>", wantBody: "<html>ok</html>"},
		{name: "not found", status: http.StatusNotFound, wantErr: ErrNotFound, wantStatus: 404},
		{name: "rate limited", status: http.StatusTooManyRequests, wantErr: ErrRateLimited, wantStatus: 429},
		{name: "server error", status: http.StatusBadGateway, wantErr: ErrServer, wantStatus: 502},
		{name: "other status", status: http.StatusForbidden, wantStatus: 403},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/works/search", r.URL.Path)
				assert.NotEmpty(t, r.Header.Get("User-Agent"))
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			body, err := client.Fetch(context.Background(), server.URL+"/works/search?work_search%5Bquery%5D=+")
			if tt.wantBody != "" {
				require.NoError(t, err)
				assert.Equal(t, tt.wantBody, string(body))
				return
			}

			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			var catErr *Error
			require.True(t, errors.As(err, &catErr))
			assert.Equal(t, "fetch", catErr.Op)
			assert.Equal(t, tt.wantStatus, catErr.Status)
			assert.Nil(t, body)
		})
	}
}

func TestClient_FetchRejectsOversizedBody(t *testing.T) {
	client, server := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, strings.Repeat("x", maxBodySize+10))
	})

	_, err := client.Fetch(context.Background(), server.URL+"/works/search")
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestClient_FetchStatusWinsOverOversizedBody(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{name: "rate limited", status: http.StatusTooManyRequests, wantErr: ErrRateLimited},
		{name: "server error", status: http.StatusServiceUnavailable, wantErr: ErrServer},
		{name: "not found", status: http.StatusNotFound, wantErr: ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, server := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, strings.Repeat("x", maxBodySize+10))
			})

			_, err := client.Fetch(context.Background(), server.URL+"/works/search")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.NotErrorIs(t, err, ErrTooLarge)
		})
	}
}

func TestClient_FetchHonoursContext(t *testing.T) {
	client, server := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Fetch(ctx, server.URL+"/works/search")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNew_Defaults(t *testing.T) {
	client := New(Options{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	defer client.Close()

	assert.Equal(t, DefaultBaseURL, client.BaseURL())
	assert.Equal(t, defaultUserAgent, client.userAgent)
	assert.Equal(t, defaultTimeout, client.http.Timeout)
}

func TestIsRateLimited(t *testing.T) {
	assert.True(t, IsRateLimited(wrapError("fetch", "u", 429, ErrRateLimited)))
	assert.False(t, IsRateLimited(wrapError("fetch", "u", 500, ErrServer)))
}
