package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anditianred/ao3-api/internal/search"
)

func TestCache_ListAndRemove(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/search?q=owls")
	require.Equal(t, http.StatusOK, resp.Code)
	key := decode[search.Result](t, resp.Body.Bytes()).Data.Key

	list := decode[CacheListResponse](t, ts.api.Get("/api/v1/cache").Body.Bytes()).Data
	require.Equal(t, 1, list.Total)
	assert.Equal(t, key, list.Entries[0].Key)
	assert.False(t, list.Entries[0].Stale)

	removed := ts.api.Delete("/api/v1/cache/" + string(key))
	require.Equal(t, http.StatusNoContent, removed.Code, removed.Body.String())

	list = decode[CacheListResponse](t, ts.api.Get("/api/v1/cache").Body.Bytes()).Data
	assert.Zero(t, list.Total)

	// The next search fetches again.
	again := ts.api.Get("/api/v1/search?q=owls")
	require.Equal(t, http.StatusOK, again.Code)
	assert.False(t, decode[search.Result](t, again.Body.Bytes()).Data.Cached)
	assert.EqualValues(t, 2, ts.catalog.requests.Load())
}

func TestCache_RemoveAbsentKey(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Delete("/api/v1/cache/00112233445566778899aabbccddeeff")
	assert.Equal(t, http.StatusNoContent, resp.Code)
}

func TestCache_RemoveMalformedKey(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Delete("/api/v1/cache/not-a-key")
	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "VALIDATION", decode[any](t, resp.Body.Bytes()).Error.Code)
}
