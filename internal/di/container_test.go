package di

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/samber/do/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anditianred/ao3-api/internal/config"
	"github.com/anditianred/ao3-api/internal/di/providers"
	"github.com/anditianred/ao3-api/internal/search"
	"github.com/anditianred/ao3-api/internal/sse"
)

func testArgs(t *testing.T, extra ...string) []string {
	t.Helper()
	dir := t.TempDir()
	return append([]string{
		"-env-file", filepath.Join(dir, "missing.env"),
		"-cache-dir", filepath.Join(dir, "cache"),
		"-log-level", "error",
	}, extra...)
}

func TestBootstrap(t *testing.T) {
	injector := NewContainer(testArgs(t, "-workers", "2"))
	t.Cleanup(func() { _ = injector.Shutdown() })
	require.NoError(t, Bootstrap(injector))

	cfg := do.MustInvoke[*config.Config](injector)
	assert.Equal(t, 2, cfg.Runner.Workers)

	tags := do.MustInvoke[*providers.TagIndexHandle](injector)
	assert.NotNil(t, tags.Index)

	searcher := do.MustInvoke[*search.Searcher](injector)
	assert.NotNil(t, searcher)
}

func TestBootstrap_TagIndexDisabled(t *testing.T) {
	injector := NewContainer(testArgs(t, "-tag-index", "false", "-cache-backend", "badger"))
	t.Cleanup(func() { _ = injector.Shutdown() })
	require.NoError(t, Bootstrap(injector))

	tags := do.MustInvoke[*providers.TagIndexHandle](injector)
	assert.Nil(t, tags.Index)
}

func TestSSEManager_StartsRunning(t *testing.T) {
	injector := NewContainer(testArgs(t))
	t.Cleanup(func() { _ = injector.Shutdown() })

	events, err := do.Invoke[*providers.SSEManagerHandle](injector)
	require.NoError(t, err)

	client, err := events.Connect("")
	require.NoError(t, err)
	events.Emit(sse.NewJobEvent(sse.EventJobSubmitted, "search-1", nil))

	select {
	case e := <-client.EventChan:
		assert.Equal(t, "search-1", e.JobID)
	case <-time.After(2 * time.Second):
		t.Fatal("manager is not broadcasting")
	}

	require.NoError(t, events.Shutdown())
	_, err = events.Connect("")
	assert.ErrorIs(t, err, sse.ErrShutdown)
}

func TestBootstrap_InvalidConfig(t *testing.T) {
	injector := NewContainer(testArgs(t, "-cache-backend", "redis"))
	err := Bootstrap(injector)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cache backend")
}
