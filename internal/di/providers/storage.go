package providers

import (
	"log/slog"

	"github.com/samber/do/v2"

	"github.com/anditianred/ao3-api/internal/cache"
	"github.com/anditianred/ao3-api/internal/config"
)

// CacheHandle wraps the page cache with shutdown capability.
type CacheHandle struct {
	*cache.Cache
}

// Shutdown implements do.Shutdownable.
func (h *CacheHandle) Shutdown() error {
	return h.Close()
}

// ProvideCache provides the page cache.
func ProvideCache(i do.Injector) (*CacheHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*slog.Logger](i)

	c, err := cache.Open(cache.Options{
		Dir:     cfg.Cache.Dir,
		Backend: cfg.Cache.Backend,
		MaxAge:  cfg.Cache.MaxAge,
		Logger:  log,
	})
	if err != nil {
		return nil, err
	}

	return &CacheHandle{Cache: c}, nil
}
