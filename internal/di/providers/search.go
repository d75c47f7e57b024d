package providers

import (
	"log/slog"

	"github.com/samber/do/v2"

	"github.com/anditianred/ao3-api/internal/catalog"
	"github.com/anditianred/ao3-api/internal/config"
	"github.com/anditianred/ao3-api/internal/search"
	"github.com/anditianred/ao3-api/internal/tagindex"
)

// TagIndexHandle wraps the tag index with shutdown capability.
type TagIndexHandle struct {
	Index *tagindex.Index // nil when the tag index is disabled
}

// Shutdown implements do.Shutdownable.
func (h *TagIndexHandle) Shutdown() error {
	if h.Index == nil {
		return nil
	}
	return h.Index.Close()
}

// ProvideTagIndex provides the Bleve tag index, or an empty handle when
// indexing is turned off.
func ProvideTagIndex(i do.Injector) (*TagIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*slog.Logger](i)

	if !cfg.TagIndex.Enabled {
		log.Info("Tag index disabled by configuration")
		return &TagIndexHandle{}, nil
	}

	index, err := tagindex.Open(tagindex.Options{
		DataPath: cfg.TagIndex.Path,
		Logger:   log,
	})
	if err != nil {
		return nil, err
	}

	docCount, _ := index.DocumentCount()
	log.Info("Tag index initialized", "documents", docCount)

	return &TagIndexHandle{Index: index}, nil
}

// CatalogClientHandle wraps the catalog client with shutdown capability.
type CatalogClientHandle struct {
	*catalog.Client
}

// Shutdown implements do.Shutdownable.
func (h *CatalogClientHandle) Shutdown() error {
	h.Close()
	return nil
}

// ProvideCatalogClient provides the rate-limited catalog client.
func ProvideCatalogClient(i do.Injector) (*CatalogClientHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*slog.Logger](i)

	client := catalog.New(catalog.Options{
		BaseURL:   cfg.Catalog.BaseURL,
		Timeout:   cfg.Catalog.Timeout,
		RPS:       cfg.Catalog.RPS,
		Burst:     cfg.Catalog.Burst,
		UserAgent: cfg.Catalog.UserAgent,
	}, log)

	return &CatalogClientHandle{Client: client}, nil
}

// ProvideSearcher provides the cached search pipeline.
func ProvideSearcher(i do.Injector) (*search.Searcher, error) {
	client := do.MustInvoke[*CatalogClientHandle](i)
	pages := do.MustInvoke[*CacheHandle](i)
	tags := do.MustInvoke[*TagIndexHandle](i)
	log := do.MustInvoke[*slog.Logger](i)

	// A nil *tagindex.Index must not become a non-nil Indexer.
	var indexer search.Indexer
	if tags.Index != nil {
		indexer = tags.Index
	}

	return search.NewSearcher(client.Client, pages.Cache, indexer, client.BaseURL(), log), nil
}

// ProvideRunner provides the background search runner.
// *search.Runner implements do.Shutdownable itself.
func ProvideRunner(i do.Injector) (*search.Runner, error) {
	cfg := do.MustInvoke[*config.Config](i)
	searcher := do.MustInvoke[*search.Searcher](i)
	log := do.MustInvoke[*slog.Logger](i)

	return search.NewRunner(searcher.Search,
		search.WithWorkers(cfg.Runner.Workers),
		search.WithRunnerLogger(log),
	)
}
