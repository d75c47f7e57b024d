package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/anditianred/ao3-api/internal/cache"
	domainerrors "github.com/anditianred/ao3-api/internal/errors"
	"github.com/anditianred/ao3-api/internal/query"
)

func (s *Server) registerCacheRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listCacheEntries",
		Method:      http.MethodGet,
		Path:        "/api/v1/cache",
		Summary:     "List cached pages",
		Description: "Returns every cached search page key with when it was stored, oldest first",
		Tags:        []string{"Cache"},
	}, s.handleListCache)

	huma.Register(s.api, huma.Operation{
		OperationID:   "removeCacheEntry",
		Method:        http.MethodDelete,
		Path:          "/api/v1/cache/{key}",
		Summary:       "Remove a cached page",
		Description:   "Drops one page so the next search for it fetches again. Removing an absent key succeeds.",
		Tags:          []string{"Cache"},
		DefaultStatus: http.StatusNoContent,
	}, s.handleRemoveCache)
}

// === DTOs ===

// CacheListResponse lists cache entries.
type CacheListResponse struct {
	Entries []cache.Entry `json:"entries" doc:"Cached pages, oldest first"`
	Total   int           `json:"total" doc:"Number of entries"`
}

// CacheListOutput wraps the cache listing for Huma.
type CacheListOutput struct {
	Body CacheListResponse
}

// CacheKeyInput names a cache entry.
type CacheKeyInput struct {
	Key string `path:"key" doc:"Query fingerprint, 32 hex characters"`
}

// === Handlers ===

func (s *Server) handleListCache(ctx context.Context, _ *struct{}) (*CacheListOutput, error) {
	entries, err := s.services.Cache.Entries(ctx)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to list cache")
	}
	return &CacheListOutput{Body: CacheListResponse{Entries: entries, Total: len(entries)}}, nil
}

func (s *Server) handleRemoveCache(ctx context.Context, input *CacheKeyInput) (*struct{}, error) {
	key := query.Key(input.Key)
	if !key.Valid() {
		return nil, domainerrors.Validationf("malformed cache key %q", input.Key)
	}
	if err := s.services.Cache.Remove(ctx, key); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to remove cache entry")
	}
	s.logger.Info("cache entry removed", "key", key)
	return nil, nil
}
