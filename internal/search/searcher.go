// Package search runs catalog searches through the page cache: build the
// request, reuse a stored page when there is one, fetch and store otherwise,
// then parse the page into works and pagination figures.
package search

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/anditianred/ao3-api/internal/catalog"
	domainerrors "github.com/anditianred/ao3-api/internal/errors"
	"github.com/anditianred/ao3-api/internal/extract"
	"github.com/anditianred/ao3-api/internal/query"
)

// PageSize is the number of works the catalog lists per results page.
const PageSize = 20

// Fetcher retrieves a page from the catalog.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// PageCache stores raw result pages by query fingerprint.
type PageCache interface {
	Lookup(ctx context.Context, key query.Key) ([]byte, bool)
	Store(ctx context.Context, key query.Key, content []byte, now time.Time) error
	Remove(ctx context.Context, key query.Key) error
}

// Indexer receives the works of every parsed page.
type Indexer interface {
	IndexWorks(ctx context.Context, works []extract.Work) error
}

// Result is one page of search results.
type Result struct {
	Key        query.Key      `json:"key"`
	Page       int            `json:"page"`
	Items      []extract.Work `json:"items"`
	TotalCount int            `json:"total_count"`
	PageCount  int            `json:"page_count"`
	Cached     bool           `json:"cached"`
}

// PageCount returns how many pages total results span.
func PageCount(total int) int {
	if total <= 0 {
		return 0
	}
	return (total + PageSize - 1) / PageSize
}

// Searcher runs searches against the catalog through a page cache.
type Searcher struct {
	fetcher Fetcher
	cache   PageCache
	indexer Indexer
	baseURL string
	logger  *slog.Logger
	now     func() time.Time
}

// NewSearcher creates a searcher. indexer may be nil.
func NewSearcher(
	fetcher Fetcher,
	cache PageCache,
	indexer Indexer,
	baseURL string,
	logger *slog.Logger,
) *Searcher {
	return &Searcher{
		fetcher: fetcher,
		cache:   cache,
		indexer: indexer,
		baseURL: baseURL,
		logger:  logger,
		now:     time.Now,
	}
}

// Search returns the results page for q, from the cache when possible.
//
// Errors are domain errors: VALIDATION for a malformed query, RATE_LIMITED
// when the catalog refuses the request (nothing is stored and the request is
// not retried), FETCH_FAILED for any other fetch failure and PARSE_FAILED
// when the page is not a results page.
func (s *Searcher) Search(ctx context.Context, q query.SearchQuery) (*Result, error) {
	return s.run(ctx, q, false)
}

// Refresh is Search without the cache lookup; the fetched page replaces
// any stored one.
func (s *Searcher) Refresh(ctx context.Context, q query.SearchQuery) (*Result, error) {
	return s.run(ctx, q, true)
}

func (s *Searcher) run(ctx context.Context, q query.SearchQuery, bypass bool) (*Result, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	key := query.Fingerprint(q)
	page := q.Page
	if page == 0 {
		page = 1
	}

	var (
		raw    []byte
		cached bool
	)
	if !bypass {
		raw, cached = s.cache.Lookup(ctx, key)
	}

	if cached {
		s.logger.Debug("search cache hit", "key", key, "page", page)
	} else {
		url := query.SearchURL(s.baseURL, q)
		s.logger.Debug("fetching search page", "key", key, "page", page, "refresh", bypass)

		body, err := s.fetcher.Fetch(ctx, url)
		if err != nil {
			return nil, fetchError(err)
		}
		raw = body

		// Canceling the search stops delivery, not the write of a page
		// that was already fetched.
		if err := s.cache.Store(context.WithoutCancel(ctx), key, raw, s.now()); err != nil {
			s.logger.Warn("failed to cache search page",
				"error", err,
				"key", key,
			)
			// Don't fail the request
		}
	}

	parsed, err := extract.ParseResultsPage(raw)
	if err != nil {
		// An unparseable page would otherwise be served from the cache forever.
		if rmErr := s.cache.Remove(context.WithoutCancel(ctx), key); rmErr != nil {
			s.logger.Warn("failed to evict unparseable page", "error", rmErr, "key", key)
		}
		return nil, domainerrors.ParseFailed("search results page could not be read").WithCause(err)
	}

	if s.indexer != nil && len(parsed.Works) > 0 {
		if err := s.indexer.IndexWorks(ctx, parsed.Works); err != nil {
			s.logger.Warn("failed to index works",
				"error", err,
				"key", key,
				"count", len(parsed.Works),
			)
		}
	}

	return &Result{
		Key:        key,
		Page:       page,
		Items:      parsed.Works,
		TotalCount: parsed.Total,
		PageCount:  PageCount(parsed.Total),
		Cached:     cached,
	}, nil
}

func fetchError(err error) error {
	switch {
	case errors.Is(err, catalog.ErrRateLimited):
		return domainerrors.RateLimited("catalog is rate limiting requests, try again later").WithCause(err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return domainerrors.FetchFailed("catalog request failed").WithCause(err)
	}
}
