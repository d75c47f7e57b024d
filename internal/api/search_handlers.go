package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/anditianred/ao3-api/internal/errors"
	"github.com/anditianred/ao3-api/internal/normalize"
	"github.com/anditianred/ao3-api/internal/query"
	"github.com/anditianred/ao3-api/internal/search"
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "search",
		Method:      http.MethodGet,
		Path:        "/api/v1/search",
		Summary:     "Search works",
		Description: "Runs a catalog work search, answering from the page cache when the same query was seen before",
		Tags:        []string{"Search"},
	}, s.handleSearch)
}

// === DTOs ===

// SearchParams are the query string fields of a catalog search.
type SearchParams struct {
	Query         string `query:"q" doc:"Text matched against any field"`
	Title         string `query:"title" doc:"Work title"`
	Author        string `query:"author" doc:"Creator name"`
	SingleChapter bool   `query:"single_chapter" doc:"Only single-chapter works"`
	WordCount     string `query:"word_count" doc:"Word count: n, <n, >n or a-b"`
	Language      string `query:"language" doc:"Language id or English name, e.g. en or German"`
	Fandoms       string `query:"fandoms" doc:"Comma-separated fandom names"`
	Characters    string `query:"characters" doc:"Comma-separated character names"`
	Relationships string `query:"relationships" doc:"Comma-separated relationship names"`
	Tags          string `query:"tags" doc:"Comma-separated additional tags"`
	ExcludedTags  string `query:"excluded_tags" doc:"Comma-separated tags to exclude"`
	Rating        string `query:"rating" doc:"general, teen, mature, explicit, not_rated or a rating id"`
	Hits          string `query:"hits" doc:"Hits: n, <n, >n or a-b"`
	Kudos         string `query:"kudos" doc:"Kudos: n, <n, >n or a-b"`
	Bookmarks     string `query:"bookmarks" doc:"Bookmarks: n, <n, >n or a-b"`
	Comments      string `query:"comments" doc:"Comments: n, <n, >n or a-b"`
	Crossover     string `query:"crossover" doc:"true, false or any"`
	Complete      string `query:"complete" doc:"true, false or any"`
	Page          int    `query:"page" doc:"Results page, starting at 1"`
	SortColumn    string `query:"sort_column" doc:"Catalog sort column, e.g. kudos_count"`
	SortDirection string `query:"sort_direction" doc:"asc or desc"`
	RevisedAt     string `query:"revised_at" doc:"Catalog date filter, e.g. '<2 weeks'"`
}

// SearchInput contains parameters for a foreground search.
type SearchInput struct {
	SearchParams
	Refresh bool `query:"refresh" doc:"Skip the cache and fetch the page again"`
}

// SearchOutput wraps the search result for Huma.
type SearchOutput struct {
	Body *search.Result
}

// toQuery converts the parameters, collecting every malformed field.
func (p *SearchParams) toQuery() (query.SearchQuery, error) {
	q := query.New()
	q.AnyField = p.Query
	q.Title = p.Title
	q.Author = p.Author
	q.SingleChapter = p.SingleChapter
	q.Language = normalize.CatalogLanguage(p.Language)
	q.Fandoms = p.Fandoms
	q.Characters = p.Characters
	q.Relationships = p.Relationships
	q.Freeforms = p.Tags
	q.ExcludedTags = p.ExcludedTags
	q.SortColumn = query.SortColumn(p.SortColumn)
	q.SortDirection = query.SortDirection(p.SortDirection)
	q.RevisedAt = p.RevisedAt
	q.Page = p.Page

	details := map[string]string{}

	for name, c := range map[string]struct {
		raw string
		dst *query.Constraint
	}{
		"word_count": {p.WordCount, &q.WordCount},
		"hits":       {p.Hits, &q.Hits},
		"kudos":      {p.Kudos, &q.Kudos},
		"bookmarks":  {p.Bookmarks, &q.Bookmarks},
		"comments":   {p.Comments, &q.Comments},
	} {
		parsed, err := query.ParseConstraint(c.raw)
		if err != nil {
			details[name] = err.Error()
			continue
		}
		*c.dst = parsed
	}

	var err error
	if q.Rating, err = query.ParseRating(p.Rating); err != nil {
		details["rating"] = err.Error()
	}
	if q.Crossover, err = query.ParseTristate(p.Crossover); err != nil {
		details["crossover"] = err.Error()
	}
	if q.Complete, err = query.ParseTristate(p.Complete); err != nil {
		details["complete"] = err.Error()
	}

	if len(details) > 0 {
		return q, domainerrors.ValidationWithDetails("invalid search query", details)
	}
	return q, nil
}

// === Handlers ===

func (s *Server) handleSearch(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
	q, err := input.toQuery()
	if err != nil {
		return nil, err
	}

	s.logger.Debug("search request received",
		"page", q.Page,
		"refresh", input.Refresh,
		"request_id", RequestIDFrom(ctx),
	)

	run := s.services.Searcher.Search
	if input.Refresh {
		run = s.services.Searcher.Refresh
	}

	result, err := run(ctx, q)
	if err != nil {
		return nil, err
	}

	return &SearchOutput{Body: result}, nil
}
