package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/anditianred/ao3-api/internal/errors"
	"github.com/anditianred/ao3-api/internal/tag"
	"github.com/anditianred/ao3-api/internal/tagindex"
)

func (s *Server) registerTagRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "findWorks",
		Method:      http.MethodGet,
		Path:        "/api/v1/tags",
		Summary:     "Find indexed works by tag",
		Description: "Queries the local index of works seen in earlier searches. Never contacts the catalog.",
		Tags:        []string{"Tags"},
	}, s.handleFindWorks)

	huma.Register(s.api, huma.Operation{
		OperationID: "describeRelationship",
		Method:      http.MethodGet,
		Path:        "/api/v1/relationships",
		Summary:     "Describe a relationship tag",
		Description: "Splits a relationship tag name into its kind and participants",
		Tags:        []string{"Tags"},
	}, s.handleDescribeRelationship)
}

// === DTOs ===

// FindWorksInput contains parameters for a tag index query.
type FindWorksInput struct {
	Tags     []string `query:"tag" doc:"Tag the work must carry; repeatable. Prefix with a category and a colon to match only that category, e.g. characters:Alice"`
	Text     string   `query:"text" doc:"Text matched against titles and authors"`
	Rating   string   `query:"rating" doc:"Exact rating name as shown on the catalog"`
	Limit    int      `query:"limit" default:"20" minimum:"1" maximum:"100" doc:"Max results"`
	Offset   int      `query:"offset" default:"0" minimum:"0" doc:"Pagination offset"`
	Sort     string   `query:"sort" default:"relevance" enum:"relevance,kudos,hits,words,updated" doc:"Sort order"`
	Facets   bool     `query:"facets" doc:"Include the most common tags per category"`
	FacetMax int      `query:"facet_limit" default:"10" minimum:"1" maximum:"50" doc:"Tags per facet category"`
}

// FindWorksOutput wraps the tag index result for Huma.
type FindWorksOutput struct {
	Body *tagindex.FindResult
}

// RelationshipInput names a relationship tag.
type RelationshipInput struct {
	Name string `query:"name" required:"true" doc:"Relationship tag name, e.g. Alice/Bob"`
}

// RelationshipOutput wraps the relationship detail for Huma.
type RelationshipOutput struct {
	Body tag.Relationship
}

// === Handlers ===

func (s *Server) handleFindWorks(ctx context.Context, input *FindWorksInput) (*FindWorksOutput, error) {
	if s.services.Tags == nil {
		return nil, domainerrors.Unavailable("tag index is disabled")
	}

	params := tagindex.DefaultFindParams()
	params.Text = input.Text
	params.Rating = input.Rating
	params.Limit = input.Limit
	params.Offset = input.Offset
	params.SortBy = input.Sort
	params.Facets = input.Facets
	params.FacetLimit = input.FacetMax

	for _, raw := range input.Tags {
		t, err := parseTagFilter(raw)
		if err != nil {
			return nil, err
		}
		params.Tags = append(params.Tags, t)
	}

	result, err := s.services.Tags.Find(ctx, params)
	if errors.Is(err, tagindex.ErrUnavailable) {
		return nil, domainerrors.Wrap(err, domainerrors.CodeUnavailable, "tag index is being rebuilt")
	}
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "tag index query failed")
	}

	return &FindWorksOutput{Body: result}, nil
}

func (s *Server) handleDescribeRelationship(_ context.Context, input *RelationshipInput) (*RelationshipOutput, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, domainerrors.Validation("relationship name is required")
	}

	rel, _ := tag.AsRelationship(tag.New(name, tag.Relationships))
	return &RelationshipOutput{Body: rel}, nil
}

// parseTagFilter reads "name" or "category:name". A prefix that is not a
// known category is part of the name, since tag names may contain colons.
func parseTagFilter(raw string) (tag.Tag, error) {
	if prefix, name, ok := strings.Cut(raw, ":"); ok {
		if c, known := tag.ParseCategory(prefix); known {
			raw = name
			if strings.TrimSpace(raw) == "" {
				return tag.Tag{}, domainerrors.Validationf("tag filter %q has no name", prefix+":")
			}
			return tag.New(raw, c), nil
		}
	}
	if strings.TrimSpace(raw) == "" {
		return tag.Tag{}, domainerrors.Validation("tag filter is empty")
	}
	return tag.New(raw, ""), nil
}
