package tagindex

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/anditianred/ao3-api/internal/tag"
)

// Sort orders for Find.
const (
	SortRelevance = "relevance"
	SortKudos     = "kudos"
	SortHits      = "hits"
	SortWords     = "words"
	SortUpdated   = "updated"
)

// FindParams selects works from the index. Every set filter must match.
type FindParams struct {
	// Tags the work must carry. A tag with an empty category matches the
	// name in any category.
	Tags []tag.Tag
	// Text is matched against titles and authors.
	Text   string
	Rating string

	Limit  int
	Offset int
	SortBy string

	// Facets requests the most common tags per category among the matches.
	Facets     bool
	FacetLimit int
}

// DefaultFindParams returns sensible defaults.
func DefaultFindParams() FindParams {
	return FindParams{
		Limit:      20,
		SortBy:     SortRelevance,
		FacetLimit: 10,
	}
}

// FindResult is one page of matches.
type FindResult struct {
	Total  uint64                        `json:"total"`
	TookMs int64                         `json:"took_ms"`
	Hits   []Hit                         `json:"hits"`
	Facets map[tag.Category][]FacetCount `json:"facets,omitempty"`
}

// Hit is a matching work.
type Hit struct {
	WorkID  int      `json:"work_id"`
	Title   string   `json:"title"`
	Authors []string `json:"authors,omitempty"`
	Rating  string   `json:"rating,omitempty"`
	Kudos   int      `json:"kudos"`
	Score   float64  `json:"score"`
}

// FacetCount is a tag and how many matches carry it.
type FacetCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Find runs params against the index.
func (x *Index) Find(ctx context.Context, params FindParams) (*FindResult, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	if x.index == nil {
		return nil, ErrUnavailable
	}

	if params.Limit <= 0 {
		params.Limit = 20
	}

	req := bleve.NewSearchRequestOptions(buildFindQuery(params), params.Limit, params.Offset, false)
	addSorting(req, params.SortBy)
	req.Fields = []string{"work_id", "title", "authors", "rating", "kudos"}

	if params.Facets {
		limit := params.FacetLimit
		if limit <= 0 {
			limit = 10
		}
		for _, c := range tag.Categories {
			req.AddFacet(string(c), bleve.NewFacetRequest(string(c), limit))
		}
	}

	res, err := x.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("execute find: %w", err)
	}

	result := &FindResult{
		Total:  res.Total,
		TookMs: res.Took.Milliseconds(),
		Hits:   make([]Hit, 0, len(res.Hits)),
	}

	for _, h := range res.Hits {
		hit := Hit{Score: h.Score}
		if id, ok := h.Fields["work_id"].(float64); ok {
			hit.WorkID = int(id)
		}
		if title, ok := h.Fields["title"].(string); ok {
			hit.Title = title
		}
		if rating, ok := h.Fields["rating"].(string); ok {
			hit.Rating = rating
		}
		if kudos, ok := h.Fields["kudos"].(float64); ok {
			hit.Kudos = int(kudos)
		}
		hit.Authors = stringsField(h.Fields["authors"])
		result.Hits = append(result.Hits, hit)
	}

	if params.Facets {
		result.Facets = make(map[tag.Category][]FacetCount, len(tag.Categories))
		for _, c := range tag.Categories {
			fr, ok := res.Facets[string(c)]
			if !ok || fr.Terms == nil {
				continue
			}
			for _, term := range fr.Terms.Terms() {
				result.Facets[c] = append(result.Facets[c], FacetCount{Value: term.Term, Count: term.Count})
			}
		}
	}

	return result, nil
}

// stringsField reads a stored multi-value field, which Bleve returns as a
// bare string when it holds a single value.
func stringsField(v any) []string {
	switch vv := v.(type) {
	case string:
		return []string{vv}
	case []any:
		out := make([]string, 0, len(vv))
		for _, item := range vv {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func buildFindQuery(params FindParams) query.Query {
	var queries []query.Query

	for _, t := range params.Tags {
		var tq *query.TermQuery
		if t.Category == "" {
			tq = bleve.NewTermQuery(strings.ToLower(tag.New(t.Name, "").Name))
			tq.SetField("tag_names")
		} else {
			tq = bleve.NewTermQuery(tagKey(tag.New(t.Name, t.Category)))
			tq.SetField("tag_keys")
		}
		queries = append(queries, tq)
	}

	if params.Text != "" {
		titleMatch := bleve.NewMatchQuery(params.Text)
		titleMatch.SetField("title")
		titleMatch.SetBoost(2.0)

		authorMatch := bleve.NewMatchQuery(params.Text)
		authorMatch.SetField("authors")

		queries = append(queries, bleve.NewDisjunctionQuery(titleMatch, authorMatch))
	}

	if params.Rating != "" {
		rq := bleve.NewTermQuery(params.Rating)
		rq.SetField("rating")
		queries = append(queries, rq)
	}

	switch len(queries) {
	case 0:
		return bleve.NewMatchAllQuery()
	case 1:
		return queries[0]
	default:
		return bleve.NewConjunctionQuery(queries...)
	}
}

func addSorting(req *bleve.SearchRequest, sortBy string) {
	switch sortBy {
	case SortKudos:
		req.SortBy([]string{"-kudos", "-_score"})
	case SortHits:
		req.SortBy([]string{"-hits", "-_score"})
	case SortWords:
		req.SortBy([]string{"-words", "-_score"})
	case SortUpdated:
		req.SortBy([]string{"-updated", "-_score"})
	default:
		req.SortBy([]string{"-_score"})
	}
}
