// Package query models a catalog search request: an immutable value whose
// canonical form yields the cache key and whose fields yield the outbound
// request parameters.
package query

import (
	"sync"

	domainerrors "github.com/anditianred/ao3-api/internal/errors"
	"github.com/anditianred/ao3-api/internal/validation"
)

// Tristate is an optional yes/no filter. The zero value is unset.
type Tristate uint8

// Tristate values.
const (
	Unset Tristate = iota
	Yes
	No
)

// Bool converts b to a set Tristate.
func Bool(b bool) Tristate {
	if b {
		return Yes
	}
	return No
}

// IsSet reports whether t filters anything.
func (t Tristate) IsSet() bool { return t == Yes || t == No }

// Rating is a catalog rating id. Zero means any rating.
type Rating int

// Known ratings.
const (
	NotRated Rating = 9
	General  Rating = 10
	Teen     Rating = 11
	Mature   Rating = 12
	Explicit Rating = 13
)

// SortColumn names a column results can be ordered by.
type SortColumn string

// Sort columns accepted by the catalog.
const (
	SortBestMatch SortColumn = "_score"
	SortAuthor    SortColumn = "authors_to_sort_on"
	SortTitle     SortColumn = "title_to_sort_on"
	SortPosted    SortColumn = "created_at"
	SortUpdated   SortColumn = "revised_at"
	SortWords     SortColumn = "word_count"
	SortRating    SortColumn = "rating_ids"
	SortHits      SortColumn = "hits"
	SortBookmarks SortColumn = "bookmarks_count"
	SortComments  SortColumn = "comments_count"
	SortKudos     SortColumn = "kudos_count"
)

// SortDirection orders results.
type SortDirection string

// Sort directions.
const (
	Ascending  SortDirection = "asc"
	Descending SortDirection = "desc"
)

// SearchQuery is a complete search request.
//
// A SearchQuery is a value: methods never modify the receiver, and moving to
// another page means building a new query with WithPage. A Page of zero is
// read as the first page.
type SearchQuery struct {
	AnyField      string        `json:"any_field"`
	Title         string        `json:"title"`
	Author        string        `json:"author"`
	SingleChapter bool          `json:"single_chapter"`
	WordCount     Constraint    `json:"-"`
	Language      string        `json:"language"`
	Fandoms       string        `json:"fandoms"`
	Characters    string        `json:"characters"`
	Relationships string        `json:"relationships"`
	Freeforms     string        `json:"tags"`
	ExcludedTags  string        `json:"excluded_tags"`
	Rating        Rating        `json:"rating" validate:"omitempty,gte=9,lte=13"`
	Hits          Constraint    `json:"-"`
	Kudos         Constraint    `json:"-"`
	Bookmarks     Constraint    `json:"-"`
	Comments      Constraint    `json:"-"`
	Crossover     Tristate      `json:"-"`
	Complete      Tristate      `json:"-"`
	Page          int           `json:"page" validate:"min=1"`
	SortColumn    SortColumn    `json:"sort_column" validate:"omitempty,oneof=_score authors_to_sort_on title_to_sort_on created_at revised_at word_count rating_ids hits bookmarks_count comments_count kudos_count"`
	SortDirection SortDirection `json:"sort_direction" validate:"omitempty,oneof=asc desc"`
	RevisedAt     string        `json:"revised_at"`
	Guest         bool          `json:"guest"`
}

// New returns a first-page guest query matching everything.
func New() SearchQuery {
	return SearchQuery{Page: 1, Guest: true}
}

// WithPage returns a copy of q for page n.
func (q SearchQuery) WithPage(n int) SearchQuery {
	q.Page = n
	return q
}

// normalized folds equivalent spellings of the same request together.
func (q SearchQuery) normalized() SearchQuery {
	if q.Page == 0 {
		q.Page = 1
	}
	return q
}

var validator = sync.OnceValue(validation.New)

// Validate reports whether q can be sent to the catalog. Failures are
// domain validation errors carrying a field -> message map.
func (q SearchQuery) Validate() error {
	q = q.normalized()

	details := map[string]string{}
	if err := validator().Validate(q); err != nil {
		var domainErr *domainerrors.Error
		if !domainerrors.As(err, &domainErr) {
			return err
		}
		if fields, ok := domainErr.Details.(map[string]string); ok {
			for k, v := range fields {
				details[k] = v
			}
		}
	}

	for name, c := range q.constraints() {
		if msg := c.validate(); msg != "" {
			details[name] = msg
		}
	}

	if len(details) > 0 {
		return domainerrors.ValidationWithDetails("invalid search query", details)
	}
	return nil
}

// constraints returns the range filters keyed by canonical field name.
func (q SearchQuery) constraints() map[string]Constraint {
	return map[string]Constraint{
		"word_count": q.WordCount,
		"hits":       q.Hits,
		"kudos":      q.Kudos,
		"bookmarks":  q.Bookmarks,
		"comments":   q.Comments,
	}
}
