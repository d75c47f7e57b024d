package query

import (
	"net/url"
	"strconv"
	"strings"
)

// Param is one outbound request parameter.
type Param struct {
	Key   string
	Value string
}

// Params is an ordered parameter list. Unlike url.Values it keeps the
// order parameters were added in.
type Params []Param

// Get returns the first value for key.
func (p Params) Get(key string) (string, bool) {
	for _, param := range p {
		if param.Key == key {
			return param.Value, true
		}
	}
	return "", false
}

// Encode renders p as an escaped query string, preserving order.
func (p Params) Encode() string {
	var b strings.Builder
	for i, param := range p {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(param.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(param.Value))
	}
	return b.String()
}

func field(name string) string {
	return "work_search[" + name + "]"
}

// BuildParams derives the request parameters for q in the catalog's field
// order. Only fields that differ from their default are sent, except the
// free-text query which falls back to a single space.
func BuildParams(q SearchQuery) Params {
	q = q.normalized()

	var p Params
	add := func(name, value string) {
		p = append(p, Param{Key: name, Value: value})
	}
	addString := func(name, value string) {
		if value != "" {
			add(field(name), value)
		}
	}
	addConstraint := func(name string, c Constraint) {
		if c.IsSet() {
			add(field(name), c.String())
		}
	}
	addTristate := func(name string, t Tristate) {
		switch t {
		case Yes:
			add(field(name), "T")
		case No:
			add(field(name), "F")
		}
	}

	anyField := q.AnyField
	if anyField == "" {
		anyField = " "
	}
	add(field("query"), anyField)

	if q.Page != 1 {
		add("page", strconv.Itoa(q.Page))
	}
	addString("title", q.Title)
	addString("creators", q.Author)
	if q.SingleChapter {
		add(field("single_chapter"), "1")
	}
	addConstraint("word_count", q.WordCount)
	addString("language_id", q.Language)
	addString("fandom_names", q.Fandoms)
	addString("character_names", q.Characters)
	addString("relationship_names", q.Relationships)
	addString("freeform_names", q.Freeforms)
	if q.Rating != 0 {
		add(field("rating_ids"), strconv.Itoa(int(q.Rating)))
	}
	addConstraint("hits", q.Hits)
	addConstraint("kudos_count", q.Kudos)
	addTristate("crossover", q.Crossover)
	addConstraint("bookmarks_count", q.Bookmarks)
	addString("excluded_tag_names", q.ExcludedTags)
	addConstraint("comments_count", q.Comments)
	addTristate("complete", q.Complete)
	addString("sort_column", string(q.SortColumn))
	addString("sort_direction", string(q.SortDirection))
	addString("revised_at", q.RevisedAt)

	return p
}

// SearchURL returns the catalog search URL for q under base.
func SearchURL(base string, q SearchQuery) string {
	return strings.TrimRight(base, "/") + "/works/search?" + BuildParams(q).Encode()
}
