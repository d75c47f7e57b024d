// Package tagindex keeps a local full-text index of every work seen in search
// results, so works can later be found by tag without asking the catalog.
// It is built on Bleve.
package tagindex

import (
	"strconv"
	"strings"

	"github.com/anditianred/ao3-api/internal/extract"
	"github.com/anditianred/ao3-api/internal/tag"
)

// WorkDocument is the indexed form of a work summary.
//
// Tags are stored twice: per category with their exact spelling, for display
// and facets, and once more as lowercase "category:name" keys plus bare names,
// for case-insensitive lookup.
type WorkDocument struct {
	ID       string
	WorkID   int
	Title    string
	Authors  []string
	Fandoms  []string
	Rating   string
	Language string

	Relationships []string
	Characters    []string
	Freeforms     []string

	Words   int
	Kudos   int
	Hits    int
	Updated int64 // Unix millis, zero when unknown
}

// DocID returns the index id of a work.
func DocID(workID int) string {
	return "work_" + strconv.Itoa(workID)
}

// NewWorkDocument builds the document for w. Works without an id cannot be
// addressed and yield nil.
func NewWorkDocument(w extract.Work) *WorkDocument {
	if w.ID == 0 {
		return nil
	}

	doc := &WorkDocument{
		ID:       DocID(w.ID),
		WorkID:   w.ID,
		Title:    w.Title,
		Authors:  w.Authors,
		Fandoms:  w.Fandoms,
		Rating:   w.Rating,
		Language: w.Language,
		Words:    w.Words,
		Kudos:    w.Kudos,
		Hits:     w.Hits,
	}
	if !w.Updated.IsZero() {
		doc.Updated = w.Updated.UnixMilli()
	}

	if w.Tags != nil {
		doc.Relationships = names(w.Tags.Tags(tag.Relationships))
		doc.Characters = names(w.Tags.Tags(tag.Characters))
		doc.Freeforms = names(w.Tags.Tags(tag.Freeforms))
	}

	return doc
}

func names(tags []tag.Tag) []string {
	out := make([]string, len(tags))
	for i, t := range tags {
		out[i] = t.Name
	}
	return out
}

// tagKey is the lookup form of a categorized tag.
func tagKey(t tag.Tag) string {
	return string(t.Category) + ":" + strings.ToLower(t.Name)
}

// ToMap converts the document to a map whose keys match the index mapping.
func (d *WorkDocument) ToMap() map[string]any {
	m := map[string]any{
		"id":      d.ID,
		"work_id": d.WorkID,
		"title":   d.Title,
		"words":   d.Words,
		"kudos":   d.Kudos,
		"hits":    d.Hits,
	}

	if len(d.Authors) > 0 {
		m["authors"] = d.Authors
	}
	if len(d.Fandoms) > 0 {
		m["fandoms"] = d.Fandoms
	}
	if d.Rating != "" {
		m["rating"] = d.Rating
	}
	if d.Language != "" {
		m["language"] = d.Language
	}
	if d.Updated > 0 {
		m["updated"] = d.Updated
	}

	var keys, bare []string
	for category, values := range map[tag.Category][]string{
		tag.Relationships: d.Relationships,
		tag.Characters:    d.Characters,
		tag.Freeforms:     d.Freeforms,
	} {
		if len(values) == 0 {
			continue
		}
		m[string(category)] = values
		for _, v := range values {
			keys = append(keys, tagKey(tag.New(v, category)))
			bare = append(bare, strings.ToLower(v))
		}
	}
	if len(keys) > 0 {
		m["tag_keys"] = keys
		m["tag_names"] = bare
	}

	return m
}
