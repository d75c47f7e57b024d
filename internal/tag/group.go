package tag

import (
	"encoding/json"
	"slices"
	"strings"
)

// Group is the classified tag set of a single listing item.
//
// All holds every tag once; ByCategory buckets the same tags by category.
// Both views are maintained together by Add, so All is always exactly the
// union of the buckets.
type Group struct {
	all        map[Tag]struct{}
	byCategory map[Category]map[Tag]struct{}
}

// NewGroup returns an empty group with a bucket for every known category.
func NewGroup() *Group {
	g := &Group{
		all:        make(map[Tag]struct{}),
		byCategory: make(map[Category]map[Tag]struct{}, len(Categories)),
	}
	for _, c := range Categories {
		g.byCategory[c] = make(map[Tag]struct{})
	}
	return g
}

// Add inserts t into the group. Tags outside the known categories are
// dropped and Add reports false.
func (g *Group) Add(t Tag) bool {
	bucket, ok := g.byCategory[t.Category]
	if !ok {
		return false
	}
	bucket[t] = struct{}{}
	g.all[t] = struct{}{}
	return true
}

// Len returns the number of distinct tags.
func (g *Group) Len() int {
	return len(g.all)
}

// Contains reports whether t is in the group.
func (g *Group) Contains(t Tag) bool {
	_, ok := g.all[t]
	return ok
}

// All returns every tag, sorted by category order then name.
func (g *Group) All() []Tag {
	return sortTags(g.all)
}

// Tags returns the tags of one category sorted by name.
func (g *Group) Tags(c Category) []Tag {
	return sortTags(g.byCategory[c])
}

// Relationships returns the relationship detail of every relationship tag.
func (g *Group) Relationships() []Relationship {
	tags := g.Tags(Relationships)
	out := make([]Relationship, 0, len(tags))
	for _, t := range tags {
		if r, ok := AsRelationship(t); ok {
			out = append(out, r)
		}
	}
	return out
}

// MarshalJSON renders the group as category -> sorted names.
func (g *Group) MarshalJSON() ([]byte, error) {
	out := make(map[Category][]string, len(Categories))
	for _, c := range Categories {
		names := make([]string, 0, len(g.byCategory[c]))
		for _, t := range g.Tags(c) {
			names = append(names, t.Name)
		}
		out[c] = names
	}
	return json.Marshal(out)
}

func categoryRank(c Category) int {
	return slices.Index(Categories, c)
}

func sortTags(set map[Tag]struct{}) []Tag {
	out := make([]Tag, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	slices.SortFunc(out, func(a, b Tag) int {
		if ra, rb := categoryRank(a.Category), categoryRank(b.Category); ra != rb {
			return ra - rb
		}
		return strings.Compare(a.Name, b.Name)
	})
	return out
}
