package tag

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTagIdentity(t *testing.T) {
	a := New("Alice", Characters)
	b := New("Alice", Characters)
	c := New("Alice", Relationships)

	assert.True(t, Equal(a, b))
	assert.Equal(t, a.Hash(), b.Hash())
	assert.False(t, Equal(a, c))
	assert.NotEqual(t, a.Hash(), c.Hash())
}

func TestNew_NormalizesName(t *testing.T) {
	// "é" as a single code point vs. "e" + combining acute accent.
	composed := New("  Zo\u00e9 ", Characters)
	decomposed := New("Zoe\u0301", Characters)

	assert.Equal(t, "Zo\u00e9", composed.Name)
	assert.True(t, Equal(composed, decomposed))
}

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in   string
		want Category
		ok   bool
	}{
		{"relationships", Relationships, true},
		{"characters", Characters, true},
		{"freeforms", Freeforms, true},
		{" Freeforms ", Freeforms, true},
		{"warnings", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseCategory(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAsRelationship(t *testing.T) {
	tests := []struct {
		name         string
		tag          Tag
		wantKind     Kind
		participants []Tag
	}{
		{
			name:     "romantic",
			tag:      New("Alice/Bob", Relationships),
			wantKind: Romantic,
			participants: []Tag{
				New("Alice", Characters),
				New("Bob", Characters),
			},
		},
		{
			name:     "platonic",
			tag:      New("Alice & Bob", Relationships),
			wantKind: Platonic,
			participants: []Tag{
				New("Alice", Characters),
				New("Bob", Characters),
			},
		},
		{
			name:     "platonic wins over romantic",
			tag:      New("Alice & Bob / Eve", Relationships),
			wantKind: Platonic,
			participants: []Tag{
				New("Alice", Characters),
				New("Bob / Eve", Characters),
			},
		},
		{
			name:     "poly pairing keeps order",
			tag:      New("Carol/Alice/Bob", Relationships),
			wantKind: Romantic,
			participants: []Tag{
				New("Carol", Characters),
				New("Alice", Characters),
				New("Bob", Characters),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rel, ok := AsRelationship(tt.tag)
			require.True(t, ok)
			assert.Equal(t, tt.wantKind, rel.Kind)
			assert.Equal(t, tt.tag, rel.Tag)
			if diff := cmp.Diff(tt.participants, rel.Participants); diff != "" {
				t.Errorf("participants mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestAsRelationship_RejectsOtherCategories(t *testing.T) {
	for _, tg := range []Tag{New("Gen", Freeforms), New("Alice/Bob", Characters)} {
		_, ok := AsRelationship(tg)
		assert.False(t, ok, tg.String())
	}
}

func TestGroup(t *testing.T) {
	g := NewGroup()

	assert.True(t, g.Add(New("Alice/Bob", Relationships)))
	assert.True(t, g.Add(New("Alice", Characters)))
	assert.True(t, g.Add(New("Bob", Characters)))
	assert.True(t, g.Add(New("Alice", Characters)))
	assert.True(t, g.Add(New("Fluff", Freeforms)))
	assert.False(t, g.Add(Tag{Name: "No Archive Warnings Apply", Category: "warnings"}))

	assert.Equal(t, 4, g.Len())
	assert.True(t, g.Contains(New("Bob", Characters)))
	assert.False(t, g.Contains(New("Bob", Relationships)))

	want := []Tag{
		New("Alice/Bob", Relationships),
		New("Alice", Characters),
		New("Bob", Characters),
		New("Fluff", Freeforms),
	}
	if diff := cmp.Diff(want, g.All()); diff != "" {
		t.Errorf("All() mismatch (-want +got):\n%s", diff)
	}

	// The flat view is exactly the union of the buckets.
	var union []Tag
	for _, c := range Categories {
		for _, tg := range g.Tags(c) {
			assert.Equal(t, c, tg.Category)
			union = append(union, tg)
		}
	}
	assert.ElementsMatch(t, g.All(), union)

	rels := g.Relationships()
	require.Len(t, rels, 1)
	assert.Equal(t, Romantic, rels[0].Kind)
}

func TestGroup_EmptyHasAllBuckets(t *testing.T) {
	g := NewGroup()
	assert.Zero(t, g.Len())
	for _, c := range Categories {
		assert.Empty(t, g.Tags(c))
	}

	data, err := g.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"relationships":[],"characters":[],"freeforms":[]}`, string(data))
}
