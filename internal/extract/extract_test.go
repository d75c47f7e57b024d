package extract

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/anditianred/ao3-api/internal/tag"
)

func loadFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("failed to load fixture %s: %v", name, err)
	}
	return data
}

func parseFragment(t *testing.T, markup string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(markup))
	require.NoError(t, err)
	return doc
}

func TestFromItem(t *testing.T) {
	item := parseFragment(t, `
<li role="article"><h4>x</h4>
  <ul class="tags commas">
    <li class="warnings"><a class="tag">Graphic Depictions Of Violence</a></li>
    <li class="relationships"><a class="tag">Alice/Bob</a></li>
    <li class="characters"><a class="tag"> Alice </a></li>
    <li class="characters"><a class="tag">Alice</a></li>
    <li class="freeforms last">Plain Text Tag</li>
    <li class="">Nameless</li>
  </ul>
</li>`)

	group := FromItem(item)

	want := []tag.Tag{
		tag.New("Alice/Bob", tag.Relationships),
		tag.New("Alice", tag.Characters),
		tag.New("Plain Text Tag", tag.Freeforms),
	}
	if diff := cmp.Diff(want, group.All()); diff != "" {
		t.Errorf("tags mismatch (-want +got):\n%s", diff)
	}
}

func TestFromItem_NoTagList(t *testing.T) {
	group := FromItem(parseFragment(t, `<li role="article"><h4>x</h4></li>`))

	assert.Zero(t, group.Len())
	for _, c := range tag.Categories {
		assert.Empty(t, group.Tags(c))
	}
}

func TestTagsFromMarkup(t *testing.T) {
	groups, err := TagsFromMarkup(loadFixture(t, "results.html"))
	require.NoError(t, err)

	// The restricted entry has no heading and is not an item.
	require.Len(t, groups, 2)

	first := groups[0]
	assert.Equal(t, 5, first.Len())
	assert.True(t, first.Contains(tag.New("Alice & Carol", tag.Relationships)))
	assert.False(t, first.Contains(tag.New("No Archive Warnings Apply", tag.Freeforms)))

	rels := first.Relationships()
	require.Len(t, rels, 2)
	kinds := map[string]tag.Kind{}
	for _, r := range rels {
		kinds[r.Name] = r.Kind
	}
	assert.Equal(t, tag.Romantic, kinds["Alice/Bob"])
	assert.Equal(t, tag.Platonic, kinds["Alice & Carol"])

	assert.Zero(t, groups[1].Len())
}

func TestParseResultsPage(t *testing.T) {
	page, err := ParseResultsPage(loadFixture(t, "results.html"))
	require.NoError(t, err)

	assert.Equal(t, 1234, page.Total)
	assert.False(t, page.Empty())
	require.Len(t, page.Works, 2)

	w := page.Works[0]
	assert.Equal(t, 111, w.ID)
	assert.Equal(t, "Small Hours", w.Title)
	assert.Equal(t, []string{"wren"}, w.Authors)
	assert.Equal(t, []string{"Orbit"}, w.Fandoms)
	assert.Equal(t, "Teen And Up Audiences", w.Rating)
	assert.Equal(t, "English", w.Language)
	assert.Equal(t, 12345, w.Words)
	assert.Equal(t, "3/?", w.Chapters)
	assert.Equal(t, 42, w.Comments)
	assert.Equal(t, 1001, w.Kudos)
	assert.Equal(t, 17, w.Bookmarks)
	assert.Equal(t, 20500, w.Hits)
	assert.Equal(t, time.Date(2023, time.March, 15, 0, 0, 0, 0, time.UTC), w.Updated)
	assert.True(t, strings.HasPrefix(w.Summary, "Two "))
	assert.Contains(t, w.Summary, "night owls")
	assert.NotContains(t, w.Summary, "<em>")
	assert.Equal(t, 5, w.Tags.Len())

	bare := page.Works[1]
	assert.Equal(t, 222, bare.ID)
	assert.Equal(t, []string{"a", "b"}, bare.Authors)
	assert.Empty(t, bare.Fandoms)
	assert.Empty(t, bare.Summary)
	assert.True(t, bare.Updated.IsZero())
	assert.Zero(t, bare.Tags.Len())
}

func TestParseResultsPage_Outcomes(t *testing.T) {
	tests := []struct {
		fixture string
		wantErr error
		empty   bool
	}{
		{fixture: "empty.html", empty: true},
		{fixture: "broken.html", wantErr: ErrResultsMissing},
		{fixture: "no_total.html", wantErr: ErrTotalMissing},
	}

	for _, tt := range tests {
		t.Run(tt.fixture, func(t *testing.T) {
			page, err := ParseResultsPage(loadFixture(t, tt.fixture))
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, page)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.empty, page.Empty())
			assert.NotNil(t, page.Works)
		})
	}
}

func TestLeadingInt(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"1,234 Found", 1234},
		{" 20 ", 20},
		{"1.000", 1000},
		{"Found", 0},
		{"", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, leadingInt(tt.in), tt.in)
	}
}
