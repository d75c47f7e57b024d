// Package tag models the catalog's tag taxonomy: plain tags classified into a
// fixed set of categories, and relationship tags derived from pairing names.
package tag

import (
	"strings"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/text/unicode/norm"
)

// Category is a tag's place in the taxonomy.
// Values match the class tokens the catalog puts on tag list entries.
type Category string

// Known categories.
const (
	Relationships Category = "relationships"
	Characters    Category = "characters"
	Freeforms     Category = "freeforms"
)

// Categories lists the known categories in listing order
// (the catalog always renders relationships, then characters, then freeforms).
var Categories = []Category{Relationships, Characters, Freeforms}

// ParseCategory maps a class token to a known category.
func ParseCategory(s string) (Category, bool) {
	switch c := Category(strings.ToLower(strings.TrimSpace(s))); c {
	case Relationships, Characters, Freeforms:
		return c, true
	default:
		return "", false
	}
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	_, ok := ParseCategory(string(c))
	return ok
}

// Tag is an immutable (name, category) pair.
// Two tags are the same entity only when both name and category match,
// so Tag is comparable and usable as a map key.
type Tag struct {
	Name     string   `json:"name"`
	Category Category `json:"category"`
}

// New builds a tag. Names are trimmed and NFC-normalized so that
// differently-encoded renderings of the same name compare equal.
func New(name string, category Category) Tag {
	return Tag{
		Name:     norm.NFC.String(strings.TrimSpace(name)),
		Category: category,
	}
}

// Equal reports whether a and b are the same tag.
func Equal(a, b Tag) bool {
	return a == b
}

// Hash returns a hash derived from the tag's name and category only.
// Equal tags always hash the same.
func (t Tag) Hash() uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(string(t.Category))
	_, _ = d.Write([]byte{0})
	_, _ = d.WriteString(t.Name)
	return d.Sum64()
}

// String renders the tag as "category:name".
func (t Tag) String() string {
	return string(t.Category) + ":" + t.Name
}
