package tag

import "strings"

// Kind distinguishes platonic from romantic relationships.
type Kind string

// Relationship kinds.
const (
	Platonic Kind = "platonic"
	Romantic Kind = "romantic"
)

// Separators used in relationship tag names.
const (
	platonicSep = "&"
	romanticSep = "/"
)

// Relationship is a relationship tag with its kind and participants resolved.
type Relationship struct {
	Tag
	Kind         Kind  `json:"kind"`
	Participants []Tag `json:"participants"`
}

// AsRelationship derives the relationship detail of t.
// It returns false when t is not in the Relationships category.
//
// "&" marks a platonic pairing and wins over "/" when both appear;
// the name is split only on the winning separator. Each side is trimmed
// and becomes a Characters tag, in left-to-right order.
func AsRelationship(t Tag) (Relationship, bool) {
	if t.Category != Relationships {
		return Relationship{}, false
	}

	kind, sep := Romantic, romanticSep
	if strings.Contains(t.Name, platonicSep) {
		kind, sep = Platonic, platonicSep
	}

	parts := strings.Split(t.Name, sep)
	participants := make([]Tag, 0, len(parts))
	for _, p := range parts {
		participants = append(participants, New(p, Characters))
	}

	return Relationship{
		Tag:          t,
		Kind:         kind,
		Participants: participants,
	}, true
}
