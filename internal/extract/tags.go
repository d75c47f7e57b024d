// Package extract turns catalog listing markup into typed values: tag groups,
// work summaries and whole results pages.
package extract

import (
	"golang.org/x/net/html"

	"github.com/anditianred/ao3-api/internal/tag"
)

// FromItem classifies the tag list of one listing item.
//
// Entries whose class does not name a known category (warnings, for one)
// are skipped. An item without a tag list yields an empty group.
func FromItem(item *html.Node) *tag.Group {
	group := tag.NewGroup()

	list := findFirst(item, element("ul", "tags", "commas"))
	if list == nil {
		return group
	}

	for _, li := range findAll(list, element("li")) {
		classes := classList(li)
		if len(classes) == 0 {
			continue
		}
		category, ok := tag.ParseCategory(classes[0])
		if !ok {
			continue
		}

		name := textContent(findFirst(li, element("a", "tag")))
		if name == "" {
			name = textContent(li)
		}
		if name == "" {
			continue
		}
		group.Add(tag.New(name, category))
	}

	return group
}

// FromListing classifies every item of a listing, in listing order.
// Entries without a heading are decoration, not items, and are skipped.
func FromListing(listing *html.Node) []*tag.Group {
	items := listingItems(listing)
	groups := make([]*tag.Group, 0, len(items))
	for _, item := range items {
		groups = append(groups, FromItem(item))
	}
	return groups
}

// TagsFromMarkup parses raw listing markup and classifies each item.
func TagsFromMarkup(raw []byte) ([]*tag.Group, error) {
	doc, err := parse(raw)
	if err != nil {
		return nil, err
	}
	return FromListing(doc), nil
}

// listingItems returns the article entries of a listing that carry an h4 heading.
func listingItems(listing *html.Node) []*html.Node {
	articles := findAll(listing, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == "li" && getAttr(n, "role") == "article"
	})

	items := make([]*html.Node, 0, len(articles))
	for _, a := range articles {
		if findFirst(a, element("h4")) == nil {
			continue
		}
		items = append(items, a)
	}
	return items
}
