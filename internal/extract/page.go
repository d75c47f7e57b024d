package extract

import (
	"errors"
	"strings"

	"golang.org/x/net/html"
)

// noResultsMarker is the notice the catalog renders instead of a results list
// when a search matches nothing.
const noResultsMarker = "No results found"

var (
	// ErrResultsMissing means the page has neither a results list nor the
	// no-results notice.
	ErrResultsMissing = errors.New("results list missing")

	// ErrTotalMissing means the results heading is absent or has no count.
	ErrTotalMissing = errors.New("total count missing")
)

// Page is one parsed results page.
type Page struct {
	Works []Work
	Total int
}

// Empty reports whether the page matched nothing.
func (p *Page) Empty() bool {
	return len(p.Works) == 0 && p.Total == 0
}

// ParseResultsPage parses a raw search results page.
//
// The no-results notice yields an empty page without error. A page that
// has no results list and no notice is a failure, as is a results list
// without a parseable total.
func ParseResultsPage(raw []byte) (*Page, error) {
	doc, err := parse(raw)
	if err != nil {
		return nil, err
	}

	list := findFirst(doc, element("ol", "work", "index", "group"))
	if list == nil {
		if hasNoResultsMarker(doc) {
			return &Page{Works: []Work{}}, nil
		}
		return nil, ErrResultsMissing
	}

	total, ok := totalCount(doc)
	if !ok {
		return nil, ErrTotalMissing
	}

	return &Page{
		Works: works(list),
		Total: total,
	}, nil
}

func hasNoResultsMarker(doc *html.Node) bool {
	return findFirst(doc, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == "p" &&
			strings.HasPrefix(textContent(n), noResultsMarker)
	}) != nil
}

// totalCount reads "1,234 Found" from the results heading.
func totalCount(doc *html.Node) (int, bool) {
	main := findFirst(doc, func(n *html.Node) bool {
		return element("div", "works-search")(n) && getAttr(n, "id") == "main"
	})
	if main == nil {
		return 0, false
	}

	heading := findFirst(main, element("h3", "heading"))
	if heading == nil {
		return 0, false
	}

	text := textContent(heading)
	if text == "" || text[0] < '0' || text[0] > '9' {
		return 0, false
	}
	return leadingInt(text), true
}
