package extract

import (
	"strconv"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"golang.org/x/net/html"

	"github.com/anditianred/ao3-api/internal/tag"
)

// dateLayout is the blurb datetime format, e.g. "15 Mar 2023".
const dateLayout = "02 Jan 2006"

// Work is the summary of one listing item as the blurb shows it.
// Pieces missing from the markup are left at their zero value.
type Work struct {
	ID        int        `json:"id"`
	Title     string     `json:"title"`
	Authors   []string   `json:"authors"`
	Fandoms   []string   `json:"fandoms"`
	Rating    string     `json:"rating,omitempty"`
	Summary   string     `json:"summary,omitempty"`
	Language  string     `json:"language,omitempty"`
	Words     int        `json:"words"`
	Chapters  string     `json:"chapters,omitempty"`
	Kudos     int        `json:"kudos"`
	Hits      int        `json:"hits"`
	Comments  int        `json:"comments"`
	Bookmarks int        `json:"bookmarks"`
	Updated   time.Time  `json:"updated,omitzero"`
	Tags      *tag.Group `json:"tags"`
}

// ParseWork extracts the summary of one listing item.
func ParseWork(item *html.Node) Work {
	w := Work{
		ID:      workID(item),
		Authors: []string{},
		Fandoms: []string{},
		Tags:    FromItem(item),
	}

	if heading := findFirst(item, element("h4")); heading != nil {
		for _, a := range findAll(heading, element("a")) {
			href := getAttr(a, "href")
			switch {
			case getAttr(a, "rel") == "author":
				w.Authors = append(w.Authors, textContent(a))
			case w.Title == "" && strings.HasPrefix(href, "/works/"):
				w.Title = textContent(a)
				if w.ID == 0 {
					w.ID = leadingInt(strings.TrimPrefix(href, "/works/"))
				}
			}
		}
	}

	if fandoms := findFirst(item, element("h5", "fandoms")); fandoms != nil {
		for _, a := range findAll(fandoms, element("a", "tag")) {
			w.Fandoms = append(w.Fandoms, textContent(a))
		}
	}

	if rating := findFirst(item, element("span", "rating")); rating != nil {
		w.Rating = getAttr(rating, "title")
		if w.Rating == "" {
			w.Rating = textContent(rating)
		}
	}

	if summary := findFirst(item, element("blockquote", "summary")); summary != nil {
		w.Summary = markdown(summary)
	}

	if updated := findFirst(item, element("p", "datetime")); updated != nil {
		if t, err := time.Parse(dateLayout, textContent(updated)); err == nil {
			w.Updated = t
		}
	}

	if stats := findFirst(item, element("dl", "stats")); stats != nil {
		for _, dd := range findAll(stats, element("dd")) {
			value := textContent(dd)
			switch {
			case hasClass(dd, "language"):
				w.Language = value
			case hasClass(dd, "words"):
				w.Words = leadingInt(value)
			case hasClass(dd, "chapters"):
				w.Chapters = strings.ReplaceAll(value, " ", "")
			case hasClass(dd, "kudos"):
				w.Kudos = leadingInt(value)
			case hasClass(dd, "hits"):
				w.Hits = leadingInt(value)
			case hasClass(dd, "comments"):
				w.Comments = leadingInt(value)
			case hasClass(dd, "bookmarks"):
				w.Bookmarks = leadingInt(value)
			}
		}
	}

	return w
}

// ItemsFromMarkup parses raw listing markup into work summaries.
func ItemsFromMarkup(raw []byte) ([]Work, error) {
	doc, err := parse(raw)
	if err != nil {
		return nil, err
	}
	return works(doc), nil
}

func works(listing *html.Node) []Work {
	items := listingItems(listing)
	out := make([]Work, 0, len(items))
	for _, item := range items {
		out = append(out, ParseWork(item))
	}
	return out
}

func workID(item *html.Node) int {
	id := getAttr(item, "id")
	if !strings.HasPrefix(id, "work_") {
		return 0
	}
	return leadingInt(strings.TrimPrefix(id, "work_"))
}

// markdown converts the contents of n to Markdown, falling back to plain text.
func markdown(n *html.Node) string {
	md, err := htmltomarkdown.ConvertString(innerHTML(n))
	if err != nil {
		return textContent(n)
	}
	return strings.TrimSpace(md)
}

// leadingInt parses the integer at the start of s, ignoring thousands
// separators. It returns 0 when s does not start with a digit.
func leadingInt(s string) int {
	s = strings.TrimSpace(s)
	s = strings.NewReplacer(",", "", ".", "").Replace(s)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}
