package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/samber/do/v2"
	"github.com/urfave/cli/v2"

	domainerrors "github.com/anditianred/ao3-api/internal/errors"
	"github.com/anditianred/ao3-api/internal/normalize"
	"github.com/anditianred/ao3-api/internal/query"
	"github.com/anditianred/ao3-api/internal/search"
)

func searchCommand(a *app) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search works, reusing cached result pages",
		ArgsUsage: "[text]",
		Action:    a.search,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "title", Usage: "Work title"},
			&cli.StringFlag{Name: "author", Usage: "Creator name"},
			&cli.BoolFlag{Name: "single-chapter", Usage: "Only single-chapter works"},
			&cli.StringFlag{Name: "words", Usage: "Word count: n, <n, >n or a-b"},
			&cli.StringFlag{Name: "language", Usage: "Language id or English name, e.g. en or German"},
			&cli.StringFlag{Name: "fandoms", Usage: "Comma-separated fandom names"},
			&cli.StringFlag{Name: "characters", Usage: "Comma-separated character names"},
			&cli.StringFlag{Name: "relationships", Usage: "Comma-separated relationship names"},
			&cli.StringFlag{Name: "tags", Usage: "Comma-separated additional tags"},
			&cli.StringFlag{Name: "exclude", Usage: "Comma-separated tags to exclude"},
			&cli.StringFlag{Name: "rating", Usage: "general, teen, mature, explicit or not_rated"},
			&cli.StringFlag{Name: "hits", Usage: "Hits: n, <n, >n or a-b"},
			&cli.StringFlag{Name: "kudos", Usage: "Kudos: n, <n, >n or a-b"},
			&cli.StringFlag{Name: "bookmarks", Usage: "Bookmarks: n, <n, >n or a-b"},
			&cli.StringFlag{Name: "comments", Usage: "Comments: n, <n, >n or a-b"},
			&cli.StringFlag{Name: "crossover", Usage: "true, false or any"},
			&cli.StringFlag{Name: "complete", Usage: "true, false or any"},
			&cli.StringFlag{Name: "sort", Usage: "Catalog sort column, e.g. kudos_count"},
			&cli.StringFlag{Name: "direction", Usage: "asc or desc"},
			&cli.StringFlag{Name: "revised", Usage: "Catalog date filter, e.g. '<2 weeks'"},
			&cli.IntFlag{Name: "page", Aliases: []string{"p"}, Usage: "Results page", Value: 1},
			&cli.BoolFlag{Name: "refresh", Usage: "Skip the cache and fetch again"},
			&cli.BoolFlag{Name: "json", Usage: "Print the result as JSON"},
		},
	}
}

// queryFromFlags builds a query, reporting every malformed flag at once.
func queryFromFlags(c *cli.Context) (query.SearchQuery, error) {
	q := query.New()
	q.AnyField = strings.Join(c.Args().Slice(), " ")
	q.Title = c.String("title")
	q.Author = c.String("author")
	q.SingleChapter = c.Bool("single-chapter")
	q.Language = normalize.CatalogLanguage(c.String("language"))
	q.Fandoms = c.String("fandoms")
	q.Characters = c.String("characters")
	q.Relationships = c.String("relationships")
	q.Freeforms = c.String("tags")
	q.ExcludedTags = c.String("exclude")
	q.SortColumn = query.SortColumn(c.String("sort"))
	q.SortDirection = query.SortDirection(c.String("direction"))
	q.RevisedAt = c.String("revised")
	q.Page = c.Int("page")

	details := map[string]string{}
	constraints := []struct {
		flag string
		dst  *query.Constraint
	}{
		{"words", &q.WordCount},
		{"hits", &q.Hits},
		{"kudos", &q.Kudos},
		{"bookmarks", &q.Bookmarks},
		{"comments", &q.Comments},
	}
	for _, f := range constraints {
		parsed, err := query.ParseConstraint(c.String(f.flag))
		if err != nil {
			details[f.flag] = err.Error()
			continue
		}
		*f.dst = parsed
	}

	var err error
	if q.Rating, err = query.ParseRating(c.String("rating")); err != nil {
		details["rating"] = err.Error()
	}
	if q.Crossover, err = query.ParseTristate(c.String("crossover")); err != nil {
		details["crossover"] = err.Error()
	}
	if q.Complete, err = query.ParseTristate(c.String("complete")); err != nil {
		details["complete"] = err.Error()
	}

	if len(details) > 0 {
		return q, domainerrors.ValidationWithDetails("invalid search flags", details)
	}
	return q, nil
}

func (a *app) search(c *cli.Context) error {
	q, err := queryFromFlags(c)
	if err != nil {
		return err
	}

	searcher, err := do.Invoke[*search.Searcher](a.injector)
	if err != nil {
		return err
	}

	run := searcher.Search
	if c.Bool("refresh") {
		run = searcher.Refresh
	}
	res, err := run(c.Context, q)
	if err != nil {
		return err
	}

	if c.Bool("json") {
		return writeJSON(a.out, res)
	}
	return printResult(a.out, res)
}

func printResult(w io.Writer, res *search.Result) error {
	source := "fetched"
	if res.Cached {
		source = "cached"
	}
	fmt.Fprintf(w, "page %d of %d, %d works (%s, key %s)\n",
		res.Page, res.PageCount, res.TotalCount, source, res.Key)

	if len(res.Items) == 0 {
		fmt.Fprintln(w, "no works found")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tAUTHORS\tRATING\tWORDS\tKUDOS")
	for _, work := range res.Items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%d\n",
			work.ID,
			work.Title,
			strings.Join(work.Authors, ", "),
			work.Rating,
			work.Words,
			work.Kudos,
		)
	}
	return tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
