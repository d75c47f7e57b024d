package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/samber/do/v2"
	"github.com/urfave/cli/v2"

	"github.com/anditianred/ao3-api/internal/di/providers"
	domainerrors "github.com/anditianred/ao3-api/internal/errors"
	"github.com/anditianred/ao3-api/internal/extract"
	"github.com/anditianred/ao3-api/internal/tag"
	"github.com/anditianred/ao3-api/internal/tagindex"
)

func findCommand(a *app) *cli.Command {
	return &cli.Command{
		Name:      "find",
		Usage:     "Find works seen in earlier searches by tag, without contacting the catalog",
		ArgsUsage: "[text]",
		Action:    a.find,
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "tag",
				Aliases: []string{"t"},
				Usage:   "Tag the work must carry; category:name restricts the category",
			},
			&cli.StringFlag{Name: "rating", Usage: "Exact rating name"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Usage: "Max results", Value: 20},
			&cli.StringFlag{Name: "sort", Usage: "relevance, kudos, hits, words or updated", Value: tagindex.SortRelevance},
			&cli.BoolFlag{Name: "facets", Usage: "Show the most common tags per category"},
			&cli.BoolFlag{Name: "json", Usage: "Print the result as JSON"},
		},
	}
}

func reindexCommand(a *app) *cli.Command {
	return &cli.Command{
		Name:   "reindex",
		Usage:  "Rebuild the tag index from every cached page",
		Action: a.reindex,
	}
}

func (a *app) tagIndex() (*tagindex.Index, error) {
	handle, err := do.Invoke[*providers.TagIndexHandle](a.injector)
	if err != nil {
		return nil, err
	}
	if handle.Index == nil {
		return nil, domainerrors.Unavailable("tag index is disabled")
	}
	return handle.Index, nil
}

func (a *app) find(c *cli.Context) error {
	params := tagindex.DefaultFindParams()
	params.Text = strings.Join(c.Args().Slice(), " ")
	params.Rating = c.String("rating")
	params.Limit = c.Int("limit")
	params.SortBy = c.String("sort")
	params.Facets = c.Bool("facets")

	for _, raw := range c.StringSlice("tag") {
		prefix, name, ok := strings.Cut(raw, ":")
		if category, known := tag.ParseCategory(prefix); ok && known {
			params.Tags = append(params.Tags, tag.New(name, category))
			continue
		}
		params.Tags = append(params.Tags, tag.New(raw, ""))
	}

	index, err := a.tagIndex()
	if err != nil {
		return err
	}

	res, err := index.Find(c.Context, params)
	if err != nil {
		return err
	}

	if c.Bool("json") {
		return writeJSON(a.out, res)
	}

	fmt.Fprintf(a.out, "%d works (%dms)\n", res.Total, res.TookMs)
	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	for _, h := range res.Hits {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\n", h.WorkID, h.Title, strings.Join(h.Authors, ", "), h.Kudos)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, category := range tag.Categories {
		counts := res.Facets[category]
		if len(counts) == 0 {
			continue
		}
		parts := make([]string, len(counts))
		for i, fc := range counts {
			parts[i] = fmt.Sprintf("%s (%d)", fc.Value, fc.Count)
		}
		fmt.Fprintf(a.out, "%s: %s\n", category, strings.Join(parts, ", "))
	}
	return nil
}

func (a *app) reindex(c *cli.Context) error {
	index, err := a.tagIndex()
	if err != nil {
		return err
	}
	pages, err := do.Invoke[*providers.CacheHandle](a.injector)
	if err != nil {
		return err
	}

	entries, err := pages.Entries(c.Context)
	if err != nil {
		return fmt.Errorf("list cache: %w", err)
	}

	if err := index.Rebuild(); err != nil {
		return err
	}

	var indexed, skipped int
	for _, e := range entries {
		if e.Corrupt {
			skipped++
			continue
		}
		raw, ok := pages.Lookup(c.Context, e.Key)
		if !ok {
			skipped++
			continue
		}
		page, err := extract.ParseResultsPage(raw)
		if err != nil {
			skipped++
			continue
		}
		if err := index.IndexWorks(c.Context, page.Works); err != nil {
			return fmt.Errorf("index %s: %w", e.Key, err)
		}
		indexed += len(page.Works)
	}

	count, _ := index.DocumentCount()
	fmt.Fprintf(a.out, "indexed %d works from %d pages (%d skipped), %d documents\n",
		indexed, len(entries)-skipped, skipped, count)
	return nil
}
