package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	domainerrors "github.com/anditianred/ao3-api/internal/errors"
	"github.com/anditianred/ao3-api/internal/extract"
	"github.com/anditianred/ao3-api/internal/tag"
)

func tagsCommand(a *app) *cli.Command {
	return &cli.Command{
		Name:      "tags",
		Usage:     "Print the tags of every item in a saved listing page",
		ArgsUsage: "<file.html | ->",
		Action:    a.tags,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "relationships",
				Aliases: []string{"r"},
				Usage:   "Also split relationship tags into kind and participants",
			},
			&cli.BoolFlag{Name: "json", Usage: "Print the tags as JSON"},
		},
	}
}

// itemTags is the tag output for one listing item.
type itemTags struct {
	ID            int                `json:"id"`
	Title         string             `json:"title"`
	Tags          *tag.Group         `json:"tags"`
	Relationships []tag.Relationship `json:"relationships,omitempty"`
}

func (a *app) tags(c *cli.Context) error {
	if c.NArg() != 1 {
		return domainerrors.Validation("expected one listing file, or - for stdin")
	}

	raw, err := readInput(c.App.Reader, c.Args().First())
	if err != nil {
		return err
	}

	works, err := extract.ItemsFromMarkup(raw)
	if err != nil {
		return domainerrors.ParseFailed("listing could not be read").WithCause(err)
	}

	items := make([]itemTags, 0, len(works))
	for _, w := range works {
		item := itemTags{ID: w.ID, Title: w.Title, Tags: w.Tags}
		if c.Bool("relationships") {
			item.Relationships = w.Tags.Relationships()
		}
		items = append(items, item)
	}

	if c.Bool("json") {
		return writeJSON(a.out, items)
	}
	printTags(a.out, items)
	return nil
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read listing: %w", err)
	}
	return raw, nil
}

func printTags(w io.Writer, items []itemTags) {
	if len(items) == 0 {
		fmt.Fprintln(w, "no items found")
		return
	}

	for i, item := range items {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%d  %s\n", item.ID, item.Title)
		for _, c := range tag.Categories {
			tags := item.Tags.Tags(c)
			if len(tags) == 0 {
				continue
			}
			names := make([]string, len(tags))
			for j, t := range tags {
				names[j] = t.Name
			}
			fmt.Fprintf(w, "  %s: %s\n", c, strings.Join(names, ", "))
		}
		for _, rel := range item.Relationships {
			names := make([]string, len(rel.Participants))
			for j, p := range rel.Participants {
				names[j] = p.Name
			}
			fmt.Fprintf(w, "  %s (%s): %s\n", rel.Name, rel.Kind, strings.Join(names, " + "))
		}
	}
}
