package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/samber/do/v2"
	"github.com/urfave/cli/v2"

	"github.com/anditianred/ao3-api/internal/di/providers"
	domainerrors "github.com/anditianred/ao3-api/internal/errors"
	"github.com/anditianred/ao3-api/internal/query"
)

func cacheCommand(a *app) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect and prune the page cache",
		Subcommands: []*cli.Command{
			{
				Name:   "ls",
				Usage:  "List cached pages, oldest first",
				Action: a.cacheList,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "Print entries as JSON"},
				},
			},
			{
				Name:      "rm",
				Usage:     "Remove cached pages so the next search fetches again",
				ArgsUsage: "<key>...",
				Action:    a.cacheRemove,
			},
		},
	}
}

func (a *app) cacheList(c *cli.Context) error {
	pages, err := do.Invoke[*providers.CacheHandle](a.injector)
	if err != nil {
		return err
	}

	entries, err := pages.Entries(c.Context)
	if err != nil {
		return fmt.Errorf("list cache: %w", err)
	}

	if c.Bool("json") {
		return writeJSON(a.out, entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(a.out, "cache is empty")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tSTORED\tSTATE")
	for _, e := range entries {
		state, stored := "fresh", e.StoredAt.Local().Format(time.DateTime)
		switch {
		case e.Corrupt:
			state, stored = "corrupt", "-"
		case e.Stale:
			state = "stale"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Key, stored, state)
	}
	return tw.Flush()
}

func (a *app) cacheRemove(c *cli.Context) error {
	if c.NArg() == 0 {
		return domainerrors.Validation("expected at least one cache key")
	}

	keys := make([]query.Key, 0, c.NArg())
	for _, arg := range c.Args().Slice() {
		key := query.Key(arg)
		if !key.Valid() {
			return domainerrors.Validationf("malformed cache key %q", arg)
		}
		keys = append(keys, key)
	}

	pages, err := do.Invoke[*providers.CacheHandle](a.injector)
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := pages.Remove(c.Context, key); err != nil {
			return fmt.Errorf("remove %s: %w", key, err)
		}
		fmt.Fprintln(a.out, "removed", key)
	}
	return nil
}
