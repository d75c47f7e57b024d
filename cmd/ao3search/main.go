// Package main provides the ao3search command line client: catalog searches
// through the page cache, tag extraction from saved listings, and
// maintenance of the cache and the local tag index.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/samber/do/v2"
	"github.com/urfave/cli/v2"

	"github.com/anditianred/ao3-api/internal/di"
	domainerrors "github.com/anditianred/ao3-api/internal/errors"
)

// app carries what every command needs.
type app struct {
	out      io.Writer
	injector *do.RootScope
}

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(domainerrors.CodeOf(err).ExitCode())
	}
}

func newApp(out io.Writer) *cli.App {
	a := &app{out: out}

	return &cli.App{
		Name:      "ao3search",
		Usage:     "Search the catalog through a local page cache",
		Writer:    out,
		ErrWriter: io.Discard,
		// main maps errors to exit codes.
		ExitErrHandler: func(*cli.Context, error) {},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "warn",
			},
			&cli.StringFlag{
				Name:  "cache-dir",
				Usage: "Cache directory (default: ~/.cache/ao3-api)",
			},
			&cli.StringFlag{
				Name:  "cache-backend",
				Usage: "Cache index backend: sqlite (default) or badger (single process only)",
			},
			&cli.StringFlag{
				Name:  "catalog-url",
				Usage: "Catalog base URL",
			},
			&cli.BoolFlag{
				Name:  "tag-index",
				Usage: "Index works from search results",
				Value: true,
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Path to .env file",
				Value: ".env",
			},
		},
		Before: a.setup,
		After:  a.teardown,
		Commands: []*cli.Command{
			searchCommand(a),
			tagsCommand(a),
			cacheCommand(a),
			findCommand(a),
			reindexCommand(a),
		},
	}
}

// setup creates the container; providers run lazily, so commands that never
// touch the cache never open it.
func (a *app) setup(c *cli.Context) error {
	args := []string{
		"-log-level", c.String("log-level"),
		"-env-file", c.String("env-file"),
	}
	for _, name := range []string{"cache-dir", "cache-backend", "catalog-url"} {
		if c.IsSet(name) {
			args = append(args, "-"+name, c.String(name))
		}
	}
	if c.IsSet("tag-index") {
		args = append(args, "-tag-index", fmt.Sprint(c.Bool("tag-index")))
	}

	a.injector = di.NewContainer(args)
	return nil
}

func (a *app) teardown(_ *cli.Context) error {
	if a.injector == nil {
		return nil
	}
	if err := a.injector.Shutdown(); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
