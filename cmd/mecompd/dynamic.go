package main

import (
	"context"
	"errors"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/AnthonyMichaelTDM/mecomp-sub002"
	"github.com/AnthonyMichaelTDM/mecomp-sub002/internal/query"
	"github.com/AnthonyMichaelTDM/mecomp-sub002/internal/similarity"
)

var errDynamicArgs = errors.New("expected a dynamic playlist name and a query")

// dynamicPlaylistCommand covers spec.md §6's dynamic-playlist rows:
// listing stored queries, creating (parsing and saving) one, running a
// saved one by Thing id through C9's lexer/parser/compile pipeline, and
// deleting one.
func (d *daemon) dynamicPlaylistCommand() *cli.Command {
	return &cli.Command{
		Name:  "dynamic-playlist",
		Usage: "Manage saved queries over the music graph",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List every saved dynamic playlist",
				Action: func(ctx context.Context, _ *cli.Command) error {
					records, err := d.store.ListDynamicPlaylists(ctx)
					if err != nil {
						return err
					}

					return printJSON(records)
				},
			},
			{
				Name:      "create",
				Usage:     "Parse, validate and save a query under name",
				ArgsUsage: "<name> <query...>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					args := cmd.Args().Slice()
					if len(args) < 2 { //nolint:mnd
						return errDynamicArgs
					}

					id, err := query.Create(ctx, d.store, args[0], strings.Join(args[1:], " "))
					if err != nil {
						return err
					}

					return printJSON(map[string]string{"id": id.String()})
				},
			},
			{
				Name:      "run",
				Usage:     "Run a saved dynamic playlist's query now",
				ArgsUsage: "<thing>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					id, err := mecomp.ParseThing(cmd.Args().First())
					if err != nil {
						return err
					}

					songs, err := query.RunDynamicPlaylist(ctx, d.store, id)
					if err != nil {
						return err
					}

					return printJSON(songs)
				},
			},
			{
				Name:      "delete",
				Usage:     "Delete a saved dynamic playlist",
				ArgsUsage: "<thing>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					id, err := mecomp.ParseThing(cmd.Args().First())
					if err != nil {
						return err
					}

					return d.store.DeleteDynamicPlaylist(ctx, id)
				},
			},
		},
	}
}

// radioCommand implements spec.md §6's radio row: expand the given Things
// to Songs, centroid their Analyses, and return the n nearest neighbors
// excluding the inputs (C7's similarity engine).
func (d *daemon) radioCommand() *cli.Command {
	return &cli.Command{
		Name:  "radio",
		Usage: "Find Songs similar to a seed set of Things",
		Commands: []*cli.Command{
			{
				Name:      "similar",
				Usage:     "List the n Songs closest to the seed Things",
				ArgsUsage: "<thing...>",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "n", Value: 20}, //nolint:mnd
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					raw := cmd.Args().Slice()

					things := make([]mecomp.Thing, 0, len(raw))

					for _, arg := range raw {
						thing, err := mecomp.ParseThing(arg)
						if err != nil {
							return err
						}

						things = append(things, thing)
					}

					engine := similarity.New(d.store)

					songs, err := engine.Similar(ctx, things, int(cmd.Int("n")))
					if err != nil {
						return err
					}

					return printJSON(songs)
				},
			},
		},
	}
}
