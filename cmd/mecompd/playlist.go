package main

import (
	"context"
	"errors"

	"github.com/urfave/cli/v3"

	"github.com/AnthonyMichaelTDM/mecomp-sub002"
)

var errPlaylistArgs = errors.New("expected a playlist Thing and at least one song Thing")

// playlistCommand covers spec.md §6's playlist rows: list, create, add and
// remove, each a thin wrapper over the matching store method.
func (d *daemon) playlistCommand() *cli.Command {
	return &cli.Command{
		Name:  "playlist",
		Usage: "Manage user-ordered Playlists",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List every Playlist",
				Action: func(ctx context.Context, _ *cli.Command) error {
					playlists, err := d.store.ListPlaylists(ctx)
					if err != nil {
						return err
					}

					return printJSON(playlists)
				},
			},
			{
				Name:      "create",
				Usage:     "Create an empty Playlist",
				ArgsUsage: "<name>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					id, err := d.store.CreatePlaylist(ctx, cmd.Args().First())
					if err != nil {
						return err
					}

					return printJSON(map[string]string{"id": id.String()})
				},
			},
			{
				Name:      "add",
				Usage:     "Append Songs to a Playlist",
				ArgsUsage: "<playlist-thing> <song-thing...>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					playlistID, songIDs, err := parsePlaylistArgs(cmd)
					if err != nil {
						return err
					}

					return d.store.AddToPlaylist(ctx, playlistID, songIDs)
				},
			},
			{
				Name:      "remove",
				Usage:     "Remove Songs from a Playlist",
				ArgsUsage: "<playlist-thing> <song-thing...>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					playlistID, songIDs, err := parsePlaylistArgs(cmd)
					if err != nil {
						return err
					}

					return d.store.RemoveFromPlaylist(ctx, playlistID, songIDs)
				},
			},
			{
				Name:      "songs",
				Usage:     "List a Playlist's Songs in order",
				ArgsUsage: "<playlist-thing>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					id, err := mecomp.ParseThing(cmd.Args().First())
					if err != nil {
						return err
					}

					songs, err := d.store.PlaylistSongs(ctx, id)
					if err != nil {
						return err
					}

					return printJSON(songs)
				},
			},
		},
	}
}

func parsePlaylistArgs(cmd *cli.Command) (mecomp.Thing, []mecomp.Thing, error) {
	args := cmd.Args().Slice()
	if len(args) < 2 { //nolint:mnd
		return mecomp.Thing{}, nil, errPlaylistArgs
	}

	playlistID, err := mecomp.ParseThing(args[0])
	if err != nil {
		return mecomp.Thing{}, nil, err
	}

	songIDs := make([]mecomp.Thing, 0, len(args)-1)

	for _, raw := range args[1:] {
		songID, err := mecomp.ParseThing(raw)
		if err != nil {
			return mecomp.Thing{}, nil, err
		}

		songIDs = append(songIDs, songID)
	}

	return playlistID, songIDs, nil
}

// collectionCommand covers spec.md §6's read-only collection row:
// Collections are only ever written by library.recluster.
func (d *daemon) collectionCommand() *cli.Command {
	return &cli.Command{
		Name:  "collection",
		Usage: "Inspect clustering-derived Collections",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List every Collection",
				Action: func(ctx context.Context, _ *cli.Command) error {
					collections, err := d.store.ListCollections(ctx)
					if err != nil {
						return err
					}

					return printJSON(collections)
				},
			},
			{
				Name:      "songs",
				Usage:     "List a Collection's Songs",
				ArgsUsage: "<thing>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					id, err := mecomp.ParseThing(cmd.Args().First())
					if err != nil {
						return err
					}

					songs, err := d.store.CollectionSongs(ctx, id)
					if err != nil {
						return err
					}

					return printJSON(songs)
				},
			},
		},
	}
}
