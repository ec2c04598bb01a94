package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/AnthonyMichaelTDM/mecomp-sub002"
)

// songCommand, albumCommand and artistCommand expose the read-only catalog
// listing operations spec.md §6's "song", "album" and "artist" rows
// describe.
func (d *daemon) songCommand() *cli.Command {
	return &cli.Command{
		Name:  "song",
		Usage: "Inspect Songs",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List every Song",
				Action: func(ctx context.Context, _ *cli.Command) error {
					songs, err := d.store.ListSongs(ctx)
					if err != nil {
						return err
					}

					return printJSON(songs)
				},
			},
			{
				Name:      "get",
				Usage:     "Get one Song by Thing id",
				ArgsUsage: "<thing>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					id, err := mecomp.ParseThing(cmd.Args().First())
					if err != nil {
						return err
					}

					song, err := d.store.GetSong(ctx, id)
					if err != nil {
						return err
					}

					return printJSON(song)
				},
			},
		},
	}
}

func (d *daemon) albumCommand() *cli.Command {
	return &cli.Command{
		Name:  "album",
		Usage: "Inspect Albums",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List every Album",
				Action: func(ctx context.Context, _ *cli.Command) error {
					albums, err := d.store.ListAlbums(ctx)
					if err != nil {
						return err
					}

					return printJSON(albums)
				},
			},
			{
				Name:      "songs",
				Usage:     "List an Album's Songs",
				ArgsUsage: "<thing>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					id, err := mecomp.ParseThing(cmd.Args().First())
					if err != nil {
						return err
					}

					songs, err := d.store.AlbumSongs(ctx, id)
					if err != nil {
						return err
					}

					return printJSON(songs)
				},
			},
		},
	}
}

func (d *daemon) artistCommand() *cli.Command {
	return &cli.Command{
		Name:  "artist",
		Usage: "Inspect Artists",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List every Artist",
				Action: func(ctx context.Context, _ *cli.Command) error {
					artists, err := d.store.ListArtists(ctx)
					if err != nil {
						return err
					}

					return printJSON(artists)
				},
			},
			{
				Name:      "songs",
				Usage:     "List an Artist's Songs",
				ArgsUsage: "<thing>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					id, err := mecomp.ParseThing(cmd.Args().First())
					if err != nil {
						return err
					}

					songs, err := d.store.ArtistSongs(ctx, id)
					if err != nil {
						return err
					}

					return printJSON(songs)
				},
			},
		},
	}
}
