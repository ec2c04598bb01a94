package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/AnthonyMichaelTDM/mecomp-sub002/internal/cluster"
	"github.com/AnthonyMichaelTDM/mecomp-sub002/internal/ingest"
)

// libraryCommand groups the maintenance operations spec.md §6 lists under
// "library": rescan (C6's metadata pass), analyze (C4's decode+descriptor+
// embedding pass), recluster (C8), and a read-only health summary of song,
// analyzed-song and collection counts. There is no full or brief summary
// subcommand.
func (d *daemon) libraryCommand() *cli.Command {
	return &cli.Command{
		Name:  "library",
		Usage: "Scan, analyze and cluster the library",
		Commands: []*cli.Command{
			d.libraryRescanCommand(),
			d.libraryAnalyzeCommand(),
			d.libraryReclusterCommand(),
			d.libraryHealthCommand(),
		},
	}
}

func (d *daemon) libraryRescanCommand() *cli.Command {
	return &cli.Command{
		Name:  "rescan",
		Usage: "Walk the configured library paths and upsert Songs",
		Action: func(ctx context.Context, _ *cli.Command) error {
			scanner := ingest.NewScanner(d.store, d.bus, d.flags, d.settings)

			summary, err := scanner.Scan(ctx, d.settings.LibraryPaths)
			if err != nil {
				return err
			}

			return printJSON(summary)
		},
	}
}

func (d *daemon) libraryAnalyzeCommand() *cli.Command {
	return &cli.Command{
		Name:  "analyze",
		Usage: "Decode, extract descriptors and embed every un-analyzed Song",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "force", Usage: "Re-analyze Songs that already have an Analysis"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			analyzer := ingest.NewAnalyzer(d.store, d.bus, d.flags, d.cancel, d.settings)

			summary, err := analyzer.AnalyzeLibrary(ctx, cmd.Bool("force"))
			if err != nil {
				return err
			}

			return printJSON(summary)
		},
	}
}

func (d *daemon) libraryReclusterCommand() *cli.Command {
	return &cli.Command{
		Name:  "recluster",
		Usage: "Gap-statistic-select k and replace every Collection with a fresh clustering",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "max-k", Value: int64(d.settings.MaxClusters)},
			&cli.IntFlag{Name: "gap-reference-sets", Value: int64(d.settings.GapReferenceSets)},
			&cli.StringFlag{Name: "algorithm", Value: "kmeans", Usage: "kmeans or gmm"},
			&cli.IntFlag{Name: "seed", Value: 0},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			clusterer := cluster.New(d.store, d.flags, d.cancel)

			settings := cluster.Settings{
				MaxK:                 int(cmd.Int("max-k")),
				GapReferenceDatasets: int(cmd.Int("gap-reference-sets")),
				Algorithm:            cluster.Algorithm(cmd.String("algorithm")),
				Seed:                 cmd.Int("seed"),
			}

			return clusterer.Recluster(ctx, settings)
		},
	}
}

func (d *daemon) libraryHealthCommand() *cli.Command {
	return &cli.Command{
		Name:  "health",
		Usage: "Report song/analysis/collection counts",
		Action: func(ctx context.Context, _ *cli.Command) error {
			songs, err := d.store.ListSongs(ctx)
			if err != nil {
				return err
			}

			collections, err := d.store.ListCollections(ctx)
			if err != nil {
				return err
			}

			analyzed := 0

			for _, song := range songs {
				if song.AnalysisID != nil {
					analyzed++
				}
			}

			return printJSON(map[string]int{
				"songs":       len(songs),
				"analyzed":    analyzed,
				"collections": len(collections),
			})
		},
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(cliOut)
	enc.SetIndent("", "  ")

	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}

	return nil
}
