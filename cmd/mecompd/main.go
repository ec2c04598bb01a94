// Command mecompd is the library daemon's CLI surface: library
// maintenance (rescan/analyze/recluster/health), catalog listing, playlist
// and dynamic-playlist management, and similarity radio -- spec.md §6's
// command table, one subcommand per row.
package main

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/AnthonyMichaelTDM/mecomp-sub002/internal/config"
	"github.com/AnthonyMichaelTDM/mecomp-sub002/internal/eventbus"
	"github.com/AnthonyMichaelTDM/mecomp-sub002/internal/flight"
	"github.com/AnthonyMichaelTDM/mecomp-sub002/internal/store"
)

const (
	appName    = "mecompd"
	appVersion = "0.1.0"
)

// cliOut is where every subcommand's JSON result is written; a package
// variable rather than a field so printJSON stays a free function.
var cliOut io.Writer = os.Stdout //nolint:gochecknoglobals

// daemon bundles the long-lived dependencies every subcommand's Action
// closes over: one store connection, one event bus, one set of
// single-flight flags for the whole process lifetime.
type daemon struct {
	store    *store.Store
	bus      *eventbus.Bus
	flags    *flight.Flags
	cancel   *flight.Cancel
	settings config.DaemonSettings
}

func main() {
	ctx := context.Background()

	settings, err := config.Load()
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}

	st, err := store.Open("sqlite://" + settings.DBPath)
	if err != nil {
		slog.Error("opening store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	d := &daemon{
		store:    st,
		bus:      eventbus.New(),
		flags:    &flight.Flags{},
		cancel:   &flight.Cancel{},
		settings: settings,
	}

	appl := &cli.Command{
		Name:    appName,
		Usage:   "Local music library manager with content-based analysis",
		Version: appVersion,
		Commands: []*cli.Command{
			d.libraryCommand(),
			d.songCommand(),
			d.albumCommand(),
			d.artistCommand(),
			d.playlistCommand(),
			d.collectionCommand(),
			d.dynamicPlaylistCommand(),
			d.radioCommand(),
		},
	}

	if err := appl.Run(ctx, os.Args); err != nil {
		slog.Error("mecompd: command failed", "error", err)
		os.Exit(1)
	}
}
