// Command mecomp-report walks a library folder, probes and decodes every
// audio file, extracts descriptors and writes one JSONL record per file --
// a standalone diagnostic companion to mecompd built on a worker pool, a
// JSONL-per-file report and a summary digest. Unlike the daemon's ingest
// pass, it reports per-file descriptor values and timings instead of
// writing to the store.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"
)

func main() {
	ctx := context.Background()

	appl := &cli.Command{
		Name:  "mecomp-report",
		Usage: "Produce and inspect JSONL descriptor reports for a music folder",
		Commands: []*cli.Command{
			reportCommand(),
			digestCommand(),
		},
	}

	if err := appl.Run(ctx, os.Args); err != nil {
		slog.Error("mecomp-report: command failed", "error", err)
		os.Exit(1)
	}
}
