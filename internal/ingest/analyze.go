package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/AnthonyMichaelTDM/mecomp-sub002"
	"github.com/AnthonyMichaelTDM/mecomp-sub002/internal/analysis"
	"github.com/AnthonyMichaelTDM/mecomp-sub002/internal/config"
	"github.com/AnthonyMichaelTDM/mecomp-sub002/internal/decode"
	"github.com/AnthonyMichaelTDM/mecomp-sub002/internal/descriptors"
	"github.com/AnthonyMichaelTDM/mecomp-sub002/internal/embed"
	"github.com/AnthonyMichaelTDM/mecomp-sub002/internal/eventbus"
	"github.com/AnthonyMichaelTDM/mecomp-sub002/internal/flight"
	"github.com/AnthonyMichaelTDM/mecomp-sub002/internal/store"
)

// AnalyzeSummary is the per-run result of an analysis pass: how many songs
// newly got an Analysis, how many were skipped (already analyzed, force not
// set), and how many failed decode/descriptor/embedding and were left
// without one (spec.md §4.6's "analysis remains absent" recovery policy).
type AnalyzeSummary struct {
	Analyzed int
	Skipped  int
	Failed   int
}

// Analyzer is C4's driver: decode -> descriptor suite -> neural embedding ->
// Aggregate -> store.UpsertAnalysis, for every Song missing an Analysis (or
// every Song, when called with force).
type Analyzer struct {
	Store    *store.Store
	Bus      *eventbus.Bus
	Flags    *flight.Flags
	Cancel   *flight.Cancel
	Decoder  decode.Decoder
	Settings config.DaemonSettings
}

func NewAnalyzer(st *store.Store, bus *eventbus.Bus, flags *flight.Flags, cancel *flight.Cancel, settings config.DaemonSettings) *Analyzer {
	return &Analyzer{
		Store:    st,
		Bus:      bus,
		Flags:    flags,
		Cancel:   cancel,
		Decoder:  decode.NewFFmpegDecoder(),
		Settings: settings,
	}
}

var ErrAnalyze = errors.New("ingest: analysis failed")

// AnalyzeLibrary runs C4 over every eligible Song. Each worker owns its own
// embed.Model since onnxruntime sessions aren't safe for concurrent use
// (internal/embed's doc comment); workers check flight.Cancel between files
// for best-effort cooperative cancellation of a long pass.
func (a *Analyzer) AnalyzeLibrary(ctx context.Context, force bool) (AnalyzeSummary, error) {
	release, err := a.Flags.EnterAnalyze()
	if err != nil {
		return AnalyzeSummary{}, err
	}
	defer release()

	songs, err := a.Store.ListSongs(ctx)
	if err != nil {
		return AnalyzeSummary{}, err
	}

	var targets []mecomp.Song

	for _, song := range songs {
		if force || song.AnalysisID == nil {
			targets = append(targets, song)
		}
	}

	var (
		mu      sync.Mutex
		summary AnalyzeSummary
	)

	summary.Skipped = len(songs) - len(targets)

	workers := runtime.GOMAXPROCS(0)

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(workers)

	models := make(chan *embed.Model, workers)

	defer func() {
		close(models)
		for model := range models {
			if err := model.Close(); err != nil {
				slog.Warn("ingest: failed to close embedding model", "error", err)
			}
		}
	}()

	for i := 0; i < workers; i++ {
		model, err := embed.NewModel(a.Settings.ONNXModelPath, maxEmbedSamples)
		if err != nil {
			return summary, fmt.Errorf("%w: loading model: %w", ErrAnalyze, err)
		}

		models <- model
	}

	for _, song := range targets {
		song := song

		group.Go(func() error {
			if a.Cancel.Requested() {
				return nil
			}

			model := <-models
			err := a.analyzeOne(groupCtx, song, model)
			models <- model

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				slog.Warn("ingest: analysis failed", "path", song.Path, "error", err)
				summary.Failed++

				return nil
			}

			summary.Analyzed++

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return summary, fmt.Errorf("%w: %w", ErrAnalyze, err)
	}

	if err := a.Bus.Publish(eventbus.LibraryAnalysisFinished, summary); err != nil {
		slog.Warn("ingest: failed to publish analysis event", "error", err)
	}

	return summary, nil
}

// maxEmbedSamples bounds the input tensor allocated per worker Model: 30
// seconds at the canonical 22,050 Hz decode rate, long enough for the
// descriptor suite's own windowing and the embedding model's fixed-size
// input alike.
const maxEmbedSamples = 30 * 22050

func (a *Analyzer) analyzeOne(ctx context.Context, song mecomp.Song, model *embed.Model) error {
	audio, err := a.Decoder.Decode(ctx, song.Path)
	if err != nil {
		return err
	}

	descs := descriptors.Run(audio.SampleRate, audio.Samples)

	embedding, err := model.Embed(ctx, audio.Samples)
	if err != nil {
		return err
	}

	result, err := analysis.Aggregate(descs, embedding)
	if err != nil {
		return err
	}

	_, err = a.Store.UpsertAnalysis(ctx, song.ID, result.Features)

	return err
}
