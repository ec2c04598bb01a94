// Package similarity implements C7: resolving a set of Things (songs,
// albums, artists, playlists, collections) to their constituent songs,
// centroiding their Analysis vectors, and querying the store's vector
// index for the nearest unrelated songs -- the engine behind
// spec.md §6's radio_similar command.
package similarity

import (
	"context"
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/AnthonyMichaelTDM/mecomp-sub002"
	"github.com/AnthonyMichaelTDM/mecomp-sub002/internal/store"
)

var ErrUnsupportedThing = errors.New("similarity: thing table cannot be resolved to songs")

// Engine is C7, holding only the store dependency every other library
// component is given.
type Engine struct {
	store *store.Store
}

func New(st *store.Store) *Engine {
	return &Engine{store: st}
}

// Similar implements spec.md §4.7's contract: resolve every thing to its
// constituent songs, fetch their Analyses, k-NN the centroid of those
// Analyses, exclude the input songs, return up to n ranked Songs.
func (e *Engine) Similar(ctx context.Context, things []mecomp.Thing, n int) ([]mecomp.Song, error) {
	inputSongs, err := e.expand(ctx, things)
	if err != nil {
		return nil, err
	}

	if len(inputSongs) == 0 {
		return nil, fmt.Errorf("%w: no songs resolved from input things", mecomp.ErrNotFound)
	}

	analyses, err := e.store.GetAnalysesBySongs(ctx, inputSongs)
	if err != nil {
		return nil, err
	}

	if len(analyses) == 0 {
		return nil, fmt.Errorf("%w: none of the resolved songs have an analysis", mecomp.ErrEmptyAnalysis)
	}

	centroid := centroidOf(analyses)

	exclude := make(map[mecomp.Thing]bool, len(inputSongs))
	for _, id := range inputSongs {
		exclude[id] = true
	}

	return e.store.KNearest(ctx, centroid, n, exclude)
}

// expand resolves every Thing to its constituent song ids, deduplicating
// across overlapping inputs (e.g. an album and one of its own songs named
// together).
func (e *Engine) expand(ctx context.Context, things []mecomp.Thing) ([]mecomp.Thing, error) {
	seen := map[mecomp.Thing]bool{}

	var songIDs []mecomp.Thing

	add := func(id mecomp.Thing) {
		if !seen[id] {
			seen[id] = true

			songIDs = append(songIDs, id)
		}
	}

	for _, thing := range things {
		switch thing.Table {
		case mecomp.TableSong:
			add(thing)

		case mecomp.TableAlbum:
			songs, err := e.store.AlbumSongs(ctx, thing)
			if err != nil {
				return nil, err
			}

			for _, s := range songs {
				add(s.ID)
			}

		case mecomp.TableArtist:
			songs, err := e.store.ArtistSongs(ctx, thing)
			if err != nil {
				return nil, err
			}

			for _, s := range songs {
				add(s.ID)
			}

		case mecomp.TablePlaylist:
			songs, err := e.store.PlaylistSongs(ctx, thing)
			if err != nil {
				return nil, err
			}

			for _, s := range songs {
				add(s.ID)
			}

		case mecomp.TableCollection:
			songs, err := e.store.CollectionSongs(ctx, thing)
			if err != nil {
				return nil, err
			}

			for _, s := range songs {
				add(s.ID)
			}

		default:
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedThing, thing.Table)
		}
	}

	return songIDs, nil
}

// centroidOf averages a set of same-width Analysis feature vectors.
func centroidOf(analyses []mecomp.Analysis) []float64 {
	width := len(analyses[0].Features)
	sum := make([]float64, width)

	for _, a := range analyses {
		n := len(a.Features)
		if n > width {
			n = width
		}

		floats.Add(sum[:n], a.Features[:n])
	}

	floats.Scale(1/float64(len(analyses)), sum)

	return sum
}
